// Package model defines the core data types shared by the vault and the UI.
package model

import (
	"strconv"
	"sync/atomic"
	"time"
)

// MessageID identifies a message within a room. IDs are snowflake-style: they
// are totally ordered by creation time, but that order is independent of the
// tree structure a message ends up in.
type MessageID int64

// String renders the id the way the wire protocol does (lowercase base 36).
func (id MessageID) String() string {
	return strconv.FormatInt(int64(id), 36)
}

// ParseMessageID parses a base-36 message id.
func ParseMessageID(s string) (MessageID, error) {
	n, err := strconv.ParseInt(s, 36, 64)
	if err != nil {
		return 0, err
	}
	return MessageID(n), nil
}

// Message is the narrow capability the traversal engine and renderer need
// from any message-like entity. Real persisted messages implement it, and so
// do placeholder rows for not-yet-sent replies.
type Message interface {
	ID() MessageID
	Time() time.Time
	Nick() string
	Content() string
}

// Msg is a persisted message as stored in the vault.
type Msg struct {
	MsgID  MessageID
	Parent *MessageID // nil for a root message
	At     time.Time
	Author string
	Body   string
	Seen   bool
}

func (m Msg) ID() MessageID   { return m.MsgID }
func (m Msg) Time() time.Time { return m.At }
func (m Msg) Nick() string    { return m.Author }
func (m Msg) Content() string { return m.Body }

// ParentID returns a copy of the given id for use as a Parent field.
func ParentID(id MessageID) *MessageID {
	return &id
}

var idSeq atomic.Uint32

// NewMessageID mints a locally unique snowflake-style id: millisecond
// timestamp in the high bits, a wrapping sequence counter in the low ten.
// Local ids stay chronologically ordered with server-assigned ones.
func NewMessageID(t time.Time) MessageID {
	seq := idSeq.Add(1) & 0x3ff
	return MessageID(t.UnixMilli()<<10 | int64(seq))
}
