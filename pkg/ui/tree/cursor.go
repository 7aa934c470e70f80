// Package tree implements the cursor and traversal logic for a threaded
// message view. It is pure logic over a store.MsgStore: it never creates or
// deletes messages, only reply-composition placeholders.
package tree

import "github.com/vanderheijden86/grove/pkg/model"

// Cursor is a view's single logical position. It is one of four variants:
//
//   - Bottom: the live edge, below all currently loaded messages
//   - Msg: positioned exactly at a real message
//   - Editor: an open reply composition, not yet rendered as a message
//   - Pseudo: a placeholder row where a not-yet-sent reply will appear
//
// At most one Cursor value is live per view; each movement operation replaces
// it atomically.
type Cursor interface {
	cursor()
}

// Bottom is the live edge below all currently loaded messages.
type Bottom struct{}

// Msg is a position at a real message.
type Msg struct {
	ID model.MessageID
}

// Editor is a virtual position representing an open reply composition.
// Parent is nil for a top-level reply. ComingFrom remembers the position to
// restore when the composition is aborted.
type Editor struct {
	ComingFrom *model.MessageID
	Parent     *model.MessageID
}

// Pseudo is a placeholder node at the position a not-yet-sent message will
// occupy once the remote service echoes it. It participates in up/down
// traversal like a real leaf under Parent.
type Pseudo struct {
	ComingFrom *model.MessageID
	Parent     *model.MessageID
}

func (Bottom) cursor() {}
func (Msg) cursor()    {}
func (Editor) cursor() {}
func (Pseudo) cursor() {}

// RefersTo reports whether the cursor is positioned exactly at id.
func RefersTo(c Cursor, id model.MessageID) bool {
	m, ok := c.(Msg)
	return ok && m.ID == id
}

// RefersToLastChildOf reports whether the cursor is a virtual position that
// renders as the last child of id.
func RefersToLastChildOf(c Cursor, id model.MessageID) bool {
	switch c := c.(type) {
	case Editor:
		return c.Parent != nil && *c.Parent == id
	case Pseudo:
		return c.Parent != nil && *c.Parent == id
	default:
		return false
	}
}

// Correction is a view-reconciliation hint set by every cursor mutation and
// resolved exactly once against the rendered geometry. Only the most recent
// hint survives; corrections are overwritten, never queued.
type Correction int

const (
	CorrectionNone Correction = iota
	// MakeCursorVisible scrolls so the cursor row is inside the viewport.
	MakeCursorVisible
	// MoveCursorToVisibleArea moves the cursor to the nearest rendered row
	// inside the viewport, used after free scrolling.
	MoveCursorToVisibleArea
	// CenterCursor scrolls so the cursor row sits in the viewport middle.
	CenterCursor
)
