// Package store defines the read-oriented forest abstraction that the
// traversal engine operates on. Implementations answer structural queries
// against one room's message forest; the vault provides the persistent
// implementation, and tests provide an in-memory one.
package store

import (
	"context"
	"errors"

	"github.com/vanderheijden86/grove/pkg/model"
)

// ErrNotFound is returned when a referenced id has no corresponding message,
// for example because it was deleted concurrently. Callers must treat their
// current position as possibly stale and re-validate instead of crashing.
var ErrNotFound = errors.New("store: message not found")

// MsgStore is one room's view of the message forest. All operations may
// suspend while the backing store processes them, and all of them go through
// the store actor, so a write submitted before a read is visible to it.
//
// Operations returning (id, ok, error) use ok=false for "no such position"
// (start or end of a sequence), which is distinct from an error.
type MsgStore interface {
	// Tree materializes the full root tree containing id. The snapshot is
	// owned by the caller and becomes stale as soon as the store mutates;
	// it must not be retained across a suspension point that can observe
	// new writes.
	Tree(ctx context.Context, id model.MessageID) (*Tree, error)

	// RootID resolves the id of the root tree containing id. It fails with
	// ErrNotFound if the id is unknown.
	RootID(ctx context.Context, id model.MessageID) (model.MessageID, error)

	// Root sequence navigation. Roots are totally ordered and navigable
	// incrementally, so unbounded history can be browsed with bounded
	// memory.
	FirstRootID(ctx context.Context) (model.MessageID, bool, error)
	LastRootID(ctx context.Context) (model.MessageID, bool, error)
	PrevRootID(ctx context.Context, root model.MessageID) (model.MessageID, bool, error)
	NextRootID(ctx context.Context, root model.MessageID) (model.MessageID, bool, error)

	// Chronological navigation, independent of tree structure.
	OlderMsgID(ctx context.Context, id model.MessageID) (model.MessageID, bool, error)
	NewerMsgID(ctx context.Context, id model.MessageID) (model.MessageID, bool, error)
	NewestMsgID(ctx context.Context) (model.MessageID, bool, error)

	// Chronological navigation restricted to messages not yet marked seen.
	OlderUnseenMsgID(ctx context.Context, id model.MessageID) (model.MessageID, bool, error)
	NewerUnseenMsgID(ctx context.Context, id model.MessageID) (model.MessageID, bool, error)
	NewestUnseenMsgID(ctx context.Context) (model.MessageID, bool, error)
}
