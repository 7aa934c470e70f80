package tree

import (
	"context"

	"github.com/vanderheijden86/grove/pkg/model"
)

// ParentForNormalReply decides where a new reply should attach. The outer ok
// reports whether the cursor can host a reply at all (virtual cursors except
// Bottom cannot); a nil parent means a new top-level thread.
//
// A reply to a message that has further siblings becomes a direct reply: an
// indirect one might end up far below in the conversation. A reply to a
// message without younger siblings becomes an indirect reply to its parent,
// so threads don't nest without bound. A childless top-level root is replied
// to directly to avoid a gratuitous new thread.
func (vs *ViewState) ParentForNormalReply(ctx context.Context) (*model.MessageID, bool, error) {
	switch c := vs.cursor.(type) {
	case Bottom:
		return nil, true, nil
	case Msg:
		tree, err := vs.treeOf(ctx, c.ID)
		if err != nil {
			return nil, false, err
		}
		if _, hasNext := tree.NextSibling(c.ID); hasNext {
			return model.ParentID(c.ID), true, nil
		}
		if p, ok := tree.Parent(c.ID); ok {
			return model.ParentID(p), true, nil
		}
		return model.ParentID(c.ID), true, nil
	default:
		return nil, false, nil
	}
}

// ParentForAlternateReply produces the opposite choice of
// ParentForNormalReply, except for a childless top-level root, which is still
// replied to directly.
func (vs *ViewState) ParentForAlternateReply(ctx context.Context) (*model.MessageID, bool, error) {
	switch c := vs.cursor.(type) {
	case Bottom:
		return nil, true, nil
	case Msg:
		tree, err := vs.treeOf(ctx, c.ID)
		if err != nil {
			return nil, false, err
		}
		if _, hasNext := tree.NextSibling(c.ID); !hasNext {
			return model.ParentID(c.ID), true, nil
		}
		if p, ok := tree.Parent(c.ID); ok {
			return model.ParentID(p), true, nil
		}
		return model.ParentID(c.ID), true, nil
	default:
		return nil, false, nil
	}
}

// StartReply replaces the cursor with an Editor at the chosen reply target.
// It reports false without moving if the current cursor cannot host a reply.
func (vs *ViewState) StartReply(ctx context.Context, alternate bool) (bool, error) {
	var (
		parent *model.MessageID
		ok     bool
		err    error
	)
	if alternate {
		parent, ok, err = vs.ParentForAlternateReply(ctx)
	} else {
		parent, ok, err = vs.ParentForNormalReply(ctx)
	}
	if err != nil || !ok {
		return false, err
	}
	vs.cursor = Editor{ComingFrom: vs.comingFrom(), Parent: parent}
	vs.request(MakeCursorVisible)
	return true, nil
}

// AbortEditor cancels an open composition and restores the position the
// editor was opened from.
func (vs *ViewState) AbortEditor() {
	ed, ok := vs.cursor.(Editor)
	if !ok {
		return
	}
	if ed.ComingFrom != nil {
		vs.cursor = Msg{ID: *ed.ComingFrom}
	} else {
		vs.cursor = Bottom{}
	}
	vs.request(MakeCursorVisible)
}

// ConfirmEditor turns an open composition into a pseudo row at the position
// the sent message will occupy once the remote service echoes it.
func (vs *ViewState) ConfirmEditor() {
	ed, ok := vs.cursor.(Editor)
	if !ok {
		return
	}
	vs.cursor = Pseudo{ComingFrom: ed.ComingFrom, Parent: ed.Parent}
	vs.request(MakeCursorVisible)
}

// ResolvePseudo replaces a pseudo row with the real message that arrived for
// it. No-op if the cursor is not a pseudo position.
func (vs *ViewState) ResolvePseudo(id model.MessageID) {
	if _, ok := vs.cursor.(Pseudo); !ok {
		return
	}
	vs.cursor = Msg{ID: id}
	vs.request(MakeCursorVisible)
}

func (vs *ViewState) comingFrom() *model.MessageID {
	if m, ok := vs.cursor.(Msg); ok {
		return model.ParentID(m.ID)
	}
	return nil
}
