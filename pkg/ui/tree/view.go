package tree

import (
	"context"

	"github.com/vanderheijden86/grove/pkg/model"
	"github.com/vanderheijden86/grove/pkg/store"
)

// ViewState holds one view's cursor, fold set and scroll offset, and
// implements every movement operation over the backing store. Operations
// execute one at a time per view; the cursor is never read mid-mutation.
type ViewState struct {
	store      store.MsgStore
	cursor     Cursor
	folded     map[model.MessageID]struct{}
	scroll     int
	correction Correction
}

// NewViewState creates a view positioned at the live edge.
func NewViewState(s store.MsgStore) *ViewState {
	return &ViewState{
		store:  s,
		cursor: Bottom{},
		folded: make(map[model.MessageID]struct{}),
	}
}

// Cursor returns the current cursor value.
func (vs *ViewState) Cursor() Cursor { return vs.cursor }

// Store returns the backing message store.
func (vs *ViewState) Store() store.MsgStore { return vs.store }

// Scroll returns the current scroll offset in rows.
func (vs *ViewState) Scroll() int { return vs.scroll }

// SetScroll overwrites the scroll offset, used by the renderer when it
// resolves a correction against actual geometry.
func (vs *ViewState) SetScroll(scroll int) { vs.scroll = scroll }

// SetCursorTo drags the cursor to a message without queueing a correction.
// The renderer uses this when resolving MoveCursorToVisibleArea: the target
// row is already on screen, so no scroll adjustment must follow.
func (vs *ViewState) SetCursorTo(id model.MessageID) { vs.cursor = Msg{ID: id} }

// TakeCorrection returns the pending correction hint and clears it.
func (vs *ViewState) TakeCorrection() Correction {
	c := vs.correction
	vs.correction = CorrectionNone
	return c
}

// IsFolded reports whether id's children are hidden from traversal.
func (vs *ViewState) IsFolded(id model.MessageID) bool {
	_, ok := vs.folded[id]
	return ok
}

// ToggleFold folds or unfolds the subtree under the current message. It is a
// no-op unless the cursor is at a real message.
func (vs *ViewState) ToggleFold() {
	m, ok := vs.cursor.(Msg)
	if !ok {
		return
	}
	if _, folded := vs.folded[m.ID]; folded {
		delete(vs.folded, m.ID)
	} else {
		vs.folded[m.ID] = struct{}{}
	}
	vs.correction = MakeCursorVisible
}

func (vs *ViewState) walkerAt(tree *store.Tree, id model.MessageID) walker {
	return walker{store: vs.store, folded: vs.folded, tree: tree, id: id}
}

// treeOf re-fetches the root tree containing id. Trees are never cached
// across operations; a mutation between two movements must be observed.
func (vs *ViewState) treeOf(ctx context.Context, id model.MessageID) (*store.Tree, error) {
	root, err := vs.store.RootID(ctx, id)
	if err != nil {
		return nil, err
	}
	return vs.store.Tree(ctx, root)
}

// lastDescendantOfLastRoot resolves the position just above the live edge.
func (vs *ViewState) lastDescendantOfLastRoot(ctx context.Context) (model.MessageID, bool, error) {
	lastRoot, ok, err := vs.store.LastRootID(ctx)
	if err != nil || !ok {
		return 0, false, err
	}
	tree, err := vs.store.Tree(ctx, lastRoot)
	if err != nil {
		return 0, false, err
	}
	w := vs.walkerAt(tree, lastRoot)
	w.toLastDescendant()
	return w.id, true, nil
}

// MoveUp moves to the pre-order predecessor. From the live edge (or a
// top-level pseudo row, which behaves as being just past the end) it resolves
// to the deepest last descendant of the last root tree.
func (vs *ViewState) MoveUp(ctx context.Context) (err error) {
	defer vs.correct(&err)

	switch c := vs.cursor.(type) {
	case Bottom:
		return vs.moveUpFromEnd(ctx)
	case Msg:
		tree, err := vs.treeOf(ctx, c.ID)
		if err != nil {
			return err
		}
		w := vs.walkerAt(tree, c.ID)
		if _, err := w.toPrevMsg(ctx); err != nil {
			return err
		}
		vs.cursor = Msg{ID: w.id}
	case Editor:
		// Movement never leaves an open editor.
	case Pseudo:
		if c.Parent == nil {
			return vs.moveUpFromEnd(ctx)
		}
		tree, err := vs.store.Tree(ctx, *c.Parent)
		if err != nil {
			return err
		}
		w := vs.walkerAt(tree, *c.Parent)
		w.toLastDescendant()
		vs.cursor = Msg{ID: w.id}
	}
	return nil
}

func (vs *ViewState) moveUpFromEnd(ctx context.Context) error {
	id, ok, err := vs.lastDescendantOfLastRoot(ctx)
	if err != nil {
		return err
	}
	if ok {
		vs.cursor = Msg{ID: id}
	}
	return nil
}

// MoveDown moves to the pre-order successor, degrading to the live edge when
// no successor exists anywhere, including across root trees.
func (vs *ViewState) MoveDown(ctx context.Context) (err error) {
	defer vs.correct(&err)

	switch c := vs.cursor.(type) {
	case Msg:
		tree, err := vs.treeOf(ctx, c.ID)
		if err != nil {
			return err
		}
		w := vs.walkerAt(tree, c.ID)
		moved, err := w.toNextMsg(ctx)
		if err != nil {
			return err
		}
		if moved {
			vs.cursor = Msg{ID: w.id}
		} else {
			vs.cursor = Bottom{}
		}
	case Pseudo:
		if c.Parent == nil {
			vs.cursor = Bottom{}
			return nil
		}
		tree, err := vs.store.Tree(ctx, *c.Parent)
		if err != nil {
			return err
		}
		// The pseudo row renders as the last child of its parent, so
		// its successor is the successor of the parent's deepest last
		// descendant.
		w := vs.walkerAt(tree, *c.Parent)
		w.toLastDescendant()
		moved, err := w.toNextMsg(ctx)
		if err != nil {
			return err
		}
		if moved {
			vs.cursor = Msg{ID: w.id}
		} else {
			vs.cursor = Bottom{}
		}
	}
	return nil
}

// MoveUpSibling moves to the previous sibling, never changing depth. From the
// live edge it resolves to the last root. From a pseudo position it resolves
// to the last existing child of its parent.
func (vs *ViewState) MoveUpSibling(ctx context.Context) (err error) {
	defer vs.correct(&err)

	switch c := vs.cursor.(type) {
	case Bottom:
		return vs.siblingUpFromEnd(ctx)
	case Msg:
		tree, err := vs.treeOf(ctx, c.ID)
		if err != nil {
			return err
		}
		w := vs.walkerAt(tree, c.ID)
		if _, err := w.toPrevSibling(ctx); err != nil {
			return err
		}
		vs.cursor = Msg{ID: w.id}
	case Editor:
	case Pseudo:
		if c.Parent == nil {
			return vs.siblingUpFromEnd(ctx)
		}
		tree, err := vs.store.Tree(ctx, *c.Parent)
		if err != nil {
			return err
		}
		children := tree.Children(*c.Parent)
		if len(children) > 0 {
			vs.cursor = Msg{ID: children[len(children)-1]}
		}
	}
	return nil
}

func (vs *ViewState) siblingUpFromEnd(ctx context.Context) error {
	lastRoot, ok, err := vs.store.LastRootID(ctx)
	if err != nil {
		return err
	}
	if ok {
		vs.cursor = Msg{ID: lastRoot}
	}
	return nil
}

// MoveDownSibling moves to the next sibling. Only a top-level position (a
// root with no later root) degrades to the live edge.
func (vs *ViewState) MoveDownSibling(ctx context.Context) (err error) {
	defer vs.correct(&err)

	switch c := vs.cursor.(type) {
	case Msg:
		tree, err := vs.treeOf(ctx, c.ID)
		if err != nil {
			return err
		}
		w := vs.walkerAt(tree, c.ID)
		moved, err := w.toNextSibling(ctx)
		if err != nil {
			return err
		}
		if moved {
			vs.cursor = Msg{ID: w.id}
			return nil
		}
		if _, hasParent := w.tree.Parent(w.id); !hasParent {
			vs.cursor = Bottom{}
		}
	case Pseudo:
		if c.Parent == nil {
			vs.cursor = Bottom{}
		}
	}
	return nil
}

// MoveToParent moves to the immediate parent. Virtual cursors with a known
// parent resolve directly to it without a tree walk.
func (vs *ViewState) MoveToParent(ctx context.Context) (err error) {
	defer vs.correct(&err)

	switch c := vs.cursor.(type) {
	case Msg:
		tree, err := vs.treeOf(ctx, c.ID)
		if err != nil {
			return err
		}
		if p, ok := tree.Parent(c.ID); ok {
			vs.cursor = Msg{ID: p}
		}
	case Pseudo:
		if c.Parent != nil {
			vs.cursor = Msg{ID: *c.Parent}
		}
	case Editor:
		if c.Parent != nil {
			vs.cursor = Msg{ID: *c.Parent}
		}
	}
	return nil
}

// MoveToRoot moves all the way to the containing root.
func (vs *ViewState) MoveToRoot(ctx context.Context) (err error) {
	defer vs.correct(&err)

	switch c := vs.cursor.(type) {
	case Msg:
		root, err := vs.store.RootID(ctx, c.ID)
		if err != nil {
			return err
		}
		vs.cursor = Msg{ID: root}
	case Pseudo:
		if c.Parent != nil {
			root, err := vs.store.RootID(ctx, *c.Parent)
			if err != nil {
				return err
			}
			vs.cursor = Msg{ID: root}
		}
	}
	return nil
}

// MoveOlder steps to the chronologically previous message, ignoring tree
// structure. The live edge and any virtual cursor resolve to the globally
// newest message.
func (vs *ViewState) MoveOlder(ctx context.Context) (err error) {
	defer vs.correct(&err)

	switch c := vs.cursor.(type) {
	case Msg:
		older, ok, err := vs.store.OlderMsgID(ctx, c.ID)
		if err != nil {
			return err
		}
		if ok {
			vs.cursor = Msg{ID: older}
		}
	case Bottom, Pseudo:
		newest, ok, err := vs.store.NewestMsgID(ctx)
		if err != nil {
			return err
		}
		if ok {
			vs.cursor = Msg{ID: newest}
		}
	}
	return nil
}

// MoveNewer steps to the chronologically next message; past the newest it
// resolves to the live edge.
func (vs *ViewState) MoveNewer(ctx context.Context) (err error) {
	defer vs.correct(&err)

	switch c := vs.cursor.(type) {
	case Msg:
		newer, ok, err := vs.store.NewerMsgID(ctx, c.ID)
		if err != nil {
			return err
		}
		if ok {
			vs.cursor = Msg{ID: newer}
		} else {
			vs.cursor = Bottom{}
		}
	case Pseudo:
		vs.cursor = Bottom{}
	}
	return nil
}

// MoveOlderUnseen is MoveOlder restricted to the unseen subsequence.
func (vs *ViewState) MoveOlderUnseen(ctx context.Context) (err error) {
	defer vs.correct(&err)

	switch c := vs.cursor.(type) {
	case Msg:
		older, ok, err := vs.store.OlderUnseenMsgID(ctx, c.ID)
		if err != nil {
			return err
		}
		if ok {
			vs.cursor = Msg{ID: older}
		}
	case Bottom, Pseudo:
		newest, ok, err := vs.store.NewestUnseenMsgID(ctx)
		if err != nil {
			return err
		}
		if ok {
			vs.cursor = Msg{ID: newest}
		}
	}
	return nil
}

// MoveNewerUnseen is MoveNewer restricted to the unseen subsequence.
func (vs *ViewState) MoveNewerUnseen(ctx context.Context) (err error) {
	defer vs.correct(&err)

	switch c := vs.cursor.(type) {
	case Msg:
		newer, ok, err := vs.store.NewerUnseenMsgID(ctx, c.ID)
		if err != nil {
			return err
		}
		if ok {
			vs.cursor = Msg{ID: newer}
		} else {
			vs.cursor = Bottom{}
		}
	case Pseudo:
		vs.cursor = Bottom{}
	}
	return nil
}

// MoveToTop moves to the first root of the forest.
func (vs *ViewState) MoveToTop(ctx context.Context) error {
	first, ok, err := vs.store.FirstRootID(ctx)
	if err != nil {
		return err
	}
	if ok {
		vs.cursor = Msg{ID: first}
		vs.request(MakeCursorVisible)
	}
	return nil
}

// MoveToBottom moves to the live edge.
func (vs *ViewState) MoveToBottom() {
	vs.cursor = Bottom{}
	vs.request(MakeCursorVisible)
}

// ScrollUp scrolls the viewport without moving the cursor; the renderer then
// drags the cursor back into the visible area.
func (vs *ViewState) ScrollUp(amount int) {
	vs.scroll += amount
	vs.request(MoveCursorToVisibleArea)
}

// ScrollDown is ScrollUp in the other direction.
func (vs *ViewState) ScrollDown(amount int) {
	vs.scroll -= amount
	vs.request(MoveCursorToVisibleArea)
}

// CenterCursor asks the renderer to center the cursor row.
func (vs *ViewState) CenterCursor() {
	vs.request(CenterCursor)
}

func (vs *ViewState) request(c Correction) {
	// Overwrite, never queue: only the most recent hint matters.
	vs.correction = c
}

// correct sets the MakeCursorVisible hint on successful movement. A failed
// movement leaves both position and hint untouched.
func (vs *ViewState) correct(err *error) {
	if *err == nil {
		vs.request(MakeCursorVisible)
	}
}
