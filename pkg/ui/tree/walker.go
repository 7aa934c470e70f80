package tree

import (
	"context"

	"github.com/vanderheijden86/grove/pkg/model"
	"github.com/vanderheijden86/grove/pkg/store"
)

// walker moves an id through the forest one structural step at a time. The
// tree snapshot it holds is swapped out whenever a step crosses a root-tree
// boundary; it is never retained past the traversal operation that created
// the walker.
type walker struct {
	store  store.MsgStore
	folded map[model.MessageID]struct{}
	tree   *store.Tree
	id     model.MessageID
}

func (w *walker) isFolded(id model.MessageID) bool {
	_, ok := w.folded[id]
	return ok
}

func (w *walker) toParent() bool {
	p, ok := w.tree.Parent(w.id)
	if !ok {
		return false
	}
	w.id = p
	return true
}

func (w *walker) toFirstChild() bool {
	if w.isFolded(w.id) {
		return false
	}
	children := w.tree.Children(w.id)
	if len(children) == 0 {
		return false
	}
	w.id = children[0]
	return true
}

func (w *walker) toLastChild() bool {
	if w.isFolded(w.id) {
		return false
	}
	children := w.tree.Children(w.id)
	if len(children) == 0 {
		return false
	}
	w.id = children[len(children)-1]
	return true
}

// toLastDescendant walks to the deepest last unfolded descendant of the
// current position.
func (w *walker) toLastDescendant() {
	for w.toLastChild() {
	}
}

// toPrevSibling moves to the previous sibling, staying at the same level of
// indentation. At the root of a tree it crosses to the root of the previous
// root tree, fetching it lazily.
func (w *walker) toPrevSibling(ctx context.Context) (bool, error) {
	if prev, ok := w.tree.PrevSibling(w.id); ok {
		w.id = prev
		return true, nil
	}
	if _, ok := w.tree.Parent(w.id); ok {
		return false, nil
	}
	prevRoot, ok, err := w.store.PrevRootID(ctx, w.tree.Root())
	if err != nil || !ok {
		return false, err
	}
	tree, err := w.store.Tree(ctx, prevRoot)
	if err != nil {
		return false, err
	}
	w.tree = tree
	w.id = prevRoot
	return true, nil
}

// toNextSibling mirrors toPrevSibling in the other direction.
func (w *walker) toNextSibling(ctx context.Context) (bool, error) {
	if next, ok := w.tree.NextSibling(w.id); ok {
		w.id = next
		return true, nil
	}
	if _, ok := w.tree.Parent(w.id); ok {
		return false, nil
	}
	nextRoot, ok, err := w.store.NextRootID(ctx, w.tree.Root())
	if err != nil || !ok {
		return false, err
	}
	tree, err := w.store.Tree(ctx, nextRoot)
	if err != nil {
		return false, err
	}
	w.tree = tree
	w.id = nextRoot
	return true, nil
}

// toPrevMsg moves to the pre-order predecessor: the previous sibling's
// deepest last unfolded descendant, or the parent.
func (w *walker) toPrevMsg(ctx context.Context) (bool, error) {
	moved, err := w.toPrevSibling(ctx)
	if err != nil {
		return false, err
	}
	if moved {
		w.toLastDescendant()
		return true, nil
	}
	return w.toParent(), nil
}

// toNextMsg moves to the pre-order successor: the first unfolded child, the
// next sibling, or the next sibling of the nearest unfolded ancestor.
func (w *walker) toNextMsg(ctx context.Context) (bool, error) {
	if w.toFirstChild() {
		return true, nil
	}
	moved, err := w.toNextSibling(ctx)
	if err != nil || moved {
		return moved, err
	}

	// Climb on a copy so the original position survives if no
	// parent-sibling exists anywhere.
	tmp := *w
	for tmp.toParent() {
		moved, err := tmp.toNextSibling(ctx)
		if err != nil {
			return false, err
		}
		if moved {
			*w = tmp
			return true, nil
		}
	}
	return false, nil
}
