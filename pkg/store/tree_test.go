package store

import (
	"testing"
	"time"

	"github.com/vanderheijden86/grove/pkg/model"
)

func node(id model.MessageID, parent *model.MessageID) Node {
	return Node{
		Msg: model.Msg{
			MsgID:  id,
			Parent: parent,
			At:     time.Unix(int64(id), 0),
			Author: "a",
			Body:   "b",
		},
		Parent: parent,
	}
}

// sample builds 1[2[4], 3] with children supplied in arrival order.
func sample() *Tree {
	return NewTree(1, []Node{
		node(1, nil),
		node(2, model.ParentID(1)),
		node(3, model.ParentID(1)),
		node(4, model.ParentID(2)),
	})
}

func TestTree_Structure(t *testing.T) {
	tr := sample()

	if tr.Root() != 1 {
		t.Errorf("expected root 1, got %v", tr.Root())
	}
	if tr.Len() != 4 {
		t.Errorf("expected 4 messages, got %d", tr.Len())
	}

	children := tr.Children(1)
	if len(children) != 2 || children[0] != 2 || children[1] != 3 {
		t.Errorf("expected children [2 3], got %v", children)
	}
	if len(tr.Children(4)) != 0 {
		t.Errorf("expected leaf 4 to have no children")
	}

	p, ok := tr.Parent(4)
	if !ok || p != 2 {
		t.Errorf("expected parent of 4 to be 2, got %v ok=%v", p, ok)
	}
	if _, ok := tr.Parent(1); ok {
		t.Error("expected root to have no parent")
	}
}

func TestTree_Siblings(t *testing.T) {
	tr := sample()

	if next, ok := tr.NextSibling(2); !ok || next != 3 {
		t.Errorf("expected next sibling of 2 to be 3, got %v ok=%v", next, ok)
	}
	if _, ok := tr.NextSibling(3); ok {
		t.Error("expected 3 to have no next sibling")
	}
	if prev, ok := tr.PrevSibling(3); !ok || prev != 2 {
		t.Errorf("expected prev sibling of 3 to be 2, got %v ok=%v", prev, ok)
	}
	if _, ok := tr.PrevSibling(2); ok {
		t.Error("expected 2 to have no prev sibling")
	}
	// A root has no siblings within its own tree.
	if _, ok := tr.NextSibling(1); ok {
		t.Error("expected root to have no siblings")
	}
}

func TestTree_Depth(t *testing.T) {
	tr := sample()
	for id, want := range map[model.MessageID]int{1: 0, 2: 1, 3: 1, 4: 2} {
		if got := tr.Depth(id); got != want {
			t.Errorf("depth of %v: got %d, want %d", id, got, want)
		}
	}
}

func TestNewTree_IgnoresDanglingParents(t *testing.T) {
	// Node 5 references a parent outside the snapshot; it stays in the
	// message set but is detached.
	tr := NewTree(1, []Node{
		node(1, nil),
		node(5, model.ParentID(99)),
	})

	if _, ok := tr.Msg(5); !ok {
		t.Error("expected dangling node to remain addressable")
	}
	if _, ok := tr.Parent(5); ok {
		t.Error("expected dangling node to have no parent link")
	}
}

func TestTree_MsgLookup(t *testing.T) {
	tr := sample()
	if _, ok := tr.Msg(2); !ok {
		t.Error("expected message 2 to be present")
	}
	if _, ok := tr.Msg(42); ok {
		t.Error("expected message 42 to be absent")
	}
}
