package store

import "github.com/vanderheijden86/grove/pkg/model"

// Node is one message plus its structural parent link, as handed to NewTree.
type Node struct {
	Msg    model.Message
	Parent *model.MessageID
}

// Tree is an in-memory snapshot of exactly one root tree at a point in time.
// Children are kept in the order the nodes were supplied (arrival order).
type Tree struct {
	root     model.MessageID
	msgs     map[model.MessageID]model.Message
	parent   map[model.MessageID]model.MessageID
	children map[model.MessageID][]model.MessageID
}

// NewTree builds a tree snapshot rooted at root. Nodes whose parent is not
// part of the snapshot are ignored, except the root itself.
func NewTree(root model.MessageID, nodes []Node) *Tree {
	t := &Tree{
		root:     root,
		msgs:     make(map[model.MessageID]model.Message, len(nodes)),
		parent:   make(map[model.MessageID]model.MessageID),
		children: make(map[model.MessageID][]model.MessageID),
	}
	for _, n := range nodes {
		t.msgs[n.Msg.ID()] = n.Msg
	}
	for _, n := range nodes {
		id := n.Msg.ID()
		if n.Parent == nil || id == root {
			continue
		}
		if _, ok := t.msgs[*n.Parent]; !ok {
			continue
		}
		t.parent[id] = *n.Parent
		t.children[*n.Parent] = append(t.children[*n.Parent], id)
	}
	return t
}

// Root returns the id of the tree's root message.
func (t *Tree) Root() model.MessageID { return t.root }

// Len returns the number of messages in the snapshot.
func (t *Tree) Len() int { return len(t.msgs) }

// Msg returns the message with the given id, if it is part of this tree.
func (t *Tree) Msg(id model.MessageID) (model.Message, bool) {
	m, ok := t.msgs[id]
	return m, ok
}

// Parent returns the id of the message's parent, if it has one.
func (t *Tree) Parent(id model.MessageID) (model.MessageID, bool) {
	p, ok := t.parent[id]
	return p, ok
}

// Children returns the message's children in arrival order. The returned
// slice is owned by the tree and must not be modified.
func (t *Tree) Children(id model.MessageID) []model.MessageID {
	return t.children[id]
}

// PrevSibling returns the sibling directly before id under the same parent.
func (t *Tree) PrevSibling(id model.MessageID) (model.MessageID, bool) {
	p, ok := t.parent[id]
	if !ok {
		return 0, false
	}
	siblings := t.children[p]
	for i, s := range siblings {
		if s == id {
			if i == 0 {
				return 0, false
			}
			return siblings[i-1], true
		}
	}
	return 0, false
}

// NextSibling returns the sibling directly after id under the same parent.
func (t *Tree) NextSibling(id model.MessageID) (model.MessageID, bool) {
	p, ok := t.parent[id]
	if !ok {
		return 0, false
	}
	siblings := t.children[p]
	for i, s := range siblings {
		if s == id {
			if i == len(siblings)-1 {
				return 0, false
			}
			return siblings[i+1], true
		}
	}
	return 0, false
}

// Depth returns the number of parent links between id and the root.
func (t *Tree) Depth(id model.MessageID) int {
	depth := 0
	for {
		p, ok := t.parent[id]
		if !ok {
			return depth
		}
		id = p
		depth++
	}
}
