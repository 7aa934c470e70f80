package tree

import (
	"context"
	"sort"
	"time"

	"github.com/vanderheijden86/grove/pkg/model"
	"github.com/vanderheijden86/grove/pkg/store"
)

// memStore is an in-memory store.MsgStore for traversal tests.
type memStore struct {
	msgs map[model.MessageID]model.Msg
}

var _ store.MsgStore = (*memStore)(nil)

func newMemStore(msgs ...model.Msg) *memStore {
	s := &memStore{msgs: make(map[model.MessageID]model.Msg, len(msgs))}
	for _, m := range msgs {
		s.msgs[m.MsgID] = m
	}
	return s
}

// mkMsg builds a test message whose timestamp follows its id, so tree order
// and chronological order agree unless a test says otherwise.
func mkMsg(id model.MessageID, parent *model.MessageID, seen bool) model.Msg {
	return model.Msg{
		MsgID:  id,
		Parent: parent,
		At:     time.Unix(int64(id), 0),
		Author: "nick" + id.String(),
		Body:   "body " + id.String(),
		Seen:   seen,
	}
}

func (s *memStore) rootOf(id model.MessageID) (model.MessageID, error) {
	m, ok := s.msgs[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	for m.Parent != nil {
		m = s.msgs[*m.Parent]
	}
	return m.MsgID, nil
}

func (s *memStore) roots() []model.MessageID {
	var roots []model.MessageID
	for id, m := range s.msgs {
		if m.Parent == nil {
			roots = append(roots, id)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	return roots
}

func (s *memStore) Tree(_ context.Context, id model.MessageID) (*store.Tree, error) {
	root, err := s.rootOf(id)
	if err != nil {
		return nil, err
	}
	var nodes []store.Node
	for nid, m := range s.msgs {
		if r, _ := s.rootOf(nid); r == root {
			nodes = append(nodes, store.Node{Msg: m, Parent: m.Parent})
		}
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Msg.ID() < nodes[j].Msg.ID()
	})
	return store.NewTree(root, nodes), nil
}

func (s *memStore) RootID(_ context.Context, id model.MessageID) (model.MessageID, error) {
	return s.rootOf(id)
}

func (s *memStore) FirstRootID(context.Context) (model.MessageID, bool, error) {
	roots := s.roots()
	if len(roots) == 0 {
		return 0, false, nil
	}
	return roots[0], true, nil
}

func (s *memStore) LastRootID(context.Context) (model.MessageID, bool, error) {
	roots := s.roots()
	if len(roots) == 0 {
		return 0, false, nil
	}
	return roots[len(roots)-1], true, nil
}

func (s *memStore) PrevRootID(_ context.Context, root model.MessageID) (model.MessageID, bool, error) {
	roots := s.roots()
	for i, r := range roots {
		if r == root {
			if i == 0 {
				return 0, false, nil
			}
			return roots[i-1], true, nil
		}
	}
	return 0, false, store.ErrNotFound
}

func (s *memStore) NextRootID(_ context.Context, root model.MessageID) (model.MessageID, bool, error) {
	roots := s.roots()
	for i, r := range roots {
		if r == root {
			if i == len(roots)-1 {
				return 0, false, nil
			}
			return roots[i+1], true, nil
		}
	}
	return 0, false, store.ErrNotFound
}

// chrono returns all ids ordered by (time, id), optionally only unseen ones.
func (s *memStore) chrono(unseenOnly bool) []model.MessageID {
	var ids []model.MessageID
	for id, m := range s.msgs {
		if unseenOnly && m.Seen {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := s.msgs[ids[i]], s.msgs[ids[j]]
		if !a.At.Equal(b.At) {
			return a.At.Before(b.At)
		}
		return a.MsgID < b.MsgID
	})
	return ids
}

func (s *memStore) step(id model.MessageID, newer, unseenOnly bool) (model.MessageID, bool, error) {
	cur, ok := s.msgs[id]
	if !ok {
		return 0, false, store.ErrNotFound
	}
	var best model.Msg
	var found bool
	for _, other := range s.msgs {
		if other.MsgID == id || (unseenOnly && other.Seen) {
			continue
		}
		after := other.At.After(cur.At) ||
			(other.At.Equal(cur.At) && other.MsgID > cur.MsgID)
		if newer != after {
			continue
		}
		closer := !found ||
			(newer && (other.At.Before(best.At) || (other.At.Equal(best.At) && other.MsgID < best.MsgID))) ||
			(!newer && (other.At.After(best.At) || (other.At.Equal(best.At) && other.MsgID > best.MsgID)))
		if closer {
			best, found = other, true
		}
	}
	return best.MsgID, found, nil
}

func (s *memStore) OlderMsgID(_ context.Context, id model.MessageID) (model.MessageID, bool, error) {
	return s.step(id, false, false)
}

func (s *memStore) NewerMsgID(_ context.Context, id model.MessageID) (model.MessageID, bool, error) {
	return s.step(id, true, false)
}

func (s *memStore) NewestMsgID(context.Context) (model.MessageID, bool, error) {
	ids := s.chrono(false)
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[len(ids)-1], true, nil
}

func (s *memStore) OlderUnseenMsgID(_ context.Context, id model.MessageID) (model.MessageID, bool, error) {
	return s.step(id, false, true)
}

func (s *memStore) NewerUnseenMsgID(_ context.Context, id model.MessageID) (model.MessageID, bool, error) {
	return s.step(id, true, true)
}

func (s *memStore) NewestUnseenMsgID(context.Context) (model.MessageID, bool, error) {
	ids := s.chrono(true)
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[len(ids)-1], true, nil
}
