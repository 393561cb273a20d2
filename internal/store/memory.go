package store

import (
	"context"
	"sort"
	"sync"

	"github.com/FocuswithJustin/Bookbinder/core/content"
	"github.com/FocuswithJustin/Bookbinder/core/errors"
	"github.com/FocuswithJustin/Bookbinder/core/graph"
)

// MemoryStore is a map-backed Store. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]*content.Node
	order []string
}

// NewMemoryStore returns a store holding nodes.
func NewMemoryStore(nodes ...*content.Node) *MemoryStore {
	s := &MemoryStore{nodes: make(map[string]*content.Node)}
	s.put(nodes)
	return s
}

// Put inserts or replaces nodes by id.
func (s *MemoryStore) Put(ctx context.Context, nodes ...*content.Node) error {
	for _, n := range nodes {
		if n == nil || n.ID == "" {
			return errors.NewValidation("id", "node without id")
		}
	}
	s.put(nodes)
	return nil
}

func (s *MemoryStore) put(nodes []*content.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range nodes {
		if n == nil || n.ID == "" {
			continue
		}
		if _, ok := s.nodes[n.ID]; !ok {
			s.order = append(s.order, n.ID)
		}
		s.nodes[n.ID] = n
	}
}

// Query returns the nodes named by sel, newest per coordinate.
func (s *MemoryStore) Query(ctx context.Context, sel graph.Selector) ([]*content.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sel.IsEmpty() {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	wantID := make(map[string]bool, len(sel.IDs))
	for _, id := range sel.IDs {
		wantID[id] = true
	}
	wantCoord := make(map[content.Coordinate]bool, len(sel.Coordinates))
	for _, c := range sel.Coordinates {
		wantCoord[c] = true
	}

	var candidates []*content.Node
	for _, id := range s.order {
		n := s.nodes[id]
		if wantID[n.ID] || wantCoord[n.Coordinate()] {
			candidates = append(candidates, n)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt > candidates[j].CreatedAt
	})
	return newest(candidates, sel), nil
}

// Get returns one node by id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*content.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.nodes[id]; ok {
		return n, nil
	}
	return nil, errors.NewNotFound("node", id)
}

// Count returns the number of stored nodes.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes), nil
}

// All returns every node in insertion order.
func (s *MemoryStore) All() []*content.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*content.Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id])
	}
	return out
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
