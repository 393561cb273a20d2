package store

import (
	"context"
	"time"

	"github.com/FocuswithJustin/Bookbinder/core/content"
	"github.com/FocuswithJustin/Bookbinder/core/graph"
	"github.com/FocuswithJustin/Bookbinder/internal/cache"
	"github.com/FocuswithJustin/Bookbinder/internal/logging"
)

// CachedStore serves repeated id and coordinate lookups from a TTL cache and
// forwards misses to the wrapped store.
type CachedStore struct {
	next    graph.ContentStore
	byID    *cache.TTLCache[string, *content.Node]
	byCoord *cache.TTLCache[content.Coordinate, *content.Node]
}

// NewCachedStore wraps next with a cache whose entries live for ttl.
func NewCachedStore(next graph.ContentStore, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:    next,
		byID:    cache.New[string, *content.Node](ttl),
		byCoord: cache.New[content.Coordinate, *content.Node](ttl),
	}
}

// Query implements graph.ContentStore.
func (s *CachedStore) Query(ctx context.Context, sel graph.Selector) ([]*content.Node, error) {
	if sel.IsEmpty() {
		return nil, nil
	}
	idHits, idMisses := s.byID.GetMany(sel.IDs)
	coordHits, coordMisses := s.byCoord.GetMany(sel.Coordinates)

	var out []*content.Node
	seen := make(map[string]bool)
	add := func(n *content.Node) {
		if n != nil && !seen[n.ID] {
			seen[n.ID] = true
			out = append(out, n)
		}
	}
	for _, id := range sel.IDs {
		add(idHits[id])
	}
	for _, c := range sel.Coordinates {
		add(coordHits[c])
	}

	if len(idMisses) == 0 && len(coordMisses) == 0 {
		return out, nil
	}

	fetched, err := s.next.Query(ctx, graph.Selector{Coordinates: coordMisses, IDs: idMisses})
	if err != nil {
		if len(out) > 0 {
			logging.StoreError(ctx, "query", err, "cached", len(out))
			return out, nil
		}
		return nil, err
	}
	s.fill(fetched)
	for _, n := range fetched {
		add(n)
	}
	return out, nil
}

// fill caches nodes by id and under their coordinate, keeping the newest
// node per coordinate.
func (s *CachedStore) fill(nodes []*content.Node) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		s.byID.Set(n.ID, n)
		if n.DTag() == "" {
			continue
		}
		c := n.Coordinate()
		if prev, ok := s.byCoord.Get(c); !ok || n.CreatedAt >= prev.CreatedAt {
			s.byCoord.Set(c, n)
		}
	}
}

// Stats returns combined cache hits and misses.
func (s *CachedStore) Stats() (hits, misses uint64) {
	h1, m1 := s.byID.Stats()
	h2, m2 := s.byCoord.Stats()
	return h1 + h2, m1 + m2
}

// Invalidate drops every cached node.
func (s *CachedStore) Invalidate() {
	s.byID.Invalidate()
	s.byCoord.Invalidate()
}
