// Package store holds the content stores the resolver reads from: a SQLite
// database, an in-memory map for bundle-only runs, and a TTL cache that can
// sit in front of either.
package store

import (
	"context"

	"github.com/FocuswithJustin/Bookbinder/core/content"
	"github.com/FocuswithJustin/Bookbinder/core/errors"
	"github.com/FocuswithJustin/Bookbinder/core/graph"
)

// Store is a writable content store.
type Store interface {
	graph.ContentStore

	// Put inserts or replaces nodes by id.
	Put(ctx context.Context, nodes ...*content.Node) error

	// Get returns one node by id or a NotFoundError.
	Get(ctx context.Context, id string) (*content.Node, error)

	// Count returns the number of stored nodes.
	Count(ctx context.Context) (int, error)

	Close() error
}

// Lookup resolves a root argument, either a "kind:owner:d" coordinate or a
// node id, against s.
func Lookup(ctx context.Context, s graph.ContentStore, root string) (*content.Node, error) {
	sel := graph.Selector{IDs: []string{root}}
	coord, isCoord := content.ParseCoordinate(root)
	if isCoord {
		sel = graph.Selector{Coordinates: []content.Coordinate{coord}}
	}

	nodes, err := s.Query(ctx, sel)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to look up %s", root)
	}

	var found *content.Node
	for _, n := range nodes {
		switch {
		case isCoord && n.Coordinate() == coord:
		case !isCoord && n.ID == root:
		default:
			continue
		}
		if found == nil || n.CreatedAt > found.CreatedAt {
			found = n
		}
	}
	if found == nil {
		return nil, errors.NewNotFound("node", root)
	}
	return found, nil
}

// newest keeps the newest node per coordinate plus every node requested by
// id. Order follows nodes.
func newest(nodes []*content.Node, sel graph.Selector) []*content.Node {
	wantID := make(map[string]bool, len(sel.IDs))
	for _, id := range sel.IDs {
		wantID[id] = true
	}
	wantCoord := make(map[content.Coordinate]bool, len(sel.Coordinates))
	for _, c := range sel.Coordinates {
		wantCoord[c] = true
	}

	best := make(map[content.Coordinate]*content.Node)
	for _, n := range nodes {
		c := n.Coordinate()
		if !wantCoord[c] {
			continue
		}
		if prev := best[c]; prev == nil || n.CreatedAt > prev.CreatedAt {
			best[c] = n
		}
	}

	seen := make(map[string]bool, len(nodes))
	var out []*content.Node
	for _, n := range nodes {
		if seen[n.ID] {
			continue
		}
		if wantID[n.ID] || best[n.Coordinate()] == n {
			seen[n.ID] = true
			out = append(out, n)
		}
	}
	return out
}
