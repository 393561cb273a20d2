// Package graph resolves a rooted content graph into an ordered, deduplicated
// tree of index branches and leaves.
//
// Index nodes point at their children with `a` tags holding coordinates
// ("kind:ownerKey:d") and `e` tags holding raw node ids. The Resolver follows
// those edges through a ContentStore, descending depth-first into index nodes
// reached by coordinate. Cycles, self references, malformed coordinates and
// nodes the store cannot produce are dropped and logged; resolution never
// fails because of them.
package graph

import (
	"context"

	"github.com/FocuswithJustin/Bookbinder/core/content"
)

// Selector names the nodes a ContentStore query should return. A selector
// carries either coordinates or ids.
type Selector struct {
	Coordinates []content.Coordinate
	IDs         []string
}

// IsEmpty returns true if the selector names nothing.
func (s Selector) IsEmpty() bool {
	return len(s.Coordinates) == 0 && len(s.IDs) == 0
}

// ContentStore resolves coordinates and ids to content nodes.
//
// Queries are best-effort: a store may return a strict subset of what was
// asked for and must not treat "not found" as an error. Implementations must
// be safe for concurrent use.
type ContentStore interface {
	Query(ctx context.Context, sel Selector) ([]*content.Node, error)
}

// Child is one entry of a resolved graph: either a nested branch or a leaf.
type Child struct {
	Branch *ResolvedGraph
	Leaf   *content.Node
}

// Node returns the content node behind the child.
func (c Child) Node() *content.Node {
	if c.Branch != nil {
		return c.Branch.Root
	}
	return c.Leaf
}

// IsBranch returns true if the child is a resolved index branch.
func (c Child) IsBranch() bool {
	return c.Branch != nil
}

// ResolvedGraph is the result of resolving one root node. Children are kept
// in resolved order. The root's id never appears among its own descendants.
type ResolvedGraph struct {
	Root     *content.Node
	Children []Child
}

// Branches returns the nested index branches in resolved order.
func (g *ResolvedGraph) Branches() []*ResolvedGraph {
	var out []*ResolvedGraph
	for _, c := range g.Children {
		if c.Branch != nil {
			out = append(out, c.Branch)
		}
	}
	return out
}

// Leaves returns the leaf nodes in resolved order.
func (g *ResolvedGraph) Leaves() []*content.Node {
	var out []*content.Node
	for _, c := range g.Children {
		if c.Leaf != nil {
			out = append(out, c.Leaf)
		}
	}
	return out
}

// Walk visits every descendant depth-first in resolved order. depth is 1 for
// direct children. Returning false from fn stops the walk.
func (g *ResolvedGraph) Walk(fn func(depth int, c Child) bool) {
	g.walk(1, fn)
}

func (g *ResolvedGraph) walk(depth int, fn func(int, Child) bool) bool {
	for _, c := range g.Children {
		if !fn(depth, c) {
			return false
		}
		if c.Branch != nil && !c.Branch.walk(depth+1, fn) {
			return false
		}
	}
	return true
}

// Count returns the number of descendant nodes, branches and leaves alike.
func (g *ResolvedGraph) Count() int {
	n := 0
	g.Walk(func(int, Child) bool {
		n++
		return true
	})
	return n
}

// Contains returns true if a descendant has the given id.
func (g *ResolvedGraph) Contains(id string) bool {
	found := false
	g.Walk(func(_ int, c Child) bool {
		if c.Node().ID == id {
			found = true
			return false
		}
		return true
	})
	return found
}
