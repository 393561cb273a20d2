package graph

import (
	"context"
	"log/slog"
	"sync"

	"github.com/FocuswithJustin/Bookbinder/core/content"
	"github.com/FocuswithJustin/Bookbinder/core/errors"
)

// Edge tag keys.
const (
	TagCoordinate = "a"
	TagID         = "e"
)

// DefaultConcurrency bounds the number of coordinate batches queried at once
// for a single node.
const DefaultConcurrency = 4

// Resolver resolves content graphs against a ContentStore.
type Resolver struct {
	store        ContentStore
	logger       *slog.Logger
	concurrency  int
	retryMissing bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for dropped edges.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithConcurrency bounds concurrent batch queries per node. Values below 1
// make queries sequential.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n < 1 {
			n = 1
		}
		r.concurrency = n
	}
}

// WithRetryMissing controls whether ids or coordinates missing from a batch
// result are queried again one at a time. Enabled by default.
func WithRetryMissing(retry bool) Option {
	return func(r *Resolver) {
		r.retryMissing = retry
	}
}

// NewResolver creates a Resolver reading from store.
func NewResolver(store ContentStore, opts ...Option) *Resolver {
	r := &Resolver{
		store:        store,
		logger:       slog.Default(),
		concurrency:  DefaultConcurrency,
		retryMissing: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve resolves root and everything reachable from it. Dropped edges are
// logged, not returned; the only error is context cancellation.
func (r *Resolver) Resolve(ctx context.Context, root *content.Node) (*ResolvedGraph, error) {
	return r.resolve(ctx, root, newVisitedSet())
}

// ResolveWithVisited resolves root treating the given ids and coordinate
// strings as already on the resolution path.
func (r *Resolver) ResolveWithVisited(ctx context.Context, root *content.Node, visited []string) (*ResolvedGraph, error) {
	return r.resolve(ctx, root, newVisitedSet(visited...))
}

// edge is one outgoing reference declared by a node.
type edge struct {
	raw     string
	coord   content.Coordinate
	id      string
	byCoord bool
}

func (e edge) key() string {
	if e.byCoord {
		return TagCoordinate + ":" + e.coord.String()
	}
	return TagID + ":" + e.id
}

func (r *Resolver) resolve(ctx context.Context, root *content.Node, visited visitedSet) (*ResolvedGraph, error) {
	g := &ResolvedGraph{Root: root}
	if root == nil {
		return g, nil
	}
	if visited.has(root.ID) {
		r.dropped(errors.CircularReference, root.ID, root.ID)
		return g, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	next := visited.with(root.ID, coordinateKey(root))
	edges := r.collectEdges(root, next)
	if len(edges) == 0 {
		return g, nil
	}

	found, err := r.fetch(ctx, root, edges)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(edges))
	for _, e := range edges {
		n := found[e.key()]
		if n == nil {
			continue
		}
		if n.ID == root.ID {
			r.dropped(errors.SelfReference, root.ID, e.raw)
			continue
		}
		if next.has(n.ID) {
			r.dropped(errors.CircularReference, root.ID, e.raw)
			continue
		}
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true

		if e.byCoord && n.IsIndex() {
			branch, err := r.resolve(ctx, n, next)
			if err != nil {
				return nil, err
			}
			g.Children = append(g.Children, Child{Branch: branch})
			continue
		}
		g.Children = append(g.Children, Child{Leaf: n})
	}

	return g, nil
}

// coordinateKey returns the visited-set key for a node's own coordinate, or
// "" if the node has no d tag.
func coordinateKey(n *content.Node) string {
	if n.DTag() == "" || n.OwnerKey == "" {
		return ""
	}
	return n.Coordinate().String()
}

// collectEdges returns root's edges in resolution order: coordinate edges in
// tag order, then id edges in tag order. Self references, already visited
// targets, malformed coordinates and repeats are left out.
func (r *Resolver) collectEdges(root *content.Node, visited visitedSet) []edge {
	self := coordinateKey(root)
	seen := make(map[string]bool)

	var coords, ids []edge
	for _, tag := range root.Tags {
		switch tag.Key {
		case TagCoordinate:
			c, ok := content.ParseCoordinate(tag.Value)
			if !ok {
				r.logEdge(slog.LevelDebug, errors.NewResolution(errors.MalformedCoordinate, root.ID, tag.Value))
				continue
			}
			e := edge{raw: tag.Value, coord: c, byCoord: true}
			key := c.String()
			switch {
			case key == self:
				r.dropped(errors.SelfReference, root.ID, tag.Value)
			case visited.has(key):
				r.dropped(errors.CircularReference, root.ID, tag.Value)
			case !seen[e.key()]:
				seen[e.key()] = true
				coords = append(coords, e)
			}
		case TagID:
			if tag.Value == "" {
				continue
			}
			e := edge{raw: tag.Value, id: tag.Value}
			switch {
			case tag.Value == root.ID:
				r.dropped(errors.SelfReference, root.ID, tag.Value)
			case visited.has(tag.Value):
				r.dropped(errors.CircularReference, root.ID, tag.Value)
			case !seen[e.key()]:
				seen[e.key()] = true
				ids = append(ids, e)
			}
		}
	}

	return append(coords, ids...)
}

// batch is one store query and the edges it serves.
type batch struct {
	sel   Selector
	edges []edge
	nodes []*content.Node
}

// fetch queries the store for every edge and returns the nodes keyed by
// edge key. Coordinate edges are batched per kind, id edges in one batch;
// batches run concurrently. Edges missing from their batch are retried one
// at a time.
func (r *Resolver) fetch(ctx context.Context, root *content.Node, edges []edge) (map[string]*content.Node, error) {
	batches := groupBatches(edges)

	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup
	for _, b := range batches {
		wg.Add(1)
		go func(b *batch) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			b.nodes = r.query(ctx, root, b.sel)
		}(b)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found := make(map[string]*content.Node, len(edges))
	for _, b := range batches {
		match(found, b.edges, b.nodes)
	}

	for _, e := range edges {
		if found[e.key()] != nil {
			continue
		}
		if r.retryMissing {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			match(found, []edge{e}, r.query(ctx, root, selectorFor(e)))
			if found[e.key()] != nil {
				continue
			}
		}
		r.logEdge(slog.LevelWarn, errors.NewResolution(errors.MissingNode, root.ID, e.raw))
	}

	return found, nil
}

// groupBatches groups coordinate edges by kind, in first-seen order,
// followed by a single batch for id edges.
func groupBatches(edges []edge) []*batch {
	var (
		out    []*batch
		byKind = make(map[content.Kind]*batch)
		ids    *batch
	)
	for _, e := range edges {
		if e.byCoord {
			b := byKind[e.coord.Kind]
			if b == nil {
				b = &batch{}
				byKind[e.coord.Kind] = b
				out = append(out, b)
			}
			b.sel.Coordinates = append(b.sel.Coordinates, e.coord)
			b.edges = append(b.edges, e)
			continue
		}
		if ids == nil {
			ids = &batch{}
		}
		ids.sel.IDs = append(ids.sel.IDs, e.id)
		ids.edges = append(ids.edges, e)
	}
	if ids != nil {
		out = append(out, ids)
	}
	return out
}

func selectorFor(e edge) Selector {
	if e.byCoord {
		return Selector{Coordinates: []content.Coordinate{e.coord}}
	}
	return Selector{IDs: []string{e.id}}
}

// match assigns returned nodes to the edges that asked for them. When several
// nodes share a coordinate the newest one wins. Nodes nobody asked for are
// ignored.
func match(found map[string]*content.Node, edges []edge, nodes []*content.Node) {
	if len(nodes) == 0 {
		return
	}
	byID := make(map[string]*content.Node, len(nodes))
	byCoord := make(map[string]*content.Node, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		byID[n.ID] = n
		key := n.Coordinate().String()
		if prev, ok := byCoord[key]; !ok || n.CreatedAt > prev.CreatedAt {
			byCoord[key] = n
		}
	}

	for _, e := range edges {
		var n *content.Node
		if e.byCoord {
			n = byCoord[e.coord.String()]
		} else {
			n = byID[e.id]
		}
		if n != nil {
			found[e.key()] = n
		}
	}
}

// query runs one store query. Store failures count as an empty result.
func (r *Resolver) query(ctx context.Context, root *content.Node, sel Selector) []*content.Node {
	nodes, err := r.store.Query(ctx, sel)
	if err != nil {
		r.logger.Warn("store_query_failed",
			"node", root.ID,
			"coordinates", len(sel.Coordinates),
			"ids", len(sel.IDs),
			"error", err,
		)
		return nil
	}
	return nodes
}

func (r *Resolver) dropped(kind errors.ResolutionKind, nodeID, ref string) {
	r.logEdge(slog.LevelInfo, errors.NewResolution(kind, nodeID, ref))
}

func (r *Resolver) logEdge(level slog.Level, err *errors.ResolutionError) {
	r.logger.Log(context.Background(), level, "edge_skipped",
		"kind", string(err.Kind),
		"node", err.NodeID,
		"ref", err.Ref,
	)
}
