package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/Bookbinder/core/content"
	bberrors "github.com/FocuswithJustin/Bookbinder/core/errors"
	"github.com/FocuswithJustin/Bookbinder/core/graph"
)

func testNodes() []*content.Node {
	return []*content.Node{
		{
			ID: "root", OwnerKey: "pk", Kind: content.KindIndex, CreatedAt: 10,
			Tags: content.Tags{{Key: "d", Value: "book"}, {Key: "title", Value: "Book"}, {Key: "a", Value: "30041:pk:ch-1"}, {Key: "e", Value: "loose"}},
		},
		{ID: "ch1-old", OwnerKey: "pk", Kind: content.KindLeaf, CreatedAt: 5, Body: "old", Tags: content.Tags{{Key: "d", Value: "ch-1"}}},
		{ID: "ch1-new", OwnerKey: "pk", Kind: content.KindLeaf, CreatedAt: 20, Body: "new", Tags: content.Tags{{Key: "d", Value: "ch-1"}, {Key: "s", Value: "1"}, {Key: "s", Value: "2"}}},
		{ID: "loose", OwnerKey: "other", Kind: content.KindLeaf, CreatedAt: 7, Body: "loose leaf"},
	}
}

// stores returns one fresh instance of every Store implementation.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	mem, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	file, err := Open(ctx, filepath.Join(t.TempDir(), "content.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		mem.Close()
		file.Close()
	})

	return map[string]Store{
		"memory-map":    NewMemoryStore(),
		"sqlite-memory": mem,
		"sqlite-file":   file,
	}
}

func TestStoreQuery(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, testNodes()...))

			n, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 4, n)

			coord := content.Coordinate{Kind: content.KindLeaf, OwnerKey: "pk", DTag: "ch-1"}
			got, err := s.Query(ctx, graph.Selector{Coordinates: []content.Coordinate{coord}})
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "ch1-new", got[0].ID)
			assert.Equal(t, []string{"1", "2"}, got[0].Tags.All("s"))

			got, err = s.Query(ctx, graph.Selector{IDs: []string{"loose", "ch1-old", "nope"}})
			require.NoError(t, err)
			ids := []string{}
			for _, n := range got {
				ids = append(ids, n.ID)
			}
			assert.ElementsMatch(t, []string{"loose", "ch1-old"}, ids)

			got, err = s.Query(ctx, graph.Selector{})
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestStoreGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			want := testNodes()[0]
			require.NoError(t, s.Put(ctx, want))

			got, err := s.Get(ctx, "root")
			require.NoError(t, err)
			assert.Equal(t, want.ID, got.ID)
			assert.Equal(t, want.Kind, got.Kind)
			assert.Equal(t, want.OwnerKey, got.OwnerKey)
			assert.Equal(t, want.CreatedAt, got.CreatedAt)
			assert.Equal(t, want.Tags, got.Tags, "tag order must survive storage")

			_, err = s.Get(ctx, "missing")
			assert.True(t, bberrors.Is(err, bberrors.ErrNotFound))
		})
	}
}

func TestStorePutReplaces(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			n := &content.Node{ID: "x", OwnerKey: "pk", Kind: content.KindLeaf, Tags: content.Tags{{Key: "d", Value: "x"}, {Key: "title", Value: "One"}}}
			require.NoError(t, s.Put(ctx, n))

			updated := &content.Node{ID: "x", OwnerKey: "pk", Kind: content.KindLeaf, Body: "b", Tags: content.Tags{{Key: "d", Value: "x"}}}
			require.NoError(t, s.Put(ctx, updated))

			got, err := s.Get(ctx, "x")
			require.NoError(t, err)
			assert.Equal(t, "b", got.Body)
			assert.False(t, got.Tags.Has("title"))

			count, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, count)

			err = s.Put(ctx, &content.Node{})
			assert.True(t, bberrors.Is(err, bberrors.ErrInvalidInput))
		})
	}
}

func TestSQLiteStoreLargeSelector(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close()

	var nodes []*content.Node
	var ids []string
	for i := 0; i < 1200; i++ {
		id := fmt.Sprintf("n%04d", i)
		nodes = append(nodes, &content.Node{ID: id, OwnerKey: "pk", Kind: content.KindLeaf})
		ids = append(ids, id)
	}
	require.NoError(t, s.Put(ctx, nodes...))

	got, err := s.Query(ctx, graph.Selector{IDs: ids})
	require.NoError(t, err)
	assert.Len(t, got, 1200)
}

func TestStoreEmptySelector(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, testNodes()...))

			got, err := s.Query(ctx, graph.Selector{})
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}

	backing := &countingStore{next: NewMemoryStore(testNodes()...)}
	got, err := NewCachedStore(backing, time.Minute).Query(ctx, graph.Selector{IDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, backing.queries, "empty selector should not reach the backing store")
}

func TestOpenReadOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "content.db")

	rw, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, rw.Put(ctx, testNodes()...))
	require.NoError(t, rw.Close())

	ro, err := OpenReadOnly(ctx, path)
	require.NoError(t, err)
	defer ro.Close()

	got, err := ro.Get(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, "Book", got.Tags.Value("title"))

	err = ro.Put(ctx, &content.Node{ID: "new", OwnerKey: "pk", Kind: content.KindLeaf})
	assert.Error(t, err, "read-only store should reject writes")

	_, err = OpenReadOnly(ctx, filepath.Join(t.TempDir(), "missing.db"))
	var ioErr *bberrors.IOError
	assert.True(t, bberrors.As(err, &ioErr), "error = %v", err)
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(testNodes()...)

	n, err := Lookup(ctx, s, "30041:pk:ch-1")
	require.NoError(t, err)
	assert.Equal(t, "ch1-new", n.ID)

	n, err = Lookup(ctx, s, "root")
	require.NoError(t, err)
	assert.Equal(t, "root", n.ID)

	_, err = Lookup(ctx, s, "30040:pk:nothing")
	assert.True(t, bberrors.Is(err, bberrors.ErrNotFound))
}

func TestMemoryStoreAllKeepsOrder(t *testing.T) {
	s := NewMemoryStore(testNodes()...)
	require.NoError(t, s.Put(context.Background(), &content.Node{ID: "root", Kind: content.KindIndex}))

	var ids []string
	for _, n := range s.All() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"root", "ch1-old", "ch1-new", "loose"}, ids)
}

func TestMemoryStoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryStore(testNodes()...).Query(ctx, graph.Selector{IDs: []string{"root"}})
	assert.ErrorIs(t, err, context.Canceled)
}

// countingStore records queries made against it.
type countingStore struct {
	mu      sync.Mutex
	next    graph.ContentStore
	queries []graph.Selector
	fail    error
}

func (c *countingStore) Query(ctx context.Context, sel graph.Selector) ([]*content.Node, error) {
	c.mu.Lock()
	c.queries = append(c.queries, sel)
	fail := c.fail
	c.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	return c.next.Query(ctx, sel)
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{next: NewMemoryStore(testNodes()...)}
	s := NewCachedStore(backing, time.Minute)

	coord := content.Coordinate{Kind: content.KindLeaf, OwnerKey: "pk", DTag: "ch-1"}
	sel := graph.Selector{Coordinates: []content.Coordinate{coord}, IDs: []string{"loose"}}

	first, err := s.Query(ctx, sel)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Len(t, backing.queries, 1)

	second, err := s.Query(ctx, sel)
	require.NoError(t, err)
	assert.ElementsMatch(t, first, second)
	assert.Len(t, backing.queries, 1, "second query should be served from cache")

	// A fetched coordinate also warms the id cache.
	got, err := s.Query(ctx, graph.Selector{IDs: []string{"ch1-new"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, backing.queries, 1)

	// Partial hit: only the miss is forwarded.
	_, err = s.Query(ctx, graph.Selector{IDs: []string{"loose", "root"}})
	require.NoError(t, err)
	require.Len(t, backing.queries, 2)
	assert.Equal(t, []string{"root"}, backing.queries[1].IDs)

	s.Invalidate()
	_, err = s.Query(ctx, sel)
	require.NoError(t, err)
	assert.Len(t, backing.queries, 3)
}

func TestCachedStoreErrors(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{next: NewMemoryStore(testNodes()...)}
	s := NewCachedStore(backing, time.Minute)

	_, err := s.Query(ctx, graph.Selector{IDs: []string{"loose"}})
	require.NoError(t, err)

	backing.fail = errors.New("offline")

	_, err = s.Query(ctx, graph.Selector{IDs: []string{"root"}})
	assert.Error(t, err)

	got, err := s.Query(ctx, graph.Selector{IDs: []string{"loose", "root"}})
	require.NoError(t, err, "cached hits are returned when the backing store fails")
	require.Len(t, got, 1)
	assert.Equal(t, "loose", got[0].ID)
}

func TestResolveThroughSQLiteStore(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Put(ctx, testNodes()...))

	root, err := Lookup(ctx, s, "30040:pk:book")
	require.NoError(t, err)

	g, err := graph.NewResolver(NewCachedStore(s, time.Minute)).Resolve(ctx, root)
	require.NoError(t, err)

	leaves := g.Leaves()
	require.Len(t, leaves, 2)
	assert.Equal(t, "ch1-new", leaves[0].ID)
	assert.Equal(t, "loose", leaves[1].ID)
}
