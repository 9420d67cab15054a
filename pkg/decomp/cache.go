package decomp

import (
	"sync/atomic"

	"github.com/hyperast/hyperast-go/pkg/alg/lru"
	"github.com/hyperast/hyperast-go/pkg/nodestore"
)

// DefaultCacheEntries is the view cache size used when a caller doesn't
// specify one.
const DefaultCacheEntries = 256

// Cache memoizes decompressed [Tree] views by root id, bounded by a
// caller-supplied entry budget (spec.md §4.4: "the store itself may offer
// a view cache bounded by a caller-supplied budget"). It is built on the
// teacher's generic [lru.Cache] and bounded by the number of cached trees;
// neither their node counts nor their byte sizes are accounted.
type Cache struct {
	store *nodestore.Store
	inner *lru.Cache[nodestore.ID, *Tree]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCache creates a view cache holding at most maxEntries decompressed
// trees, evicting least-recently-used entries beyond that.
func NewCache(store *nodestore.Store, maxEntries int) *Cache {
	return &Cache{
		store: store,
		inner: lru.New[nodestore.ID, *Tree](lru.WithMaxEntries[nodestore.ID, *Tree](maxEntries)),
	}
}

// Get returns the decompressed view for root, building and caching it on a
// miss. Building is pure (spec.md §4.4): a cache miss never observes a
// different result than a cache hit would have.
func (c *Cache) Get(root nodestore.ID) (*Tree, error) {
	if tree, ok := c.inner.Get(root); ok {
		c.hits.Add(1)

		return tree, nil
	}

	c.misses.Add(1)

	tree, err := Build(c.store, root)
	if err != nil {
		return nil, err
	}

	c.inner.Put(root, tree)

	return tree, nil
}

// Len returns the number of cached views.
func (c *Cache) Len() int {
	return c.inner.Len()
}

// Stats returns the cumulative hit/miss counts since construction, for a
// front-end's periodic [observability] reporting (SPEC_FULL.md §B).
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// CacheHits implements [observability.CacheStatsProvider].
func (c *Cache) CacheHits() int64 { return int64(c.hits.Load()) } //nolint:gosec // monotonic counter, wrap is not a concern at realistic scales.

// CacheMisses implements [observability.CacheStatsProvider].
func (c *Cache) CacheMisses() int64 { return int64(c.misses.Load()) } //nolint:gosec // see CacheHits.
