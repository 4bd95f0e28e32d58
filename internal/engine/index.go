package engine

import (
	"context"
	"sync"

	"github.com/golang/groupcache/lru"
	"golang.org/x/sync/singleflight"

	"github.com/roach88/tablegraph/internal/join"
	"github.com/roach88/tablegraph/internal/mapping"
	"github.com/roach88/tablegraph/internal/source"
)

// indexCache holds the parent row indexes of one run, keyed by joined
// source ID.
//
// lru.Cache is not safe for concurrent use; mu guards it. Concurrent
// requests for an index that is not cached share one build.
type indexCache struct {
	mu    sync.Mutex
	cache *lru.Cache
	group singleflight.Group
}

func newIndexCache(size int) *indexCache {
	return &indexCache{cache: lru.New(size)}
}

func (c *indexCache) get(key string) (*join.Index, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*join.Index), true
}

func (c *indexCache) add(key string, ix *join.Index) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(key, ix)
}

// Len returns the number of cached indexes.
func (c *indexCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

// load returns the cached index for key or builds it. Failed builds are
// not cached.
func (c *indexCache) load(key string, build func() (*join.Index, error)) (*join.Index, error) {
	if ix, ok := c.get(key); ok {
		return ix, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if ix, ok := c.get(key); ok {
			return ix, nil
		}
		ix, err := build()
		if err != nil {
			return nil, err
		}
		c.add(key, ix)
		return ix, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*join.Index), nil
}

// parentIndex returns the index of the parent rows of ref, keyed by the
// parent columns of its conditions.
func (r *Resolver) parentIndex(ctx context.Context, cache *indexCache, ref mapping.Reference) (*join.Index, error) {
	return cache.load(ref.Joined.ID(), func() (*join.Index, error) {
		parentSrc := ref.Parent.Source()
		it, err := r.source.Rows(ctx, parentSrc)
		if err != nil {
			return nil, source.Unavailable(parentSrc, err)
		}
		rows, err := source.Collect(ctx, it)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, source.Unavailable(parentSrc, err)
		}
		ix, err := join.NewIndex(rows, ref.Conditions)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("parent index built",
			"parent", ref.Parent.ID(),
			"source", parentSrc.String(),
			"rows", ix.Len(),
		)
		return ix, nil
	})
}
