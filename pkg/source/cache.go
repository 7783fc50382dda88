package source

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

// Cache memoizes collections for the life of a session. It never evicts: the set of
// source ids is fixed by the dataset. Concurrent requests for the same uncached id share
// one fetch, so the inner source sees each id at most once unless a fetch fails.
type Cache struct {
	inner   Source
	timeout time.Duration

	mu      sync.RWMutex
	entries map[string][]*tree.Descriptor
	flight  singleflight.Group

	hits     int64
	misses   int64
	fetches  int64
	failures int64
}

// CacheStats is a point-in-time view of cache counters.
type CacheStats struct {
	Entries  int   `json:"entries"`
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Fetches  int64 `json:"fetches"`
	Failures int64 `json:"failures"`
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithFetchTimeout bounds each shared fetch. Zero means no limit.
func WithFetchTimeout(d time.Duration) CacheOption {
	return func(c *Cache) { c.timeout = d }
}

// NewCache wraps inner.
func NewCache(inner Source, opts ...CacheOption) *Cache {
	c := &Cache{
		inner:   inner,
		entries: make(map[string][]*tree.Descriptor),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Inner returns the wrapped source.
func (c *Cache) Inner() Source {
	return c.inner
}

// Get returns the cached collection for id.
func (c *Cache) Get(id string) ([]*tree.Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	descs, ok := c.entries[id]
	return descs, ok
}

// Put stores a collection for id.
func (c *Cache) Put(id string, descs []*tree.Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = descs
}

// Fetch returns the cached collection or loads it through the inner source. Failures are
// not cached.
//
// The shared fetch does not inherit the cancellation of whichever caller started it, so
// one caller giving up does not fail the others waiting on the same id. A cancelled
// caller returns its own context error at once.
func (c *Cache) Fetch(ctx context.Context, id string) ([]*tree.Descriptor, error) {
	if descs, ok := c.Get(id); ok {
		atomic.AddInt64(&c.hits, 1)
		return descs, nil
	}
	atomic.AddInt64(&c.misses, 1)

	ch := c.flight.DoChan(id, func() (interface{}, error) {
		// A flight for id may have completed between Get and DoChan.
		if descs, ok := c.Get(id); ok {
			return descs, nil
		}
		fetchCtx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, c.timeout)
			defer cancel()
		}
		atomic.AddInt64(&c.fetches, 1)
		descs, err := c.inner.Fetch(fetchCtx, id)
		if err != nil {
			atomic.AddInt64(&c.failures, 1)
			return nil, err
		}
		c.Put(id, descs)
		return descs, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]*tree.Descriptor), nil
	case <-ctx.Done():
		return nil, &FetchError{SourceID: id, Err: ctx.Err()}
	}
}

// Stats returns the current counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	entries := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{
		Entries:  entries,
		Hits:     atomic.LoadInt64(&c.hits),
		Misses:   atomic.LoadInt64(&c.misses),
		Fetches:  atomic.LoadInt64(&c.fetches),
		Failures: atomic.LoadInt64(&c.failures),
	}
}

// Close closes the inner source.
func (c *Cache) Close() error {
	return Close(c.inner)
}
