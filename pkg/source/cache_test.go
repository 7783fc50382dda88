package source

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

func TestCacheFetchesOnce(t *testing.T) {
	var calls int32
	inner := Func(func(ctx context.Context, id string) ([]*tree.Descriptor, error) {
		atomic.AddInt32(&calls, 1)
		return []*tree.Descriptor{{Title: id, Type: tree.TypePage}}, nil
	})
	c := NewCache(inner)
	ctx := context.Background()

	first, err := c.Fetch(ctx, "a.json")
	require.NoError(t, err)
	second, err := c.Fetch(ctx, "a.json")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, first, second)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Fetches)
}

func TestCacheDoesNotCacheFailures(t *testing.T) {
	var calls int32
	fail := true
	inner := Func(func(ctx context.Context, id string) ([]*tree.Descriptor, error) {
		atomic.AddInt32(&calls, 1)
		if fail {
			return nil, &FetchError{SourceID: id, Status: 500, Err: errors.New("boom")}
		}
		return []*tree.Descriptor{}, nil
	})
	c := NewCache(inner)
	ctx := context.Background()

	_, err := c.Fetch(ctx, "a.json")
	require.Error(t, err)
	_, ok := c.Get("a.json")
	assert.False(t, ok)

	fail = false
	_, err = c.Fetch(ctx, "a.json")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, int64(1), c.Stats().Failures)
}

func TestCacheDeduplicatesInFlight(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	started := make(chan struct{})
	inner := Func(func(ctx context.Context, id string) ([]*tree.Descriptor, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		return []*tree.Descriptor{{Title: "x", Type: tree.TypePage}}, nil
	})
	c := NewCache(inner)

	const n = 8
	var wg sync.WaitGroup
	results := make([][]*tree.Descriptor, n)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = c.Fetch(context.Background(), "shared.json")
	}()
	<-started
	for i := 1; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Fetch(context.Background(), "shared.json")
		}(i)
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Len(t, r, 1)
	}
}

func TestCachePut(t *testing.T) {
	c := NewCache(Func(func(ctx context.Context, id string) ([]*tree.Descriptor, error) {
		t.Fatal("inner source must not be called")
		return nil, nil
	}))
	c.Put("a.json", []*tree.Descriptor{})

	descs, err := c.Fetch(context.Background(), "a.json")
	require.NoError(t, err)
	assert.Empty(t, descs)
}

func TestCacheCancelledCallerDoesNotFailOthers(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls int32
	inner := Func(func(ctx context.Context, id string) ([]*tree.Descriptor, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		select {
		case <-release:
			return []*tree.Descriptor{{Title: "x", Type: tree.TypePage}}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	c := NewCache(inner)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Fetch(firstCtx, "shared.json")
		firstErr <- err
	}()
	<-started

	second := make(chan []*tree.Descriptor, 1)
	go func() {
		descs, err := c.Fetch(context.Background(), "shared.json")
		assert.NoError(t, err)
		second <- descs
	}()

	cancelFirst()
	err := <-firstErr
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	assert.Len(t, <-second, 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	_, ok := c.Get("shared.json")
	assert.True(t, ok)
}

func TestCacheFetchTimeout(t *testing.T) {
	inner := Func(func(ctx context.Context, id string) ([]*tree.Descriptor, error) {
		<-ctx.Done()
		return nil, &FetchError{SourceID: id, Err: ctx.Err()}
	})
	c := NewCache(inner, WithFetchTimeout(20*time.Millisecond))

	_, err := c.Fetch(context.Background(), "slow.json")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(1), c.Stats().Failures)
}
