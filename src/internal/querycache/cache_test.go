package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func counting(v any, calls *int32) Fetcher {
	return func(context.Context) (any, error) {
		atomic.AddInt32(calls, 1)
		return v, nil
	}
}

func fetching(c *Cache, key Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.fetching
	}
	return 0
}

func TestFetch_ServesFreshEntryFromCache(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))
	ctx := context.Background()
	var calls int32

	v, err := c.Fetch(ctx, PopularKey(), 5*time.Minute, counting("popular", &calls))
	require.NoError(t, err)
	assert.Equal(t, "popular", v)

	clock.Advance(4 * time.Minute)
	v, err = c.Fetch(ctx, PopularKey(), 5*time.Minute, counting("other", &calls))
	require.NoError(t, err)
	assert.Equal(t, "popular", v)
	assert.EqualValues(t, 1, calls)
}

func TestFetch_RefetchesAfterStaleTime(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))
	ctx := context.Background()
	var calls int32

	_, err := c.Fetch(ctx, SearchKey("dune"), 5*time.Minute, counting("v1", &calls))
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	v, err := c.Fetch(ctx, SearchKey("dune"), 5*time.Minute, counting("v2", &calls))
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
	assert.EqualValues(t, 2, calls)
}

func TestFetch_ForeverNeverGoesStale(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))
	var calls int32

	_, err := c.Fetch(context.Background(), ProfileKey("u1"), Forever, counting("p", &calls))
	require.NoError(t, err)
	clock.Advance(1000 * time.Hour)
	_, err = c.Fetch(context.Background(), ProfileKey("u1"), Forever, counting("p", &calls))
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls)
}

func TestInvalidate_NextFetchGoesToSource(t *testing.T) {
	c := New()
	ctx := context.Background()
	var calls int32
	key := FavoriteKey("u1", 42)

	_, err := c.Fetch(ctx, key, Forever, counting(false, &calls))
	require.NoError(t, err)

	assert.True(t, c.Invalidate(key))
	assert.False(t, c.Invalidate(FavoriteKey("u1", 7)), "unknown keys are not created")

	v, err := c.Fetch(ctx, key, Forever, counting(true, &calls))
	require.NoError(t, err)
	assert.Equal(t, true, v)
	assert.EqualValues(t, 2, calls)
}

func TestInvalidate_PeekKeepsOldDataUntilRefetch(t *testing.T) {
	c := New()
	key := FavoritesKey("u1")
	_, err := c.Fetch(context.Background(), key, Forever, func(context.Context) (any, error) { return "old", nil })
	require.NoError(t, err)

	c.Invalidate(key)
	res := c.Peek(key)
	assert.Equal(t, StatusReady, res.Status)
	assert.Equal(t, "old", res.Data)
	assert.True(t, res.Stale)
}

func TestFetch_ErrorKeepsPriorData(t *testing.T) {
	c := New()
	ctx := context.Background()
	key := SearchKey("alien")
	boom := errors.New("catalog down")

	_, err := c.Fetch(ctx, key, 0, func(context.Context) (any, error) { return "cached", nil })
	require.NoError(t, err)

	_, err = c.Fetch(ctx, key, 0, func(context.Context) (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	res := c.Peek(key)
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, boom)
	assert.Equal(t, "cached", res.Data)

	_, err = c.Fetch(ctx, key, 0, func(context.Context) (any, error) { return "recovered", nil })
	require.NoError(t, err)
	res = c.Peek(key)
	assert.Equal(t, StatusReady, res.Status)
	assert.NoError(t, res.Err)
}

func TestFetch_CollapsesConcurrentCallers(t *testing.T) {
	c := New()
	key := SearchKey("matrix")
	release := make(chan struct{})
	var calls int32

	fn := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "neo", nil
	}

	const callers = 5
	var wg sync.WaitGroup
	results := make([]any, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Fetch(context.Background(), key, time.Minute, fn)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	require.Eventually(t, func() bool { return fetching(c, key) == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls)
	for _, v := range results {
		assert.Equal(t, "neo", v)
	}
}

func TestFetch_InvalidationDuringFlightDiscardsResult(t *testing.T) {
	c := New()
	key := FavoriteKey("u1", 42)
	release := make(chan struct{})
	done := make(chan any)

	go func() {
		v, _ := c.Fetch(context.Background(), key, Forever, func(context.Context) (any, error) {
			<-release
			return false, nil
		})
		done <- v
	}()

	require.Eventually(t, func() bool { return fetching(c, key) == 1 }, time.Second, time.Millisecond)
	c.Invalidate(key) // a write landed while the read was in flight
	close(release)
	assert.Equal(t, false, <-done)

	res := c.Peek(key)
	assert.Nil(t, res.Data, "pre-write result must not be cached")

	var calls int32
	v, err := c.Fetch(context.Background(), key, Forever, counting(true, &calls))
	require.NoError(t, err)
	assert.Equal(t, true, v)
	assert.EqualValues(t, 1, calls)
}

func TestSet_FencesInFlightFetch(t *testing.T) {
	c := New()
	key := ProfileKey("u1")
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, _ = c.Fetch(context.Background(), key, Forever, func(context.Context) (any, error) {
			<-release
			return "from-store", nil
		})
	}()

	require.Eventually(t, func() bool { return fetching(c, key) == 1 }, time.Second, time.Millisecond)
	c.Set(key, "set-directly", Forever)
	close(release)
	<-done

	assert.Equal(t, "set-directly", c.Peek(key).Data)
}

func TestSet_ValueIsFreshForStaleTime(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))
	key := SearchKey("dune")
	var calls int32

	c.Set(key, "dune", time.Minute)
	res := c.Peek(key)
	assert.Equal(t, StatusReady, res.Status)
	assert.False(t, res.Stale)

	v, err := c.Fetch(context.Background(), key, time.Minute, counting("refetched", &calls))
	require.NoError(t, err)
	assert.Equal(t, "dune", v)
	assert.EqualValues(t, 0, calls)

	clock.Advance(2 * time.Minute)
	assert.True(t, c.Peek(key).Stale)
}

func TestPeek_Statuses(t *testing.T) {
	c := New()
	key := SearchKey("heat")
	assert.Equal(t, StatusIdle, c.Peek(key).Status)

	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Fetch(context.Background(), key, time.Minute, func(context.Context) (any, error) {
			<-release
			return "ok", nil
		})
	}()
	require.Eventually(t, func() bool { return c.Peek(key).Status == StatusLoading }, time.Second, time.Millisecond)

	close(release)
	<-done
	assert.Equal(t, StatusReady, c.Peek(key).Status)

	errKey := SearchKey("broken")
	_, err := c.Fetch(context.Background(), errKey, time.Minute, func(context.Context) (any, error) {
		return nil, errors.New("503")
	})
	require.Error(t, err)
	res := c.Peek(errKey)
	assert.Equal(t, StatusError, res.Status)
	assert.Nil(t, res.Data)
}

func TestFetch_CallerCancellationDoesNotAbortSharedFetch(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now), WithGCTime(time.Minute))
	key := PopularKey()
	release := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error)
	go func() {
		_, err := c.Fetch(ctx, key, time.Minute, func(fctx context.Context) (any, error) {
			<-release
			return "popular", fctx.Err()
		})
		errCh <- err
	}()

	require.Eventually(t, func() bool { return fetching(c, key) == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	// The fetch is still running without any caller.
	assert.Equal(t, StatusLoading, c.Peek(key).Status)
	clock.Advance(time.Hour)
	assert.Equal(t, 0, c.Sweep())

	close(release)
	require.Eventually(t, func() bool { return c.Peek(key).Status == StatusReady }, time.Second, time.Millisecond)
	assert.Equal(t, "popular", c.Peek(key).Data)
}

func TestInvalidateMatching_ScopedToUser(t *testing.T) {
	c := New()
	ctx := context.Background()
	for _, k := range []Key{FavoriteKey("u1", 1), FavoritesKey("u1"), RatingsKey("u1"), FavoritesKey("u2"), PopularKey()} {
		_, err := c.Fetch(ctx, k, Forever, func(context.Context) (any, error) { return 1, nil })
		require.NoError(t, err)
	}

	assert.Equal(t, 3, c.InvalidateMatching(ScopedTo("u1")))
	assert.True(t, c.Peek(FavoritesKey("u1")).Stale)
	assert.False(t, c.Peek(FavoritesKey("u2")).Stale)
	assert.False(t, c.Peek(PopularKey()).Stale)

	assert.Equal(t, 0, c.InvalidateMatching(ScopedTo("")), "unscoped keys never match a user scope")
}

func TestRemoveMatching(t *testing.T) {
	c := New()
	ctx := context.Background()
	for _, k := range []Key{SearchKey("a"), SearchKey("b"), PopularKey()} {
		_, err := c.Fetch(ctx, k, Forever, func(context.Context) (any, error) { return 1, nil })
		require.NoError(t, err)
	}

	assert.Equal(t, 2, c.RemoveMatching(OpIs(OpSearch)))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, StatusIdle, c.Peek(SearchKey("a")).Status)
}

func TestSweep_DropsIdleEntries(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now), WithGCTime(10*time.Minute))
	ctx := context.Background()

	_, _ = c.Fetch(ctx, SearchKey("old"), time.Minute, func(context.Context) (any, error) { return 1, nil })
	clock.Advance(8 * time.Minute)
	_, _ = c.Fetch(ctx, SearchKey("recent"), time.Minute, func(context.Context) (any, error) { return 1, nil })
	clock.Advance(3 * time.Minute)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, StatusIdle, c.Peek(SearchKey("old")).Status)
	assert.Equal(t, StatusReady, c.Peek(SearchKey("recent")).Status)
}

func TestQuery_Typed(t *testing.T) {
	c := New()
	ctx := context.Background()

	ids, err := Query(ctx, c, RatingsKey("u1"), Forever, func(context.Context) ([]int, error) {
		return []int{1, 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids)

	_, err = Query(ctx, c, RatingsKey("u1"), Forever, func(context.Context) (string, error) {
		return "unused", nil
	})
	assert.ErrorContains(t, err, "holds []int")
}

func TestKey_StructuredComparison(t *testing.T) {
	a := Key{Op: "search", Term: "a b"}
	b := Key{Op: "search a", Term: "b"}
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, flightKey(a, 1), flightKey(b, 1))
	assert.Equal(t, `rating scope="u1" item=7`, RatingKey("u1", 7).String())
	assert.Equal(t, `search term="dune"`, SearchKey("dune").String())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "error", StatusError.String())
	assert.Equal(t, "ready", StatusReady.String())
}
