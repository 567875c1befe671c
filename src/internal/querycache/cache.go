// Package querycache is the keyed result store between the services and
// their remote collaborators: entries have a staleness window, concurrent
// fetches of one key are collapsed, and writers invalidate the keys they
// affect.
//
// Every invalidation bumps the key's generation. A fetch records the
// generation it started under and only stores its result if the generation
// is unchanged when it settles, so a response that raced a write never
// overwrites the post-write state.
package querycache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/reelscout/reelscout/src/internal/logging"
	"github.com/reelscout/reelscout/src/internal/metrics"
)

// Forever is a staleness window under which entries never go stale on their own.
const Forever time.Duration = -1

const DefaultGCTime = 10 * time.Minute

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusError
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusReady:
		return "ready"
	default:
		return "idle"
	}
}

// Result is a point-in-time view of one key. Data may be set together with
// StatusError when an earlier fetch succeeded.
type Result struct {
	Status    Status
	Data      any
	Err       error
	UpdatedAt time.Time
	Stale     bool
}

type Fetcher func(ctx context.Context) (any, error)

type entry struct {
	data      any
	hasData   bool
	updatedAt time.Time
	err       error
	errAt     time.Time
	staleTime time.Duration
	gen       uint64
	invalid   bool
	fetching  int
	lastUsed  time.Time
}

func (e *entry) fresh(now time.Time, staleTime time.Duration) bool {
	if !e.hasData || e.invalid {
		return false
	}
	if staleTime == Forever {
		return true
	}
	return now.Sub(e.updatedAt) < staleTime
}

type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	seq     uint64 // generation source shared by all keys
	group   singleflight.Group
	now     func() time.Time
	gcTime  time.Duration
}

type Option func(*Cache)

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithGCTime sets how long an unused entry is retained before Sweep drops it.
func WithGCTime(d time.Duration) Option {
	return func(c *Cache) { c.gcTime = d }
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[Key]*entry),
		now:     time.Now,
		gcTime:  DefaultGCTime,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the cached value for key while it is fresh, otherwise runs fn
// (shared with any concurrent caller of the same key and generation) and
// caches the result. On error the previously cached value is kept and the
// error is returned.
func (c *Cache) Fetch(ctx context.Context, key Key, staleTime time.Duration, fn Fetcher) (any, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	now := c.now()
	e.lastUsed = now
	e.staleTime = staleTime
	if e.fresh(now, staleTime) {
		data := e.data
		c.mu.Unlock()
		metrics.CacheHits.WithLabelValues(key.Op).Inc()
		return data, nil
	}
	gen := e.gen
	c.mu.Unlock()
	metrics.CacheMisses.WithLabelValues(key.Op).Inc()

	// The flight outlives callers that give up, so it owns the fetching count.
	ch := c.group.DoChan(flightKey(key, gen), func() (any, error) {
		c.startFetching(key)
		defer c.doneFetching(key)
		v, err := fn(context.WithoutCancel(ctx))
		c.settle(ctx, key, gen, v, err)
		return v, err
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Query is the typed form of Cache.Fetch.
func Query[T any](ctx context.Context, c *Cache, key Key, staleTime time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Fetch(ctx, key, staleTime, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: %s holds %T", key, v)
	}
	return t, nil
}

func (c *Cache) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{gen: c.nextGenLocked()}
		c.entries[key] = e
		metrics.CacheEntries.Set(float64(len(c.entries)))
	}
	return e
}

func (c *Cache) startFetching(key Key) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.fetching++
	}
	c.mu.Unlock()
}

func (c *Cache) doneFetching(key Key) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.fetching > 0 {
		e.fetching--
	}
	c.mu.Unlock()
}

func (c *Cache) settle(ctx context.Context, key Key, gen uint64, v any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.gen != gen {
		metrics.CacheDiscardedResults.WithLabelValues(key.Op).Inc()
		logging.Ctx(ctx).Debug().Str("key", key.String()).Msg("[QueryCache] Dropped result of superseded fetch")
		return
	}
	now := c.now()
	if err != nil {
		e.err = err
		e.errAt = now
		return
	}
	e.data = v
	e.hasData = true
	e.updatedAt = now
	e.err = nil
	e.invalid = false
}

// Peek reports the current state of key without fetching.
func (c *Cache) Peek(key Key) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Result{Status: StatusIdle}
	}
	now := c.now()
	res := Result{
		Data:      e.data,
		UpdatedAt: e.updatedAt,
		Stale:     e.hasData && !e.fresh(now, e.staleTime),
	}
	switch {
	case e.err != nil && (!e.hasData || !e.errAt.Before(e.updatedAt)):
		res.Status = StatusError
		res.Err = e.err
	case e.hasData:
		res.Status = StatusReady
	case e.fetching > 0:
		res.Status = StatusLoading
	default:
		res.Status = StatusIdle
	}
	return res
}

// Set replaces the value of key directly and fences any in-flight fetch. The
// value stays fresh for staleTime.
func (c *Cache) Set(key Key, v any, staleTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key)
	now := c.now()
	e.staleTime = staleTime
	e.gen = c.nextGenLocked()
	e.data = v
	e.hasData = true
	e.updatedAt = now
	e.lastUsed = now
	e.err = nil
	e.invalid = false
}

// Invalidate marks key stale so the next Fetch goes to the source. Cached
// data stays visible to Peek until then.
func (c *Cache) Invalidate(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.invalidateLocked(key, e)
	return true
}

// InvalidateMatching invalidates every key for which match returns true.
func (c *Cache) InvalidateMatching(match func(Key) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		if match(k) {
			c.invalidateLocked(k, e)
			n++
		}
	}
	return n
}

func (c *Cache) nextGenLocked() uint64 {
	c.seq++
	return c.seq
}

func (c *Cache) invalidateLocked(key Key, e *entry) {
	e.gen = c.nextGenLocked()
	e.invalid = true
	metrics.CacheInvalidations.WithLabelValues(key.Op).Inc()
}

// RemoveMatching drops matching entries entirely; in-flight fetches for them
// will not be stored.
func (c *Cache) RemoveMatching(match func(Key) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k := range c.entries {
		if match(k) {
			delete(c.entries, k)
			n++
		}
	}
	metrics.CacheEntries.Set(float64(len(c.entries)))
	return n
}

// Sweep drops entries that are idle and unused for longer than the GC time.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for k, e := range c.entries {
		if e.fetching == 0 && now.Sub(e.lastUsed) > c.gcTime {
			delete(c.entries, k)
			n++
		}
	}
	metrics.CacheEntries.Set(float64(len(c.entries)))
	return n
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Run sweeps periodically until ctx is cancelled. It satisfies suture.Service.
func (c *Cache) Run(ctx context.Context) error {
	interval := c.gcTime / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				logging.Debug().Int("evicted", n).Msg("[QueryCache] Swept idle entries")
			}
		}
	}
}

// Serve implements suture.Service.
func (c *Cache) Serve(ctx context.Context) error {
	return c.Run(ctx)
}

func (c *Cache) String() string {
	return "query-cache-janitor"
}

func flightKey(k Key, gen uint64) string {
	return strconv.Quote(k.Op) + strconv.Quote(k.Scope) + strconv.Itoa(k.Item) + strconv.Quote(k.Term) + "#" + strconv.FormatUint(gen, 10)
}
