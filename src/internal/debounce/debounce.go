// Package debounce delays work per key so that only the last of a burst of
// calls proceeds.
package debounce

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrSuperseded = errors.New("debounce: superseded by a newer call")

type token struct {
	cancel chan struct{}
	once   sync.Once
}

func (t *token) stop() {
	t.once.Do(func() { close(t.cancel) })
}

type Debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	pending map[string]*token
}

func New(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		pending: make(map[string]*token),
	}
}

// Wait blocks for the debounce delay. It returns nil if this call is still
// the latest one for key when the timer fires, ErrSuperseded if a newer Wait
// for the same key started meanwhile, or ctx.Err().
func (d *Debouncer) Wait(ctx context.Context, key string) error {
	tok := &token{cancel: make(chan struct{})}

	d.mu.Lock()
	if prev, ok := d.pending[key]; ok {
		prev.stop()
	}
	d.pending[key] = tok
	d.mu.Unlock()

	defer d.release(key, tok)

	if d.delay <= 0 {
		return nil
	}

	timer := time.NewTimer(d.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		d.mu.Lock()
		latest := d.pending[key] == tok
		d.mu.Unlock()
		if !latest {
			return ErrSuperseded
		}
		return nil
	case <-tok.cancel:
		return ErrSuperseded
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel supersedes the pending call for key, if any.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if tok, ok := d.pending[key]; ok {
		tok.stop()
		delete(d.pending, key)
	}
}

// Stop supersedes every pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, tok := range d.pending {
		tok.stop()
		delete(d.pending, key)
	}
}

func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *Debouncer) release(key string, tok *token) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending[key] == tok {
		delete(d.pending, key)
	}
}
