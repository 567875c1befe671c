package session

import (
	"sync"

	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/logging"
	"github.com/reelscout/reelscout/src/internal/metrics"
)

// Change is delivered to Observer subscribers.
type Change struct {
	Event
	Previous *domain.User
}

// Observer holds the current user of every browser session, replaced on each
// event from the identity provider.
type Observer struct {
	mu      sync.RWMutex
	current map[string]*domain.User
	closed  bool
	hub     Hub[Change]
	stop    func()
}

// NewObserver subscribes to src until Close is called.
func NewObserver(src Source) *Observer {
	o := &Observer{current: make(map[string]*domain.User)}
	o.stop = src.Subscribe(o.apply)
	return o
}

func (o *Observer) apply(ev Event) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	prev := o.current[ev.SessionID]
	if ev.User == nil {
		delete(o.current, ev.SessionID)
	} else {
		u := *ev.User
		o.current[ev.SessionID] = &u
	}
	n := len(o.current)
	o.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	logging.Debug().
		Str("session", ev.SessionID).
		Bool("signed_in", ev.User != nil).
		Bool("was_signed_in", prev != nil).
		Msg("[Session] Identity changed")

	o.hub.Publish(Change{Event: ev, Previous: prev})
}

// Current returns the signed-in user of sessionID, or nil.
func (o *Observer) Current(sessionID string) *domain.User {
	if sessionID == "" {
		return nil
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if u, ok := o.current[sessionID]; ok {
		cp := *u
		return &cp
	}
	return nil
}

// Subscribe registers fn for every identity change the observer applies.
func (o *Observer) Subscribe(fn func(Change)) func() {
	return o.hub.Subscribe(fn)
}

// Close detaches from the provider and forgets every session.
func (o *Observer) Close() {
	o.mu.Lock()
	o.closed = true
	o.current = make(map[string]*domain.User)
	o.mu.Unlock()

	if o.stop != nil {
		o.stop()
	}
	metrics.ActiveSessions.Set(0)
}
