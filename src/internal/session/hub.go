// Package session tracks who is signed in on each browser session by
// observing the identity provider's change notifications.
package session

import (
	"sync"

	"github.com/reelscout/reelscout/src/internal/domain"
)

// Event reports the identity of a browser session after a change. A nil User
// means the session is signed out.
type Event struct {
	SessionID string
	User      *domain.User
}

// Source is anything that emits identity changes.
type Source interface {
	Subscribe(fn func(Event)) (unsubscribe func())
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Hub fans values out to subscribers in subscription order. The zero value
// is ready to use.
type Hub[T any] struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscriber[T]
}

// Subscribe registers fn and returns a function that removes it. The returned
// function is idempotent.
func (h *Hub[T]) Subscribe(fn func(T)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs = append(h.subs, subscriber[T]{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, s := range h.subs {
				if s.id == id {
					h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers v synchronously to every current subscriber.
func (h *Hub[T]) Publish(v T) {
	h.mu.RLock()
	subs := make([]subscriber[T], len(h.subs))
	copy(subs, h.subs)
	h.mu.RUnlock()

	for _, s := range subs {
		s.fn(v)
	}
}

func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
