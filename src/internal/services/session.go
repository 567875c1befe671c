package services

import (
	"github.com/reelscout/reelscout/src/internal/logging"
	"github.com/reelscout/reelscout/src/internal/querycache"
	"github.com/reelscout/reelscout/src/internal/session"
)

// ForgetOnSignOut drops a user's cached entries when one of their sessions
// signs out or switches identity.
func ForgetOnSignOut(obs *session.Observer, cache *querycache.Cache) (unsubscribe func()) {
	return obs.Subscribe(func(c session.Change) {
		if c.Previous == nil {
			return
		}
		if c.User != nil && c.User.ID == c.Previous.ID {
			return
		}
		n := cache.RemoveMatching(querycache.ScopedTo(c.Previous.ID))
		logging.Debug().Str("user", c.Previous.ID).Int("entries", n).Msg("[Session] Dropped cached user state")
	})
}
