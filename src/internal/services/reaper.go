package services

import (
	"context"
	"time"

	"github.com/reelscout/reelscout/src/internal/logging"
)

// SessionExpirer ends sessions that outlived their timeout.
type SessionExpirer interface {
	ExpireSessions() int
}

// SessionReaper periodically ends expired sessions so that the session
// observer, and everything subscribed to it, sees the sign-out.
type SessionReaper struct {
	sessions SessionExpirer
	interval time.Duration
}

func NewSessionReaper(sessions SessionExpirer, interval time.Duration) *SessionReaper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionReaper{sessions: sessions, interval: interval}
}

// StartMonitoring runs until ctx is cancelled.
func (r *SessionReaper) StartMonitoring(ctx context.Context) error {
	logging.Info().Dur("interval", r.interval).Msg("[Reaper] Starting session reaper")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.reap()
		}
	}
}

func (r *SessionReaper) reap() int {
	n := r.sessions.ExpireSessions()
	if n > 0 {
		logging.Info().Int("expired", n).Msg("[Reaper] Ended expired sessions")
	}
	return n
}

// Serve implements suture.Service.
func (r *SessionReaper) Serve(ctx context.Context) error {
	return r.StartMonitoring(ctx)
}

func (r *SessionReaper) String() string {
	return "session-reaper"
}
