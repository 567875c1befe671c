package tmdb

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/logging"
	"github.com/reelscout/reelscout/src/internal/metrics"
	"github.com/reelscout/reelscout/src/internal/ports"
)

// BreakerSettings tunes the circuit breaker. Zero values take the defaults
// of NewCircuitBreakerClient.
type BreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// CircuitBreakerClient stops calling the catalog while it keeps failing.
// It is the only retry policy: a rejected call fails fast with
// gobreaker.ErrOpenState.
type CircuitBreakerClient struct {
	next ports.CatalogProvider
	cb   *gobreaker.CircuitBreaker[[]domain.Movie]
	name string
}

func NewCircuitBreakerClient(next ports.CatalogProvider, s BreakerSettings) *CircuitBreakerClient {
	if s.MaxRequests == 0 {
		s.MaxRequests = 3
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	if s.MinRequests == 0 {
		s.MinRequests = 5
	}
	if s.FailureRatio == 0 {
		s.FailureRatio = 0.6
	}

	name := "tmdb-api"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]domain.Movie](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= s.FailureRatio {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", ratio).Msg("[TMDB] Opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("from", from.String()).Str("to", to.String()).Msg("[TMDB] Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		// A caller giving up is not a catalog failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &CircuitBreakerClient{next: next, cb: cb, name: name}
}

func (c *CircuitBreakerClient) Popular(ctx context.Context) ([]domain.Movie, error) {
	return c.execute(func() ([]domain.Movie, error) { return c.next.Popular(ctx) })
}

func (c *CircuitBreakerClient) Search(ctx context.Context, query string) ([]domain.Movie, error) {
	return c.execute(func() ([]domain.Movie, error) { return c.next.Search(ctx, query) })
}

// State exposes the breaker state for health reporting.
func (c *CircuitBreakerClient) State() gobreaker.State {
	return c.cb.State()
}

func (c *CircuitBreakerClient) execute(fn func() ([]domain.Movie, error)) ([]domain.Movie, error) {
	movies, err := c.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		logging.Warn().Err(err).Str("breaker", c.name).Msg("[TMDB] Request rejected")
	}
	return movies, err
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
