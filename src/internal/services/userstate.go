package services

import (
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/metrics"
	"github.com/reelscout/reelscout/src/internal/querycache"
)

// UserStateOptions are shared by the per-user services.
type UserStateOptions struct {
	StaleTime time.Duration
	Now       func() time.Time
}

func (o UserStateOptions) withDefaults() UserStateOptions {
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func signedIn(user *domain.User) bool {
	return user != nil && user.ID != ""
}

func movieLockKey(kind, userID string, movieID int) string {
	return kind + "/" + userID + "/" + strconv.Itoa(movieID)
}

// queryUser runs a per-user read. On error the last cached value is
// returned along with it.
func queryUser[T any](ctx context.Context, c *querycache.Cache, key querycache.Key, staleTime time.Duration, fn func(context.Context) (T, error)) (T, error) {
	v, err := querycache.Query(ctx, c, key, staleTime, fn)
	if err != nil {
		cached, _ := c.Peek(key).Data.(T)
		return cached, err
	}
	return v, nil
}

// queryList is queryUser for list reads. Callers get their own copy of the
// cached slice.
func queryList[E any](ctx context.Context, c *querycache.Cache, key querycache.Key, staleTime time.Duration, fn func(context.Context) ([]E, error)) ([]E, error) {
	v, err := queryUser(ctx, c, key, staleTime, fn)
	return slices.Clone(v), err
}

func recordWrite(kind string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.UserStateWrites.WithLabelValues(kind, result).Inc()
}
