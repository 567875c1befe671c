package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/logging"
	"github.com/reelscout/reelscout/src/internal/ports"
	"github.com/reelscout/reelscout/src/internal/querycache"
)

type RatingService struct {
	repo  ports.RatingRepository
	cache *querycache.Cache
	locks *keyedMutex
	opts  UserStateOptions
}

func NewRatingService(repo ports.RatingRepository, cache *querycache.Cache, opts UserStateOptions) *RatingService {
	return &RatingService{
		repo:  repo,
		cache: cache,
		locks: newKeyedMutex(),
		opts:  opts.withDefaults(),
	}
}

// Rating returns user's score for movieID, or domain.NoRating.
func (s *RatingService) Rating(ctx context.Context, user *domain.User, movieID int) (int, error) {
	if !signedIn(user) {
		return domain.NoRating, nil
	}
	return queryUser(ctx, s.cache, querycache.RatingKey(user.ID, movieID), s.opts.StaleTime, func(ctx context.Context) (int, error) {
		return s.current(ctx, user.ID, movieID)
	})
}

func (s *RatingService) current(ctx context.Context, userID string, movieID int) (int, error) {
	e, err := s.repo.Get(ctx, userID, movieID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NoRating, nil
	}
	if err != nil {
		return domain.NoRating, fmt.Errorf("failed to fetch rating: %w", err)
	}
	return e.Rating, nil
}

// List returns every movie user rated, most recent first.
func (s *RatingService) List(ctx context.Context, user *domain.User) ([]domain.RatingEntry, error) {
	if !signedIn(user) {
		return []domain.RatingEntry{}, nil
	}
	return queryList(ctx, s.cache, querycache.RatingsKey(user.ID), s.opts.StaleTime, func(ctx context.Context) ([]domain.RatingEntry, error) {
		entries, err := s.repo.List(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list ratings: %w", err)
		}
		return entries, nil
	})
}

// SetRating stores score for movie. domain.NoRating deletes the rating.
func (s *RatingService) SetRating(ctx context.Context, user *domain.User, movie domain.Movie, score int) error {
	if err := s.check(user, movie, score); err != nil {
		return err
	}

	unlock := s.locks.Lock(movieLockKey("rating", user.ID, movie.ID))
	defer unlock()
	return s.write(ctx, user, movie, score)
}

// Rate applies a star selection: choosing the current score clears it,
// any other score replaces it. It returns the resulting score.
func (s *RatingService) Rate(ctx context.Context, user *domain.User, movie domain.Movie, score int) (int, error) {
	if err := s.check(user, movie, score); err != nil {
		return domain.NoRating, err
	}

	unlock := s.locks.Lock(movieLockKey("rating", user.ID, movie.ID))
	defer unlock()

	current, err := s.current(ctx, user.ID, movie.ID)
	if err != nil {
		return domain.NoRating, err
	}
	next := score
	if score == current {
		next = domain.NoRating
	}
	if err := s.write(ctx, user, movie, next); err != nil {
		return current, err
	}
	return next, nil
}

func (s *RatingService) check(user *domain.User, movie domain.Movie, score int) error {
	if !signedIn(user) {
		return domain.ErrUnauthenticated
	}
	if movie.ID <= 0 {
		return domain.ErrInvalidMovie
	}
	if !domain.ValidScore(score) {
		return domain.ErrInvalidRating
	}
	return nil
}

func (s *RatingService) write(ctx context.Context, user *domain.User, movie domain.Movie, score int) error {
	var err error
	if score == domain.NoRating {
		if err = s.repo.Delete(ctx, user.ID, movie.ID); err != nil {
			err = fmt.Errorf("failed to remove rating: %w", err)
		}
	} else {
		entry := domain.NewRatingEntry(user.ID, movie, score, s.opts.Now())
		if err = s.repo.Put(ctx, &entry); err != nil {
			err = fmt.Errorf("failed to save rating: %w", err)
		}
	}
	recordWrite("rating", err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("user", user.ID).Int("movie", movie.ID).Msg("[Ratings] Write failed")
		return err
	}

	s.cache.Invalidate(querycache.RatingKey(user.ID, movie.ID))
	s.cache.Invalidate(querycache.RatingsKey(user.ID))
	logging.Ctx(ctx).Debug().Str("user", user.ID).Int("movie", movie.ID).Int("rating", score).Msg("[Ratings] Updated")
	return nil
}
