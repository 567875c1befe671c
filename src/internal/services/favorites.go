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

type FavoriteService struct {
	repo  ports.FavoriteRepository
	cache *querycache.Cache
	locks *keyedMutex
	opts  UserStateOptions
}

func NewFavoriteService(repo ports.FavoriteRepository, cache *querycache.Cache, opts UserStateOptions) *FavoriteService {
	return &FavoriteService{
		repo:  repo,
		cache: cache,
		locks: newKeyedMutex(),
		opts:  opts.withDefaults(),
	}
}

// IsFavorite reports whether user has favorited movieID. It is false
// without a store call when nobody is signed in.
func (s *FavoriteService) IsFavorite(ctx context.Context, user *domain.User, movieID int) (bool, error) {
	if !signedIn(user) {
		return false, nil
	}
	return queryUser(ctx, s.cache, querycache.FavoriteKey(user.ID, movieID), s.opts.StaleTime, func(ctx context.Context) (bool, error) {
		return s.exists(ctx, user.ID, movieID)
	})
}

func (s *FavoriteService) exists(ctx context.Context, userID string, movieID int) (bool, error) {
	_, err := s.repo.Get(ctx, userID, movieID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to fetch favorite status: %w", err)
	}
	return true, nil
}

// List returns user's favorites, newest first.
func (s *FavoriteService) List(ctx context.Context, user *domain.User) ([]domain.FavoriteEntry, error) {
	if !signedIn(user) {
		return []domain.FavoriteEntry{}, nil
	}
	return queryList(ctx, s.cache, querycache.FavoritesKey(user.ID), s.opts.StaleTime, func(ctx context.Context) ([]domain.FavoriteEntry, error) {
		entries, err := s.repo.List(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list favorites: %w", err)
		}
		return entries, nil
	})
}

// SetFavorite adds or removes movie from user's favorites. The cache is
// only invalidated after the store accepted the write.
func (s *FavoriteService) SetFavorite(ctx context.Context, user *domain.User, movie domain.Movie, on bool) error {
	if !signedIn(user) {
		return domain.ErrUnauthenticated
	}
	if movie.ID <= 0 {
		return domain.ErrInvalidMovie
	}

	unlock := s.locks.Lock(movieLockKey("favorite", user.ID, movie.ID))
	defer unlock()
	return s.write(ctx, user, movie, on)
}

// Toggle flips the favorite status of movie and returns the new status.
func (s *FavoriteService) Toggle(ctx context.Context, user *domain.User, movie domain.Movie) (bool, error) {
	if !signedIn(user) {
		return false, domain.ErrUnauthenticated
	}
	if movie.ID <= 0 {
		return false, domain.ErrInvalidMovie
	}

	unlock := s.locks.Lock(movieLockKey("favorite", user.ID, movie.ID))
	defer unlock()

	current, err := s.exists(ctx, user.ID, movie.ID)
	if err != nil {
		return false, err
	}
	if err := s.write(ctx, user, movie, !current); err != nil {
		return current, err
	}
	return !current, nil
}

func (s *FavoriteService) write(ctx context.Context, user *domain.User, movie domain.Movie, on bool) error {
	var err error
	if on {
		entry := domain.NewFavoriteEntry(user.ID, movie, s.opts.Now())
		if err = s.repo.Put(ctx, &entry); err != nil {
			err = fmt.Errorf("failed to add favorite: %w", err)
		}
	} else if err = s.repo.Delete(ctx, user.ID, movie.ID); err != nil {
		err = fmt.Errorf("failed to remove favorite: %w", err)
	}
	recordWrite("favorite", err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("user", user.ID).Int("movie", movie.ID).Msg("[Favorites] Write failed")
		return err
	}

	s.cache.Invalidate(querycache.FavoriteKey(user.ID, movie.ID))
	s.cache.Invalidate(querycache.FavoritesKey(user.ID))
	logging.Ctx(ctx).Debug().Str("user", user.ID).Int("movie", movie.ID).Bool("favorite", on).Msg("[Favorites] Updated")
	return nil
}
