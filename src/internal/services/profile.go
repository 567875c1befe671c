package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/logging"
	"github.com/reelscout/reelscout/src/internal/ports"
	"github.com/reelscout/reelscout/src/internal/querycache"
	"github.com/reelscout/reelscout/src/internal/validation"
)

type ProfileService struct {
	repo  ports.ProfileRepository
	cache *querycache.Cache
	opts  UserStateOptions
}

func NewProfileService(repo ports.ProfileRepository, cache *querycache.Cache, opts UserStateOptions) *ProfileService {
	return &ProfileService{repo: repo, cache: cache, opts: opts.withDefaults()}
}

// Get returns user's profile, creating it from the identity on first read.
// It is nil without a store call when nobody is signed in.
func (s *ProfileService) Get(ctx context.Context, user *domain.User) (*domain.UserProfile, error) {
	if !signedIn(user) {
		return nil, nil
	}
	p, err := queryUser(ctx, s.cache, querycache.ProfileKey(user.ID), s.opts.StaleTime, func(ctx context.Context) (*domain.UserProfile, error) {
		return s.load(ctx, user)
	})
	if p == nil {
		return nil, err
	}
	cp := *p
	return &cp, err
}

func (s *ProfileService) load(ctx context.Context, user *domain.User) (*domain.UserProfile, error) {
	p, err := s.repo.Get(ctx, user.ID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	p = &domain.UserProfile{UserID: user.ID, Name: user.DisplayName, Email: user.Email}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	logging.Ctx(ctx).Info().Str("user", user.ID).Msg("[Profile] Created profile")
	return p, nil
}

// Save validates and stores profile for user. A *validation.Error is
// returned for bad input.
func (s *ProfileService) Save(ctx context.Context, user *domain.User, profile domain.UserProfile) error {
	if !signedIn(user) {
		return domain.ErrUnauthenticated
	}
	profile.UserID = user.ID
	if err := validation.Struct(&profile); err != nil {
		return err
	}

	err := s.repo.Save(ctx, &profile)
	recordWrite("profile", err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("user", user.ID).Msg("[Profile] Save failed")
		return fmt.Errorf("failed to update profile: %w", err)
	}
	s.cache.Invalidate(querycache.ProfileKey(user.ID))
	return nil
}
