package services

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/reelscout/reelscout/src/internal/domain"
)

type MockFavoriteRepo struct {
	mock.Mock
}

func (m *MockFavoriteRepo) Get(ctx context.Context, userID string, movieID int) (*domain.FavoriteEntry, error) {
	args := m.Called(ctx, userID, movieID)
	e, _ := args.Get(0).(*domain.FavoriteEntry)
	return e, args.Error(1)
}

func (m *MockFavoriteRepo) List(ctx context.Context, userID string) ([]domain.FavoriteEntry, error) {
	args := m.Called(ctx, userID)
	e, _ := args.Get(0).([]domain.FavoriteEntry)
	return e, args.Error(1)
}

func (m *MockFavoriteRepo) Put(ctx context.Context, entry *domain.FavoriteEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockFavoriteRepo) Delete(ctx context.Context, userID string, movieID int) error {
	return m.Called(ctx, userID, movieID).Error(0)
}

type MockRatingRepo struct {
	mock.Mock
}

func (m *MockRatingRepo) Get(ctx context.Context, userID string, movieID int) (*domain.RatingEntry, error) {
	args := m.Called(ctx, userID, movieID)
	e, _ := args.Get(0).(*domain.RatingEntry)
	return e, args.Error(1)
}

func (m *MockRatingRepo) List(ctx context.Context, userID string) ([]domain.RatingEntry, error) {
	args := m.Called(ctx, userID)
	e, _ := args.Get(0).([]domain.RatingEntry)
	return e, args.Error(1)
}

func (m *MockRatingRepo) Put(ctx context.Context, entry *domain.RatingEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockRatingRepo) Delete(ctx context.Context, userID string, movieID int) error {
	return m.Called(ctx, userID, movieID).Error(0)
}

type MockProfileRepo struct {
	mock.Mock
}

func (m *MockProfileRepo) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*domain.UserProfile)
	return p, args.Error(1)
}

func (m *MockProfileRepo) Save(ctx context.Context, profile *domain.UserProfile) error {
	return m.Called(ctx, profile).Error(0)
}

// fakeCatalog answers from fixed lists and records every request.
type fakeCatalog struct {
	mu       sync.Mutex
	popular  []domain.Movie
	results  map[string][]domain.Movie
	err      error
	searches []string
	populars int
}

func (f *fakeCatalog) Popular(ctx context.Context) ([]domain.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.populars++
	if f.err != nil {
		return nil, f.err
	}
	return f.popular, nil
}

func (f *fakeCatalog) Search(ctx context.Context, query string) ([]domain.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func (f *fakeCatalog) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeCatalog) calls() (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.populars, append([]string(nil), f.searches...)
}
