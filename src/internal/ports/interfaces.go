package ports

import (
	"context"

	"github.com/reelscout/reelscout/src/internal/domain"
)

type CatalogProvider interface {
	Popular(ctx context.Context) ([]domain.Movie, error)
	Search(ctx context.Context, query string) ([]domain.Movie, error)
}

// FavoriteRepository stores favorites/{user}/movies/{movieId}.
// Get returns domain.ErrNotFound when the user has not favorited the movie.
type FavoriteRepository interface {
	Get(ctx context.Context, userID string, movieID int) (*domain.FavoriteEntry, error)
	List(ctx context.Context, userID string) ([]domain.FavoriteEntry, error)
	Put(ctx context.Context, entry *domain.FavoriteEntry) error
	Delete(ctx context.Context, userID string, movieID int) error
}

// RatingRepository stores ratings/{user}/movies/{movieId}.
type RatingRepository interface {
	Get(ctx context.Context, userID string, movieID int) (*domain.RatingEntry, error)
	List(ctx context.Context, userID string) ([]domain.RatingEntry, error)
	Put(ctx context.Context, entry *domain.RatingEntry) error
	Delete(ctx context.Context, userID string, movieID int) error
}

// ProfileRepository stores users/{user}.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
	Save(ctx context.Context, profile *domain.UserProfile) error
}

// AccountRepository backs the password identity provider.
// Create returns domain.ErrEmailInUse when the email is taken.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

// Store bundles the per-user repositories of one backend.
type Store struct {
	Favorites FavoriteRepository
	Ratings   RatingRepository
	Profiles  ProfileRepository
	Accounts  AccountRepository
	Close     func() error
}
