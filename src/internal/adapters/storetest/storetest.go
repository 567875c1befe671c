// Package storetest holds behavior tests every ports.Store backend must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/ports"
)

var (
	dune = domain.Movie{ID: 438631, Title: "Dune", Overview: "Paul Atreides...", PosterPath: "/dune.jpg"}
	heat = domain.Movie{ID: 949, Title: "Heat", Overview: "Obsessive master thief..."}
	t0   = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

// Run exercises newStore's repositories. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) *ports.Store) {
	t.Run("Favorites", func(t *testing.T) { testFavorites(t, newStore(t)) })
	t.Run("Ratings", func(t *testing.T) { testRatings(t, newStore(t)) })
	t.Run("Profiles", func(t *testing.T) { testProfiles(t, newStore(t)) })
	t.Run("Accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
	t.Run("UserIDWithSlash", func(t *testing.T) { testSlashedUserID(t, newStore(t)) })
}

func testFavorites(t *testing.T, s *ports.Store) {
	ctx := context.Background()
	repo := s.Favorites

	_, err := repo.Get(ctx, "u1", dune.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)

	e1 := domain.NewFavoriteEntry("u1", dune, t0)
	e2 := domain.NewFavoriteEntry("u1", heat, t0.Add(time.Minute))
	require.NoError(t, repo.Put(ctx, &e1))
	require.NoError(t, repo.Put(ctx, &e2))

	other := domain.NewFavoriteEntry("u2", heat, t0)
	require.NoError(t, repo.Put(ctx, &other))

	got, err := repo.Get(ctx, "u1", dune.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, dune.ID, got.MovieID)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, "/dune.jpg", got.PosterPath)
	assert.True(t, got.AddedAt.Equal(t0))

	list, err = repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, heat.ID, list[0].MovieID, "newest first")
	assert.Equal(t, dune.ID, list[1].MovieID)

	// Writing again is an overwrite, not a duplicate.
	require.NoError(t, repo.Put(ctx, &e1))
	list, err = repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, repo.Delete(ctx, "u1", dune.ID))
	_, err = repo.Get(ctx, "u1", dune.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting a missing record is not an error.
	require.NoError(t, repo.Delete(ctx, "u1", dune.ID))

	list, err = repo.List(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "u2", list[0].UserID)
}

func testRatings(t *testing.T, s *ports.Store) {
	ctx := context.Background()
	repo := s.Ratings

	_, err := repo.Get(ctx, "u1", dune.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	r := domain.NewRatingEntry("u1", dune, 4, t0)
	require.NoError(t, repo.Put(ctx, &r))

	got, err := repo.Get(ctx, "u1", dune.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Rating)

	r = domain.NewRatingEntry("u1", dune, 2, t0.Add(time.Hour))
	require.NoError(t, repo.Put(ctx, &r))
	got, err = repo.Get(ctx, "u1", dune.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Rating)
	assert.True(t, got.UpdatedAt.Equal(t0.Add(time.Hour)))

	h := domain.NewRatingEntry("u1", heat, 5, t0)
	require.NoError(t, repo.Put(ctx, &h))

	list, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, dune.ID, list[0].MovieID)
	assert.Equal(t, "Heat", list[1].Title)

	list, err = repo.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repo.Delete(ctx, "u1", dune.ID))
	_, err = repo.Get(ctx, "u1", dune.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testProfiles(t *testing.T, s *ports.Store) {
	ctx := context.Background()
	repo := s.Profiles

	_, err := repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p := &domain.UserProfile{UserID: "u1", Name: "Ann", Email: "ann@example.com"}
	require.NoError(t, repo.Save(ctx, p))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, *p, *got)

	p.Phone = "555-0100"
	p.Address = "1 Main St"
	require.NoError(t, repo.Save(ctx, p))
	got, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "555-0100", got.Phone)
	assert.Equal(t, "1 Main St", got.Address)

	_, err = repo.Get(ctx, "u2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testAccounts(t *testing.T, s *ports.Store) {
	ctx := context.Background()
	repo := s.Accounts

	_, err := repo.GetByEmail(ctx, "ann@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	a := &domain.Account{ID: "acc-1", Email: "ann@example.com", PasswordHash: []byte("hash"), CreatedAt: t0}
	require.NoError(t, repo.Create(ctx, a))

	got, err := repo.GetByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.ID)
	assert.Equal(t, []byte("hash"), got.PasswordHash)

	dup := &domain.Account{ID: "acc-2", Email: "Ann@Example.com", PasswordHash: []byte("x"), CreatedAt: t0}
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrEmailInUse)
}

// An external subject may contain "/"; its records must stay out of the
// lists of a user whose ID is a prefix of it.
func testSlashedUserID(t *testing.T, s *ports.Store) {
	ctx := context.Background()
	const owner, intruder = "ann", "ann/movies/x"

	fav := domain.NewFavoriteEntry(intruder, dune, t0)
	require.NoError(t, s.Favorites.Put(ctx, &fav))
	rating := domain.NewRatingEntry(intruder, heat, 3, t0)
	require.NoError(t, s.Ratings.Put(ctx, &rating))

	favs, err := s.Favorites.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, favs)
	ratings, err := s.Ratings.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, ratings)

	favs, err = s.Favorites.List(ctx, intruder)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, intruder, favs[0].UserID)

	got, err := s.Ratings.Get(ctx, intruder, heat.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Rating)
	_, err = s.Ratings.Get(ctx, owner, heat.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Profiles.Save(ctx, &domain.UserProfile{UserID: intruder, Email: "x@example.com"}))
	_, err = s.Profiles.Get(ctx, owner)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
