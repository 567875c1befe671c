package docpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	assert.Equal(t, "favorites/u1/movies/438631", Favorite("u1", 438631))
	assert.Equal(t, "ratings/u1/movies/7", Rating("u1", 7))
	assert.Equal(t, "users/u1", User("u1"))
	assert.Equal(t, "accounts/ann@example.com", Account("  Ann@Example.com "))
}

func TestMovieID(t *testing.T) {
	id, err := MovieID(Favorite("u1", 550))
	require.NoError(t, err)
	assert.Equal(t, 550, id)

	_, err = MovieID("favorites/u1/movies/")
	assert.Error(t, err)
}

func TestPaths_EscapeUserID(t *testing.T) {
	assert.Equal(t, "favorites/ann%2Fmovies%2Fx/movies/7", Favorite("ann/movies/x", 7))
	assert.Equal(t, "users/a%2Fb", User("a/b"))
	assert.NotContains(t, Favorite("ann/movies/x", 7), Favorites("ann"))
	assert.NotContains(t, Rating("ann/movies/x", 7), Ratings("ann"))

	id, err := MovieID(Rating("ann/movies/x", 7))
	require.NoError(t, err)
	assert.Equal(t, 7, id)
}
