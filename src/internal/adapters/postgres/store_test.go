package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelscout/reelscout/src/internal/adapters/storetest"
	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/ports"
)

// SQLite accepts the same $N placeholders and upserts. The schema is
// owned by the test because TIMESTAMPTZ and NOW() are Postgres only.
const sqliteSchema = `
	CREATE TABLE favorites (
		user_id TEXT NOT NULL,
		movie_id INTEGER NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		poster_path TEXT NOT NULL DEFAULT '',
		overview TEXT NOT NULL DEFAULT '',
		added_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, movie_id)
	);
	CREATE TABLE ratings (
		user_id TEXT NOT NULL,
		movie_id INTEGER NOT NULL,
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		title TEXT NOT NULL DEFAULT '',
		poster_path TEXT NOT NULL DEFAULT '',
		overview TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, movie_id)
	);
	CREATE TABLE user_profiles (
		user_id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE accounts (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash BLOB NOT NULL,
		created_at DATETIME NOT NULL
	);
`

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(sqliteSchema)
	require.NoError(t, err)
	return db
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) *ports.Store { return NewStore(newTestDB(t)) })
}

func TestRatingRepo_RejectsOutOfRangeAtSchema(t *testing.T) {
	repo := NewRatingRepo(newTestDB(t))
	e := domain.RatingEntry{UserID: "u1", MovieID: 1, Rating: 9}
	assert.Error(t, repo.Put(t.Context(), &e))
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(sql.ErrNoRows), domain.ErrNotFound)
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23505"}), domain.ErrEmailInUse)
	assert.ErrorIs(t, mapError(errors.New("UNIQUE constraint failed: accounts.email")), domain.ErrEmailInUse)

	other := errors.New("connection refused")
	assert.Equal(t, other, mapError(other))
}
