package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/logging"
	"github.com/reelscout/reelscout/src/internal/ports"
)

func NewConnection(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

type schemaIniter interface {
	InitSchema() error
}

// NewStore wires the SQL repositories onto db without touching the schema.
func NewStore(db *sql.DB) *ports.Store {
	return &ports.Store{
		Favorites: NewFavoriteRepo(db),
		Ratings:   NewRatingRepo(db),
		Profiles:  NewProfileRepo(db),
		Accounts:  NewAccountRepo(db),
		Close:     db.Close,
	}
}

// Open connects to connStr, creates missing tables and returns the store.
func Open(connStr string) (*ports.Store, error) {
	db, err := NewConnection(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	store := NewStore(db)
	if err := initSchema(context.Background(), db, store); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

const schemaLock = "schema"

// initSchema creates the tables of store while holding the schema lock.
func initSchema(ctx context.Context, db *sql.DB, store *ports.Store) error {
	locks := NewLockManager(db)
	if err := locks.InitSchema(); err != nil {
		return fmt.Errorf("failed to init lock schema: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := locks.Acquire(ctx, schemaLock, time.Minute); err != nil {
		return err
	}
	defer func() {
		if err := locks.Release(context.Background(), schemaLock); err != nil {
			logging.Warn().Err(err).Msg("[Postgres] Failed to release schema lock")
		}
	}()

	for _, repo := range []any{store.Favorites, store.Ratings, store.Profiles, store.Accounts} {
		if err := repo.(schemaIniter).InitSchema(); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	logging.Info().Msg("[Postgres] Schema ready")
	return nil
}

// mapError converts driver errors into domain sentinels. Unique violations
// are recognised for both lib/pq and SQLite.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return domain.ErrEmailInUse
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return domain.ErrEmailInUse
	}
	return err
}
