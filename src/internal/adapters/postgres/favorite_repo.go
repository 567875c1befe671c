package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/reelscout/reelscout/src/internal/domain"
)

type PostgresFavoriteRepo struct {
	db *sql.DB
}

func NewFavoriteRepo(db *sql.DB) *PostgresFavoriteRepo {
	return &PostgresFavoriteRepo{db: db}
}

func (r *PostgresFavoriteRepo) InitSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS favorites (
			user_id TEXT NOT NULL,
			movie_id INTEGER NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			poster_path TEXT NOT NULL DEFAULT '',
			overview TEXT NOT NULL DEFAULT '',
			added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, movie_id)
		);
	`)
	return err
}

func (r *PostgresFavoriteRepo) Get(ctx context.Context, userID string, movieID int) (*domain.FavoriteEntry, error) {
	query := `
		SELECT user_id, movie_id, title, poster_path, overview, added_at
		FROM favorites
		WHERE user_id = $1 AND movie_id = $2
	`
	row := r.db.QueryRowContext(ctx, query, userID, movieID)

	var f domain.FavoriteEntry
	if err := row.Scan(&f.UserID, &f.MovieID, &f.Title, &f.PosterPath, &f.Overview, &f.AddedAt); err != nil {
		return nil, mapError(err)
	}
	return &f, nil
}

func (r *PostgresFavoriteRepo) List(ctx context.Context, userID string) ([]domain.FavoriteEntry, error) {
	query := `
		SELECT user_id, movie_id, title, poster_path, overview, added_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY added_at DESC, movie_id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	entries := []domain.FavoriteEntry{}
	for rows.Next() {
		var f domain.FavoriteEntry
		if err := rows.Scan(&f.UserID, &f.MovieID, &f.Title, &f.PosterPath, &f.Overview, &f.AddedAt); err != nil {
			return nil, err
		}
		entries = append(entries, f)
	}
	return entries, rows.Err()
}

func (r *PostgresFavoriteRepo) Put(ctx context.Context, f *domain.FavoriteEntry) error {
	query := `
		INSERT INTO favorites (user_id, movie_id, title, poster_path, overview, added_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, movie_id) DO UPDATE SET
			title = EXCLUDED.title,
			poster_path = EXCLUDED.poster_path,
			overview = EXCLUDED.overview,
			added_at = EXCLUDED.added_at;
	`
	_, err := r.db.ExecContext(ctx, query, f.UserID, f.MovieID, f.Title, f.PosterPath, f.Overview, f.AddedAt)
	return mapError(err)
}

func (r *PostgresFavoriteRepo) Delete(ctx context.Context, userID string, movieID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1 AND movie_id = $2`, userID, movieID)
	return mapError(err)
}
