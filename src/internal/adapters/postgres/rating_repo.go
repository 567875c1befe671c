package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/reelscout/reelscout/src/internal/domain"
)

type PostgresRatingRepo struct {
	db *sql.DB
}

func NewRatingRepo(db *sql.DB) *PostgresRatingRepo {
	return &PostgresRatingRepo{db: db}
}

func (r *PostgresRatingRepo) InitSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS ratings (
			user_id TEXT NOT NULL,
			movie_id INTEGER NOT NULL,
			rating SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
			title TEXT NOT NULL DEFAULT '',
			poster_path TEXT NOT NULL DEFAULT '',
			overview TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, movie_id)
		);
	`)
	return err
}

func (r *PostgresRatingRepo) Get(ctx context.Context, userID string, movieID int) (*domain.RatingEntry, error) {
	query := `
		SELECT user_id, movie_id, rating, title, poster_path, overview, updated_at
		FROM ratings
		WHERE user_id = $1 AND movie_id = $2
	`
	row := r.db.QueryRowContext(ctx, query, userID, movieID)

	var e domain.RatingEntry
	if err := row.Scan(&e.UserID, &e.MovieID, &e.Rating, &e.Title, &e.PosterPath, &e.Overview, &e.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	return &e, nil
}

func (r *PostgresRatingRepo) List(ctx context.Context, userID string) ([]domain.RatingEntry, error) {
	query := `
		SELECT user_id, movie_id, rating, title, poster_path, overview, updated_at
		FROM ratings
		WHERE user_id = $1
		ORDER BY updated_at DESC, movie_id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	entries := []domain.RatingEntry{}
	for rows.Next() {
		var e domain.RatingEntry
		if err := rows.Scan(&e.UserID, &e.MovieID, &e.Rating, &e.Title, &e.PosterPath, &e.Overview, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *PostgresRatingRepo) Put(ctx context.Context, e *domain.RatingEntry) error {
	query := `
		INSERT INTO ratings (user_id, movie_id, rating, title, poster_path, overview, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, movie_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			title = EXCLUDED.title,
			poster_path = EXCLUDED.poster_path,
			overview = EXCLUDED.overview,
			updated_at = EXCLUDED.updated_at;
	`
	_, err := r.db.ExecContext(ctx, query, e.UserID, e.MovieID, e.Rating, e.Title, e.PosterPath, e.Overview, e.UpdatedAt)
	return mapError(err)
}

func (r *PostgresRatingRepo) Delete(ctx context.Context, userID string, movieID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ratings WHERE user_id = $1 AND movie_id = $2`, userID, movieID)
	return mapError(err)
}
