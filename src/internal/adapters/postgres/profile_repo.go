package postgres

import (
	"context"
	"database/sql"

	"github.com/reelscout/reelscout/src/internal/domain"
)

type PostgresProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

func (r *PostgresProfileRepo) InitSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS user_profiles (
			user_id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ DEFAULT NOW()
		);
	`)
	return err
}

func (r *PostgresProfileRepo) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `
		SELECT user_id, name, email, phone, address
		FROM user_profiles
		WHERE user_id = $1
	`
	row := r.db.QueryRowContext(ctx, query, userID)

	var p domain.UserProfile
	if err := row.Scan(&p.UserID, &p.Name, &p.Email, &p.Phone, &p.Address); err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (r *PostgresProfileRepo) Save(ctx context.Context, p *domain.UserProfile) error {
	query := `
		INSERT INTO user_profiles (user_id, name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address;
	`
	_, err := r.db.ExecContext(ctx, query, p.UserID, p.Name, p.Email, p.Phone, p.Address)
	return mapError(err)
}
