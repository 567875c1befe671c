package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/reelscout/reelscout/src/internal/logging"
)

// LockManager hands out expiring named leases stored in the locks table.
// Replicas starting together use it to run schema setup one at a time.
type LockManager struct {
	db     *sql.DB
	holder string
	now    func() time.Time
}

func NewLockManager(db *sql.DB) *LockManager {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return &LockManager{db: db, holder: host + "-" + uuid.NewString()[:8], now: time.Now}
}

func (l *LockManager) InitSchema() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS locks (
			key VARCHAR(255) PRIMARY KEY,
			holder_id VARCHAR(255) NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

// TryAcquire takes key for ttl, or extends it if this manager already holds
// it. It reports false when another holder has a live lease.
func (l *LockManager) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := l.now().UTC()
	if _, err := l.db.ExecContext(ctx, `DELETE FROM locks WHERE key = $1 AND expires_at < $2`, key, now); err != nil {
		return false, err
	}

	expiresAt := now.Add(ttl)
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO locks (key, holder_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO NOTHING
	`, key, l.holder, expiresAt)
	if err != nil {
		return false, err
	}
	if rows, _ := res.RowsAffected(); rows > 0 {
		return true, nil
	}

	res, err = l.db.ExecContext(ctx, `
		UPDATE locks SET expires_at = $1
		WHERE key = $2 AND holder_id = $3
	`, expiresAt, key, l.holder)
	if err != nil {
		return false, err
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

// Acquire polls TryAcquire until it succeeds or ctx ends.
func (l *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		ok, err := l.TryAcquire(ctx, key, ttl)
		if err != nil {
			return fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *LockManager) Release(ctx context.Context, key string) error {
	_, err := l.db.ExecContext(ctx, `DELETE FROM locks WHERE key = $1 AND holder_id = $2`, key, l.holder)
	if err == nil {
		logging.Debug().Str("key", key).Msg("[LockManager] Released lock")
	}
	return err
}
