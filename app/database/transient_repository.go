package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TransientRepository is a key/value store with per-entry expiry backed by
// the transients table. Expired entries are detected and removed on read.
type TransientRepository struct {
	db  *DB
	now func() time.Time
}

func NewTransientRepository(db *DB) *TransientRepository {
	return &TransientRepository{db: db, now: time.Now}
}

func (r *TransientRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value     string
		expiresAt int64
	)

	err := r.db.QueryRowContext(ctx, `SELECT value, expires_at FROM transients WHERE key = ?`, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get transient %s: %w", key, err)
	}

	if r.now().UTC().Unix() >= expiresAt {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM transients WHERE key = ? AND expires_at = ?`, key, expiresAt); err != nil {
			return "", false, fmt.Errorf("failed to delete expired transient %s: %w", key, err)
		}
		return "", false, nil
	}

	return value, true, nil
}

func (r *TransientRepository) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	expiresAt := r.now().UTC().Add(ttl).Unix()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transients (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`, key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to set transient %s: %w", key, err)
	}

	return nil
}

func (r *TransientRepository) Health(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{
		"status": "healthy",
		"type":   "sqlite",
	}

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transients WHERE expires_at > ?`, r.now().UTC().Unix()).Scan(&count)
	if err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
		return health
	}

	health["key_count"] = count
	return health
}
