package database

import (
	"context"
	"fmt"
)

type SQLSettingsRepository struct {
	db *DB
}

func NewSettingsRepository(db *DB) *SQLSettingsRepository {
	return &SQLSettingsRepository{db: db}
}

func (r *SQLSettingsRepository) GetSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting row: %w", err)
		}
		values[name] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating setting rows: %w", err)
	}

	return values, nil
}

func (r *SQLSettingsRepository) SaveSettings(ctx context.Context, values map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for name, value := range values {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (name, value)
			VALUES (?, ?)
			ON CONFLICT (name) DO UPDATE SET
				value = excluded.value,
				updated_at = CAST(strftime('%s', 'now') AS INTEGER)
		`, name, value)
		if err != nil {
			return fmt.Errorf("failed to save setting %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settings: %w", err)
	}

	return nil
}
