package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Get returns the blob stored under key
func (d *DB) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := d.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores a blob under key, replacing the previous value
func (d *DB) Set(ctx context.Context, key string, value []byte) error {
	err := d.withRetry(ctx, "set", func() error {
		_, err := d.db.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, value, time.Now().UTC().Format(time.RFC3339Nano))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	d.logger.Debug("Stored blob", "key", key, "bytes", len(value))
	return nil
}

// Delete removes key
func (d *DB) Delete(ctx context.Context, key string) error {
	err := d.withRetry(ctx, "delete", func() error {
		_, err := d.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
