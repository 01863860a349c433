// Package sqlite keeps the on-device cache in a SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/sanshin-calendar/internal/persistence/sqlite/migration"
)

// Cache stores whole JSON values by key. Each Set replaces the value in one statement.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the cache database and applies pending migrations.
func Open(ctx context.Context, config migration.SQLiteConfig, logger *slog.Logger) (*Cache, error) {
	db, err := migration.Open(config)
	if err != nil {
		return nil, err
	}
	if _, err := migration.NewRunner(db, logger).Run(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate cache: %w", err)
	}
	return &Cache{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the value stored under key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := c.db.QueryRowContext(ctx, `SELECT value FROM cache_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: get %s: %w", key, err)
	}
	return value, true, nil
}

// Set replaces the value stored under key.
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, c.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: delete %s: %w", key, err)
	}
	return nil
}

// UpdatedAt reports when key was last written.
func (c *Cache) UpdatedAt(ctx context.Context, key string) (time.Time, bool, error) {
	var raw string
	err := c.db.QueryRowContext(ctx, `SELECT updated_at FROM cache_entries WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("sqlite: updated_at %s: %w", key, err)
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("sqlite: updated_at %s: %w", key, err)
	}
	return at, true, nil
}
