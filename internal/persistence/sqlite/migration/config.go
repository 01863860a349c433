package migration

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConfig holds SQLite-specific database configuration
type SQLiteConfig struct {
	// DSN is the database file path or a file: URI
	DSN string

	// BusyTimeout sets how long to wait for database locks
	BusyTimeout time.Duration

	// JournalMode sets the SQLite journal mode (WAL, DELETE, MEMORY, ...)
	JournalMode string

	// Synchronous sets the synchronous mode (FULL, NORMAL, OFF)
	Synchronous string

	// MaxOpenConns sets the maximum number of open connections
	MaxOpenConns int
}

// Open validates the configuration, creates the database file when needed and
// returns a connection with the configured PRAGMAs applied.
func Open(config SQLiteConfig) (*sql.DB, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid SQLite configuration: %w", err)
	}
	if err := createDatabaseFile(config.DSN); err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}

	db, err := sql.Open("sqlite", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// PRAGMAs are per connection, so the pool never recycles the one they were applied to.
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxOpenConns)
	db.SetConnMaxLifetime(0)

	if err := configureDatabase(db, config); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	return db, nil
}

func configureDatabase(db *sql.DB, config SQLiteConfig) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", config.BusyTimeout.Milliseconds()),
	}
	if config.JournalMode != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode = "+config.JournalMode)
	}
	if config.Synchronous != "" {
		pragmas = append(pragmas, "PRAGMA synchronous = "+config.Synchronous)
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return nil
}

// createDatabaseFile makes sure the directory holding the database exists.
func createDatabaseFile(dsn string) error {
	path, ok := filePath(dsn)
	if !ok {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

// filePath extracts the on-disk path from a DSN. In-memory databases have none.
func filePath(dsn string) (string, bool) {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return "", false
	}
	return path, true
}

// ValidateConfig validates the SQLite configuration
func ValidateConfig(config SQLiteConfig) error {
	if strings.TrimSpace(config.DSN) == "" {
		return fmt.Errorf("DSN cannot be empty")
	}
	if config.BusyTimeout < 0 {
		return fmt.Errorf("BusyTimeout cannot be negative")
	}

	validJournalModes := map[string]bool{
		"DELETE":   true,
		"TRUNCATE": true,
		"PERSIST":  true,
		"MEMORY":   true,
		"WAL":      true,
		"OFF":      true,
	}
	if config.JournalMode != "" && !validJournalModes[config.JournalMode] {
		return fmt.Errorf("invalid journal mode: %s", config.JournalMode)
	}

	validSyncModes := map[string]bool{
		"OFF":    true,
		"NORMAL": true,
		"FULL":   true,
		"EXTRA":  true,
	}
	if config.Synchronous != "" && !validSyncModes[config.Synchronous] {
		return fmt.Errorf("invalid synchronous mode: %s", config.Synchronous)
	}

	if config.MaxOpenConns < 1 {
		return fmt.Errorf("MaxOpenConns must be at least 1")
	}
	return nil
}

// DefaultSQLiteConfig returns the configuration used for the on-device cache file.
func DefaultSQLiteConfig(dsn string) SQLiteConfig {
	return SQLiteConfig{
		DSN:          dsn,
		BusyTimeout:  5 * time.Second,
		JournalMode:  "WAL",
		Synchronous:  "NORMAL",
		MaxOpenConns: 1,
	}
}

// InMemorySQLiteConfig returns a configuration for a private in-memory database.
func InMemorySQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		DSN:          ":memory:",
		BusyTimeout:  time.Second,
		JournalMode:  "MEMORY",
		Synchronous:  "OFF",
		MaxOpenConns: 1,
	}
}
