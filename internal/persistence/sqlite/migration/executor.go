package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// AppliedMigration represents a migration that has been successfully applied
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// SQLiteExecutor applies migrations and tracks them in schema_migrations.
type SQLiteExecutor struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteExecutor creates a new SQLite migration executor
func NewSQLiteExecutor(db *sql.DB) *SQLiteExecutor {
	return &SQLiteExecutor{db: db, now: time.Now}
}

// InitializeVersionTable creates the schema_migrations table if it doesn't exist
func (e *SQLiteExecutor) InitializeVersionTable(ctx context.Context) error {
	const createTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			checksum TEXT,
			execution_time_ms INTEGER
		)`
	if _, err := e.db.ExecContext(ctx, createTableSQL); err != nil {
		return NewDatabaseError("", "create schema_migrations table", err)
	}
	return nil
}

// ExecuteMigration runs the migration statements and records the version in
// one transaction, so a failed file leaves no trace.
func (e *SQLiteExecutor) ExecuteMigration(ctx context.Context, migration Migration) (err error) {
	statements := parseSQL(migration.SQL)
	if len(statements) == 0 {
		return NewMigrationError(migration.Version, migration.FilePath, "parse SQL", fmt.Errorf("%w: no statements", ErrInvalidMigrationFile))
	}

	start := e.now()
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return NewDatabaseError(migration.Version, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
			}
		}
	}()

	for i, stmt := range statements {
		if _, execErr := tx.ExecContext(ctx, stmt); execErr != nil {
			return NewDatabaseError(migration.Version, fmt.Sprintf("execute statement %d", i+1), execErr)
		}
	}

	const insertSQL = `INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms) VALUES (?, ?, ?, ?)`
	elapsed := e.now().Sub(start)
	if _, execErr := tx.ExecContext(ctx, insertSQL, migration.Version, e.now().UTC().Format(time.RFC3339), migration.Checksum, elapsed.Milliseconds()); execErr != nil {
		return NewDatabaseError(migration.Version, "record migration", execErr)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return NewDatabaseError(migration.Version, "commit transaction", commitErr)
	}
	return nil
}

// IsVersionApplied checks if a specific migration version has been applied
func (e *SQLiteExecutor) IsVersionApplied(ctx context.Context, version string) (bool, error) {
	var exists int
	err := e.db.QueryRowContext(ctx, `SELECT 1 FROM schema_migrations WHERE version = ? LIMIT 1`, version).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, NewDatabaseError(version, "check version applied", err)
	}
	return true, nil
}

// GetAppliedVersions returns all applied migration versions with timestamps
func (e *SQLiteExecutor) GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT version, applied_at, COALESCE(execution_time_ms, 0), COALESCE(checksum, '')
		FROM schema_migrations
		ORDER BY version ASC`)
	if err != nil {
		return nil, NewDatabaseError("", "get applied versions", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var (
			version, appliedAt, checksum string
			executionMs                  int64
		)
		if err := rows.Scan(&version, &appliedAt, &executionMs, &checksum); err != nil {
			return nil, NewDatabaseError("", "scan applied migration", err)
		}
		at, _ := time.Parse(time.RFC3339, appliedAt)
		applied = append(applied, AppliedMigration{
			Version:       version,
			AppliedAt:     at,
			ExecutionTime: time.Duration(executionMs) * time.Millisecond,
			Checksum:      checksum,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, NewDatabaseError("", "iterate applied migrations", err)
	}
	return applied, nil
}
