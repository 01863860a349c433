package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Runner applies pending migrations in version order.
type Runner struct {
	executor   *SQLiteExecutor
	migrations func() ([]Migration, error)
	logger     *slog.Logger
}

// NewRunner returns a runner over the embedded migrations.
func NewRunner(db *sql.DB, logger *slog.Logger) *Runner {
	return NewRunnerWithMigrations(db, Embedded, logger)
}

// NewRunnerWithMigrations lets callers supply the migration source.
func NewRunnerWithMigrations(db *sql.DB, source func() ([]Migration, error), logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{executor: NewSQLiteExecutor(db), migrations: source, logger: logger.With("component", "migration")}
}

// Run initialises version tracking and applies every pending migration.
// It returns the versions applied by this call.
func (r *Runner) Run(ctx context.Context) ([]string, error) {
	start := time.Now()
	if err := r.executor.InitializeVersionTable(ctx); err != nil {
		r.logger.Error("failed to initialize schema_migrations table", "error", err)
		return nil, fmt.Errorf("failed to initialize version table: %w", err)
	}

	migrations, err := r.migrations()
	if err != nil {
		r.logger.Error("failed to load migrations", "error", err)
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	var applied []string
	for _, m := range migrations {
		done, err := r.executor.IsVersionApplied(ctx, m.Version)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}
		if err := r.executor.ExecuteMigration(ctx, m); err != nil {
			r.logger.Error("migration failed", "version", m.Version, "file", m.FilePath, "error", err)
			return applied, err
		}
		r.logger.Info("migration applied", "version", m.Version, "description", m.Description)
		applied = append(applied, m.Version)
	}

	if len(applied) > 0 {
		r.logger.Info("schema up to date", "applied", len(applied), "duration_ms", time.Since(start).Milliseconds())
	}
	return applied, nil
}

// Applied lists the versions recorded in schema_migrations.
func (r *Runner) Applied(ctx context.Context) ([]AppliedMigration, error) {
	return r.executor.GetAppliedVersions(ctx)
}
