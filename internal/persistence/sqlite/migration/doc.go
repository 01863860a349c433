// Package migration applies the versioned schema of the local cache database.
//
// Migration files are embedded in the binary and follow the naming
// convention {version}_{description}.sql (e.g. "001_create_cache_entries.sql").
// Applied versions are tracked in the schema_migrations table so each file
// runs exactly once.
//
// Example usage:
//
//	db, err := migration.Open(migration.DefaultSQLiteConfig("calendar-cache.db"))
//	if err != nil {
//		return err
//	}
//	if err := migration.NewRunner(db, logger).Run(ctx); err != nil {
//		return err
//	}
package migration
