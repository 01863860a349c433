package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/sanshin-calendar/internal/persistence/sqlite"
	"github.com/example/sanshin-calendar/internal/persistence/sqlite/migration"
)

// SQLiteCacheDSN returns a DSN for a cache file inside a per-test temporary directory.
func SQLiteCacheDSN(tb testing.TB) string {
	tb.Helper()
	return "file:" + filepath.Join(tb.TempDir(), "calendar-cache.db")
}

// NewSQLiteCache opens a migrated cache on a temporary file. The helper
// registers a cleanup callback that closes it.
func NewSQLiteCache(tb testing.TB) *sqlite.Cache {
	tb.Helper()

	cache, err := sqlite.Open(context.Background(), migration.DefaultSQLiteConfig(SQLiteCacheDSN(tb)), DiscardLogger())
	if err != nil {
		tb.Fatalf("failed to open cache: %v", err)
	}
	tb.Cleanup(func() {
		_ = cache.Close()
	})
	return cache
}
