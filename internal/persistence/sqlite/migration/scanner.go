package migration

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var embedded embed.FS

// migrationFilePattern matches {version}_{description}.sql.
var migrationFilePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

// Migration represents a database migration with its metadata and SQL content
type Migration struct {
	Version     string
	Description string
	SQL         string
	FilePath    string
	Checksum    string
}

// Embedded returns the migrations compiled into the binary.
func Embedded() ([]Migration, error) {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		return nil, err
	}
	return Scan(sub)
}

// Scan reads every migration file at the root of fsys, ordered by version.
func Scan(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, NewMigrationError("", ".", "read directory", err)
	}

	var migrations []Migration
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		matches := migrationFilePattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			return nil, NewMigrationError("", entry.Name(), "validate filename", ErrInvalidMigrationFile)
		}
		version := matches[1]
		if other, dup := seen[version]; dup {
			return nil, NewMigrationError(version, entry.Name(), "validate version", fmt.Errorf("%w: also in %s", ErrDuplicateVersion, other))
		}
		seen[version] = entry.Name()

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, NewMigrationError(version, entry.Name(), "read file", err)
		}
		if strings.TrimSpace(string(content)) == "" {
			return nil, NewMigrationError(version, entry.Name(), "read file", ErrInvalidMigrationFile)
		}
		sum := sha256.Sum256(content)
		migrations = append(migrations, Migration{
			Version:     version,
			Description: strings.ReplaceAll(matches[2], "_", " "),
			SQL:         string(content),
			FilePath:    path.Join("migrations", entry.Name()),
			Checksum:    hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		a, _ := strconv.Atoi(migrations[i].Version)
		b, _ := strconv.Atoi(migrations[j].Version)
		return a < b
	})
	return migrations, nil
}

// parseSQL splits SQL content into individual statements, dropping comment-only lines.
func parseSQL(sql string) []string {
	var statements []string
	for _, stmt := range strings.Split(sql, ";") {
		var lines []string
		for _, line := range strings.Split(stmt, "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "--") {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			statements = append(statements, strings.Join(lines, "\n"))
		}
	}
	return statements
}
