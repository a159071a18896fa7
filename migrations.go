package fanout

import (
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"
)

// MigrationFiles contains the SQL schema files embedded in the binary.
// Users can apply them with ApplyMigrations or feed them to their own
// migration tool (goose, golang-migrate, atlas, etc.).
//
//go:embed migrations/*.sql
var MigrationFiles embed.FS

// ApplyMigrations executes every embedded migration file, in name order,
// against the given database. Statements are idempotent (CREATE IF NOT
// EXISTS), so re-running on an existing schema is safe.
func ApplyMigrations(db *sql.DB) error {
	entries, err := MigrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := MigrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		for _, stmt := range strings.Split(string(script), ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("migration %s failed: %w", name, err)
			}
		}
	}
	return nil
}
