package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// schemaChange is one embedded migration script. Files are named
// NNN_description.sql and applied in ascending NNN order.
type schemaChange struct {
	version int
	name    string
	script  string
}

// loadSchemaChanges reads and orders the embedded migration scripts.
func loadSchemaChanges(fsys fs.FS) ([]schemaChange, error) {
	paths, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, err
	}

	changes := make([]schemaChange, 0, len(paths))
	for _, p := range paths {
		base := strings.TrimSuffix(path.Base(p), ".sql")
		prefix, name, ok := strings.Cut(base, "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: want NNN_name.sql", p)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil || version <= 0 {
			return nil, fmt.Errorf("migration %s: bad version %q", p, prefix)
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, err
		}
		changes = append(changes, schemaChange{version: version, name: name, script: string(data)})
	}

	slices.SortFunc(changes, func(a, b schemaChange) int { return a.version - b.version })
	for i := 1; i < len(changes); i++ {
		if changes[i].version == changes[i-1].version {
			return nil, fmt.Errorf("duplicate migration version %d", changes[i].version)
		}
	}
	return changes, nil
}

// runMigrations brings the document schema up to the newest embedded version.
// Each script runs in its own transaction together with its schema_version row.
func runMigrations(ctx context.Context, db *sql.DB) error {
	changes, err := loadSchemaChanges(migrationFiles)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var applied int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&applied); err != nil {
		return fmt.Errorf("read schema_version: %w", err)
	}

	for _, ch := range changes {
		if ch.version <= applied {
			continue
		}
		if err := applySchemaChange(ctx, db, ch); err != nil {
			return err
		}
	}
	return nil
}

func applySchemaChange(ctx context.Context, db *sql.DB, ch schemaChange) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", ch.version, err)
	}
	defer tx.Rollback()

	for _, stmt := range sqlStatements(ch.script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d (%s): %w", ch.version, ch.name, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, name) VALUES (?, ?)`, ch.version, ch.name); err != nil {
		return fmt.Errorf("record migration %d: %w", ch.version, err)
	}
	return tx.Commit()
}

// sqlStatements drops "--" comment lines and splits the rest on semicolons.
// Scripts must not put semicolons inside string literals.
func sqlStatements(script string) []string {
	var code strings.Builder
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		code.WriteString(line)
		code.WriteByte('\n')
	}

	var stmts []string
	for _, part := range strings.Split(code.String(), ";") {
		if s := strings.TrimSpace(part); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
