package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// MigrationFile describes the up/down pair written for a new schema change.
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes an empty up/down SQL pair into migrationsDir.
// The version prefix is the creation time in YYYYMMDDHHMMSS form so
// files sort in application order, matching what Up() expects.
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	if err := os.MkdirAll(migrationsDir, 0755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	now := time.Now()
	version := now.Format("20060102150405")
	slug := sanitizeName(name)
	base := version + "_" + slug

	mf := &MigrationFile{
		Version:     version,
		Name:        name,
		Description: description,
		Timestamp:   now.Format(time.RFC3339),
		UpPath:      filepath.Join(migrationsDir, base+".up.sql"),
		DownPath:    filepath.Join(migrationsDir, base+".down.sql"),
	}

	up := migrationHeader(slug, mf.Timestamp, description) +
		"\n-- Write your UP migration SQL here\n\n"
	if err := os.WriteFile(mf.UpPath, []byte(up), 0644); err != nil {
		return nil, fmt.Errorf("write up migration: %w", err)
	}

	down := migrationHeader(slug+" (Rollback)", mf.Timestamp, "Rollback for "+description) +
		"\n-- Write your DOWN migration SQL here\n\n"
	if err := os.WriteFile(mf.DownPath, []byte(down), 0644); err != nil {
		// Never leave a half pair behind, migrate treats it as a dirty source.
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("write down migration: %w", err)
	}

	return mf, nil
}

// migrationHeader renders the comment block every file under migrations/
// carries. Keep the three lines stable, they double as documentation when
// reading the directory straight from the repository.
func migrationHeader(name, timestamp, description string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Migration: %s\n", name)
	fmt.Fprintf(&b, "-- Created: %s\n", timestamp)
	fmt.Fprintf(&b, "-- Description: %s\n", description)
	return b.String()
}

// sanitizeName lowercases the name and collapses separators into single
// underscores so "Add Client Annotations" becomes add_client_annotations.
func sanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case r == ' ' || r == '-' || r == '_':
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// ListMigrations returns the base names of the migration pairs in
// migrationsDir, sorted by version. A missing directory is an empty list,
// not an error: a fresh checkout has no local migrations yet.
func ListMigrations(migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	migrations := make([]string, 0, len(entries)/2)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			migrations = append(migrations, base)
		}
	}
	sort.Strings(migrations)

	return migrations, nil
}
