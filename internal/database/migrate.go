package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// MigrationFiles lists the *.up.sql or *.down.sql files in dir in the order
// they must run: ascending for up, descending for down.
func MigrationFiles(dir, direction string) ([]string, error) {
	if direction != "up" && direction != "down" {
		return nil, fmt.Errorf("direction must be 'up' or 'down', got %q", direction)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migration directory: %w", err)
	}

	suffix := fmt.Sprintf(".%s.sql", direction)
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), suffix) {
			files = append(files, entry.Name())
		}
	}

	slices.Sort(files)
	if direction == "down" {
		slices.Reverse(files)
	}

	return files, nil
}

// Migrate runs every migration in dir for direction and calls onApply after
// each file. It returns the number of files applied.
func Migrate(ctx context.Context, db *sql.DB, dir, direction string, onApply func(name string)) (int, error) {
	files, err := MigrationFiles(dir, direction)
	if err != nil {
		return 0, err
	}

	for i, name := range files {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return i, fmt.Errorf("read migration file %s: %w", name, err)
		}

		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return i, fmt.Errorf("execute migration %s: %w", name, err)
		}
		if onApply != nil {
			onApply(name)
		}
	}

	return len(files), nil
}
