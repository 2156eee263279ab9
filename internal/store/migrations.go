package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RunMigrations executes the .sql files under dir in lexicographic order.
// Statements within a file are separated by ';'.
func (s *Store) RunMigrations(ctx context.Context, dir string) (int, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	sort.Strings(files)

	applied := 0
	for _, p := range files {
		b, err := os.ReadFile(p)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", p, err)
		}
		for _, chunk := range strings.Split(string(b), ";") {
			stmt := strings.TrimSpace(chunk)
			if stmt == "" {
				continue
			}
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return applied, fmt.Errorf("exec migration %s: %w", p, err)
			}
			applied++
		}
		s.logger.Debug().Str("file", p).Msg("migration applied")
	}
	return applied, nil
}
