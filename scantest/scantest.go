// Package scantest is a test harness that writes declaration files to a
// temporary directory, loads them and hands the resulting table to a check.
package scantest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/podhmo/go-protected/metadata"
	"github.com/podhmo/go-protected/metadata/decl"
)

// ActionFunc is a function that performs a check on loaded metadata.
type ActionFunc func(ctx context.Context, table *metadata.Table) error

// Run loads the declaration files matching patterns (globs relative to dir)
// and runs action over the merged table.
func Run(t *testing.T, dir string, patterns []string, action ActionFunc) error {
	t.Helper()
	var paths []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("glob %q: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no declaration files match %v in %s", patterns, dir)
	}
	slices.Sort(paths)

	ctx := context.Background()
	table, err := decl.LoadFiles(ctx, paths...)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	if err := action(ctx, table); err != nil {
		return fmt.Errorf("action: %w", err)
	}
	return nil
}

// Load writes files to a temporary directory and loads every *.yaml file
// among them into one table. It fails the test on error.
func Load(t *testing.T, files map[string]string) *metadata.Table {
	t.Helper()
	dir, cleanup := WriteFiles(t, files)
	defer cleanup()

	var table *metadata.Table
	err := Run(t, dir, []string{"*.yaml", "*/*.yaml"}, func(ctx context.Context, tbl *metadata.Table) error {
		table = tbl
		return nil
	})
	if err != nil {
		t.Fatalf("scantest.Load: %v", err)
	}
	return table
}

// WriteFiles creates a temporary directory and populates it with initial files.
func WriteFiles(t *testing.T, files map[string]string) (string, func()) {
	t.Helper()
	dir := t.TempDir()

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("MkdirAll(%q): %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile(%q): %v", path, err)
		}
	}
	return dir, func() { /* t.TempDir handles cleanup */ }
}
