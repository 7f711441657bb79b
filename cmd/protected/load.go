package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/podhmo/go-protected/cache"
	"github.com/podhmo/go-protected/metadata"
	"github.com/podhmo/go-protected/metadata/decl"
	"github.com/podhmo/go-protected/metadata/winmd"
)

// loadTable reads every configured metadata source into one table. With a
// cache file, each source is decoded only when it changed since the last run.
func loadTable(ctx context.Context, opts *options, logger *slog.Logger) (*metadata.Table, error) {
	if len(opts.declFiles) == 0 && opts.winmdFile == "" {
		return nil, errors.New("no metadata source, use --decl or --winmd")
	}

	tc := cache.New(opts.rootDir, opts.cacheFile, logger)
	if err := tc.Load(); err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}

	table := metadata.NewTable()
	if tc.IsEnabled() {
		for _, path := range opts.declFiles {
			t, err := tc.LoadOrBuild(path, decl.Load)
			if err != nil {
				return nil, err
			}
			table.Merge(t)
		}
	} else if len(opts.declFiles) > 0 {
		t, err := decl.LoadFiles(ctx, opts.declFiles...)
		if err != nil {
			return nil, err
		}
		table.Merge(t)
	}

	if opts.winmdFile != "" {
		t, err := tc.LoadOrBuild(opts.winmdFile, func(path string) (*metadata.Table, error) {
			return winmd.Load(path, logger)
		})
		if err != nil {
			return nil, err
		}
		table.Merge(t)
	}

	if err := tc.Save(); err != nil {
		logger.WarnContext(ctx, "failed to save cache", "path", tc.FilePath(), "error", err)
	}
	return table, nil
}
