// Package cache keeps snapshots of loaded metadata tables on disk, so that
// declaration files and assemblies are only decoded again when they change.
package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/podhmo/go-protected/metadata"
)

const (
	defaultCacheDirName  = ".go-protected"
	defaultCacheFileName = "metadata-cache.json"
)

// entry is the snapshot of the types loaded from one source file.
type entry struct {
	ModTime time.Time            `json:"modTime"`
	Size    int64                `json:"size"`
	Types   []*metadata.TypeInfo `json:"types"`
}

// TableCache manages metadata snapshots keyed by source file.
type TableCache struct {
	mu       sync.RWMutex
	entries  map[string]*entry // Key: source path relative to rootDir
	filePath string
	useCache bool
	rootDir  string
	logger   *slog.Logger
}

// DefaultPath returns the cache file location under the user's home directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, defaultCacheDirName, defaultCacheFileName), nil
}

// New creates a new TableCache.
//
// rootDir is the directory source paths are recorded relative to. cachePath
// is the cache file; if empty, caching is disabled and every lookup misses.
func New(rootDir, cachePath string, logger *slog.Logger) *TableCache {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	if rootDir != "" {
		// a relative root is fixed against the working directory at creation
		if abs, err := filepath.Abs(rootDir); err == nil {
			rootDir = abs
		}
	}
	return &TableCache{
		entries:  make(map[string]*entry),
		filePath: cachePath,
		useCache: cachePath != "",
		rootDir:  rootDir,
		logger:   logger,
	}
}

// Load reads the cache file. A missing file is not an error, and a corrupted
// one is replaced by an empty cache.
func (c *TableCache) Load() error {
	if !c.useCache {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			c.entries = make(map[string]*entry)
			return nil
		}
		return fmt.Errorf("failed to read cache file %s: %w", c.filePath, err)
	}
	if len(data) == 0 {
		c.entries = make(map[string]*entry)
		return nil
	}

	entries := make(map[string]*entry)
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Warn("failed to unmarshal cache file, starting with an empty cache", "path", c.filePath, "error", err)
		c.entries = make(map[string]*entry)
		return nil
	}
	c.entries = entries
	return nil
}

// Save writes the cache file, creating its directory if needed.
func (c *TableCache) Save() error {
	if !c.useCache {
		return nil
	}

	c.mu.RLock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	if err := os.WriteFile(c.filePath, data, 0640); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", c.filePath, err)
	}
	return nil
}

// Get returns a table rebuilt from the snapshot of sourcePath. The snapshot
// is dropped when the source file changed or vanished since it was taken.
func (c *TableCache) Get(sourcePath string) (*metadata.Table, bool) {
	if !c.useCache {
		return nil, false
	}
	key, err := c.key(sourcePath)
	if err != nil {
		return nil, false
	}

	c.mu.RLock()
	e, found := c.entries[key]
	c.mu.RUnlock()
	if !found {
		return nil, false
	}

	info, err := os.Stat(sourcePath)
	if err != nil || !info.ModTime().Equal(e.ModTime) || info.Size() != e.Size {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		c.logger.Debug("dropping stale cache entry", "source", key, "error", err)
		return nil, false
	}
	return metadata.NewTable(e.Types...), true
}

// Set records a snapshot of table for sourcePath.
func (c *TableCache) Set(sourcePath string, table *metadata.Table) error {
	if !c.useCache {
		return nil
	}
	key, err := c.key(sourcePath)
	if err != nil {
		return err
	}
	info, err := os.Stat(sourcePath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", sourcePath, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{ModTime: info.ModTime(), Size: info.Size(), Types: table.Types()}
	return nil
}

// LoadOrBuild returns the cached table of sourcePath, or builds it with build
// and records the result.
func (c *TableCache) LoadOrBuild(sourcePath string, build func(path string) (*metadata.Table, error)) (*metadata.Table, error) {
	if t, ok := c.Get(sourcePath); ok {
		return t, nil
	}
	t, err := build(sourcePath)
	if err != nil {
		return nil, err
	}
	if err := c.Set(sourcePath, t); err != nil {
		return nil, err
	}
	return t, nil
}

// key converts sourcePath to the slash-separated path relative to rootDir.
func (c *TableCache) key(sourcePath string) (string, error) {
	if c.rootDir == "" {
		return "", fmt.Errorf("rootDir is empty in TableCache, cannot key %s", sourcePath)
	}
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return "", fmt.Errorf("absolute path of %s: %w", sourcePath, err)
	}
	root, err := filepath.Abs(c.rootDir)
	if err != nil {
		return "", fmt.Errorf("resolve rootDir %s: %w", c.rootDir, err)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is not within the configured rootDir %s", sourcePath, c.rootDir)
	}
	return filepath.ToSlash(rel), nil
}

// Len returns the number of cached snapshots.
func (c *TableCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// FilePath returns the path to the cache file.
func (c *TableCache) FilePath() string {
	return c.filePath
}

// IsEnabled returns true if the cache is configured to be used.
func (c *TableCache) IsEnabled() bool {
	return c.useCache
}
