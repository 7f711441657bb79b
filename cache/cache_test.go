package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/podhmo/go-protected/metadata"
)

func sampleTable() *metadata.Table {
	return metadata.NewTable(&metadata.TypeInfo{
		Name:      "Service",
		Namespace: "Acme",
		Kind:      metadata.ClassKind,
		Methods: []*metadata.MethodInfo{
			{Name: "Run", Parameters: []*metadata.ParamInfo{{Name: "n", Type: metadata.Int}}, Result: metadata.Void, Visibility: metadata.Protected, Virtual: true},
		},
		Properties: []*metadata.PropertyInfo{
			{Name: "Secret", Type: metadata.String, Getter: &metadata.AccessorInfo{Visibility: metadata.Protected}},
		},
	})
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%q): %v", path, err)
	}
	return path
}

func TestDisabled(t *testing.T) {
	c := New(t.TempDir(), "", nil)
	if c.IsEnabled() {
		t.Error("expected cache to be disabled")
	}
	if err := c.Set("whatever.yaml", sampleTable()); err != nil {
		t.Errorf("Set() on a disabled cache failed: %v", err)
	}
	if _, ok := c.Get("whatever.yaml"); ok {
		t.Error("expected a miss on a disabled cache")
	}
	if err := c.Save(); err != nil {
		t.Errorf("Save() on a disabled cache failed: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	root := t.TempDir()
	source := writeSource(t, root, "types.yaml", "version: v1\n")
	cachePath := filepath.Join(root, ".cache", "metadata.json")

	c := New(root, cachePath, nil)
	if err := c.Set(source, sampleTable()); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := c.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	reloaded := New(root, cachePath, nil)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	got, ok := reloaded.Get(source)
	if !ok {
		t.Fatal("expected a hit after reload")
	}
	if diff := cmp.Diff(sampleTable().Types(), got.Types(), cmpopts.IgnoreUnexported(metadata.TypeInfo{})); diff != "" {
		t.Errorf("cached types mismatch (-want +got):\n%s", diff)
	}
}

func TestStaleEntryIsDropped(t *testing.T) {
	root := t.TempDir()
	source := writeSource(t, root, "types.yaml", "version: v1\n")

	c := New(root, filepath.Join(root, "cache.json"), nil)
	if err := c.Set(source, sampleTable()); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(source, later, later); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if _, ok := c.Get(source); ok {
		t.Error("expected a miss for a modified source")
	}
	if c.Len() != 0 {
		t.Errorf("expected the stale entry to be removed, %d left", c.Len())
	}
}

func TestLoadOrBuild(t *testing.T) {
	root := t.TempDir()
	source := writeSource(t, root, "types.yaml", "version: v1\n")
	c := New(root, filepath.Join(root, "cache.json"), nil)

	builds := 0
	build := func(path string) (*metadata.Table, error) {
		builds++
		return sampleTable(), nil
	}
	for i := 0; i < 3; i++ {
		table, err := c.LoadOrBuild(source, build)
		if err != nil {
			t.Fatalf("LoadOrBuild() failed: %v", err)
		}
		if _, ok := table.Lookup("Acme.Service"); !ok {
			t.Fatal("Acme.Service not found")
		}
	}
	if builds != 1 {
		t.Errorf("expected build to be called 1 time, but was called %d times", builds)
	}
}

func TestCorruptedCacheFile(t *testing.T) {
	root := t.TempDir()
	cachePath := writeSource(t, root, "cache.json", "{not json")
	c := New(root, cachePath, nil)
	if err := c.Load(); err != nil {
		t.Fatalf("Load() should recover from a corrupted file, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("expected an empty cache, got %d entries", c.Len())
	}
}

func TestPathOutsideRoot(t *testing.T) {
	root := t.TempDir()
	other := writeSource(t, t.TempDir(), "types.yaml", "version: v1\n")
	c := New(root, filepath.Join(root, "cache.json"), nil)
	if err := c.Set(other, sampleTable()); err == nil {
		t.Error("expected an error for a source outside rootDir")
	}
}

func TestRelativeRoot(t *testing.T) {
	root := t.TempDir()
	source := writeSource(t, root, "types.yaml", "version: v1\n")
	t.Chdir(root)

	c := New(".", "cache.json", nil)
	builds := 0
	build := func(path string) (*metadata.Table, error) {
		builds++
		return sampleTable(), nil
	}
	for _, path := range []string{"types.yaml", source} {
		if _, err := c.LoadOrBuild(path, build); err != nil {
			t.Fatalf("LoadOrBuild(%q) failed: %v", path, err)
		}
	}
	if builds != 1 {
		t.Errorf("expected relative and absolute paths to share an entry, build was called %d times", builds)
	}
	if diff := cmp.Diff(1, c.Len()); diff != "" {
		t.Errorf("Len() mismatch (-want +got):\n%s", diff)
	}
}
