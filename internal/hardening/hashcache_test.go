package hardening

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHashCacheHitOnUnchangedFile(t *testing.T) {
	cache := NewHashCache(10)
	path := writeTemp(t, "a.jpg", "hello world")

	first, err := cache.FileDigest(path)
	if err != nil {
		t.Fatalf("FileDigest: %v", err)
	}
	second, err := cache.FileDigest(path)
	if err != nil {
		t.Fatalf("FileDigest: %v", err)
	}
	if first != second {
		t.Errorf("digests differ: %q vs %q", first, second)
	}

	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit and 1 miss", stats)
	}
}

func TestHashCacheMissAfterModification(t *testing.T) {
	cache := NewHashCache(10)
	path := writeTemp(t, "a.jpg", "original")

	before, err := cache.FileDigest(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("rewritten"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Push the mtime forward in case the filesystem clock is coarse.
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}

	after, err := cache.FileDigest(path)
	if err != nil {
		t.Fatal(err)
	}
	if before == after {
		t.Error("modified file served the cached digest")
	}

	stats := cache.Stats()
	if stats.Misses != 2 {
		t.Errorf("Misses = %d, want 2", stats.Misses)
	}
}

func TestHashCacheSameContentSameDigest(t *testing.T) {
	cache := NewHashCache(10)
	a := writeTemp(t, "a.png", "identical bytes")
	b := writeTemp(t, "b.png", "identical bytes")

	da, err := cache.FileDigest(a)
	if err != nil {
		t.Fatal(err)
	}
	db, err := cache.FileDigest(b)
	if err != nil {
		t.Fatal(err)
	}
	if da != db {
		t.Errorf("identical content hashed differently: %q vs %q", da, db)
	}
}

func TestHashCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewHashCache(2)
	dir := t.TempDir()

	paths := make([]string, 3)
	for i, name := range []string{"a", "b", "c"} {
		paths[i] = filepath.Join(dir, name+".jpg")
		if err := os.WriteFile(paths[i], []byte(name), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	for _, p := range paths {
		if _, err := cache.FileDigest(p); err != nil {
			t.Fatal(err)
		}
	}

	stats := cache.Stats()
	if stats.Size != 2 {
		t.Errorf("Size = %d, want 2", stats.Size)
	}
	if stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}
}

func TestHashCacheMissingFile(t *testing.T) {
	cache := NewHashCache(10)
	if _, err := cache.FileDigest(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("FileDigest succeeded on a missing file")
	}
}

func TestHashCacheClear(t *testing.T) {
	cache := NewHashCache(10)
	path := writeTemp(t, "a.jpg", "content")

	if _, err := cache.FileDigest(path); err != nil {
		t.Fatal(err)
	}
	cache.Clear()
	if got := cache.Stats().Size; got != 0 {
		t.Errorf("Size after Clear = %d, want 0", got)
	}
}
