package hardening

import (
	"container/list"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultHashCacheSize bounds the number of cached digests.
const DefaultHashCacheSize = 500

// HashCacheStats contains cache performance counters.
type HashCacheStats struct {
	Hits      int64
	Misses    int64
	Size      int
	Evictions int64
}

type hashEntry struct {
	key    string
	digest string
}

// HashCache memoizes file content digests. Entries are keyed by path,
// size, and modification time, so an edited file never serves a stale
// digest. Least recently used entries are evicted once the cache is
// full.
type HashCache struct {
	mu        sync.Mutex
	maxSize   int
	entries   map[string]*list.Element
	order     *list.List // front = most recently used
	hits      int64
	misses    int64
	evictions int64
}

// NewHashCache creates a cache holding at most maxSize digests.
// Non-positive maxSize falls back to DefaultHashCacheSize.
func NewHashCache(maxSize int) *HashCache {
	if maxSize <= 0 {
		maxSize = DefaultHashCacheSize
	}
	return &HashCache{
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// FileDigest returns the xxHash digest of the file's content,
// hex-encoded. Unchanged files are served from the cache.
func (c *HashCache) FileDigest(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s:%d:%d", path, info.Size(), info.ModTime().UnixNano())

	c.mu.Lock()
	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		c.hits++
		digest := elem.Value.(*hashEntry).digest
		c.mu.Unlock()
		return digest, nil
	}
	c.misses++
	c.mu.Unlock()

	digest, err := hashFile(path)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = c.order.PushFront(&hashEntry{key: key, digest: digest})
		if c.order.Len() > c.maxSize {
			oldest := c.order.Back()
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*hashEntry).key)
			c.evictions++
		}
	}
	return digest, nil
}

// Stats returns a snapshot of the cache counters.
func (c *HashCache) Stats() HashCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return HashCacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Size:      c.order.Len(),
		Evictions: c.evictions,
	}
}

// Clear removes all cached digests.
func (c *HashCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
