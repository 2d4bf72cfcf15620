package document

import (
	"fmt"
	"os"
	"sync"
	"time"

	apperrors "github.com/ironsheep/shelfscan/internal/errors"
)

// DefaultCacheEntries is the number of rasterized documents a Cache keeps.
const DefaultCacheEntries = 8

type cacheKey struct {
	path string
	dpi  int
}

type cacheEntry struct {
	size    int64
	modTime time.Time
	pages   []Page
}

// Cache keeps rasterized documents in memory keyed by path and resolution,
// so repeated tool calls against the same file skip decoding and PDF rendering.
//
// An entry is only served while the file's size and modification time match
// the ones seen when it was loaded. At most max entries are kept; the oldest
// is dropped first.
type Cache struct {
	mu      sync.Mutex
	max     int
	entries map[cacheKey]*cacheEntry
	order   []cacheKey
}

// NewCache creates an empty cache holding up to max documents. Values < 1
// use DefaultCacheEntries.
func NewCache(max int) *Cache {
	if max < 1 {
		max = DefaultCacheEntries
	}
	return &Cache{
		max:     max,
		entries: make(map[cacheKey]*cacheEntry),
	}
}

// Load returns the cached pages for path at dpi, loading them on a miss or
// when the file changed. Failed loads are not cached and drop every entry
// for path.
func (c *Cache) Load(path string, dpi int) ([]Page, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	key := cacheKey{path: path, dpi: dpi}

	info, err := os.Stat(path)
	if err != nil {
		c.Evict(path)
		return nil, apperrors.NewInputFormatError(fmt.Sprintf("cannot open %s", path), err)
	}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
		c.mu.Unlock()
		return e.pages, nil
	}
	c.mu.Unlock()

	pages, err := Load(path, dpi)
	if err != nil {
		c.Evict(path)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = &cacheEntry{size: info.Size(), modTime: info.ModTime(), pages: pages}
	for len(c.order) > c.max {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
	return pages, nil
}

// Evict removes every cached resolution of path.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.order[:0]
	for _, k := range c.order {
		if k.path == path {
			delete(c.entries, k)
			continue
		}
		kept = append(kept, k)
	}
	c.order = kept
}
