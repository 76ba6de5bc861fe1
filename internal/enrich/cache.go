package enrich

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Entry is a cached extraction result. A nil Date and Description marks a
// negative result: the page was fetched (or failed) and yielded nothing.
type Entry struct {
	Date        *time.Time `json:"date,omitempty"`
	Description *string    `json:"description,omitempty"`
	Keywords    []string   `json:"keywords,omitempty"`
	CachedAt    time.Time  `json:"cached_at"`
}

// Fresh reports whether the entry is younger than ttl at now.
func (e *Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CachedAt) < ttl
}

// Cache stores extraction results keyed by URL. Freshness is decided by the
// enrichers, so implementations may keep entries past any TTL.
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, bool)
	Set(ctx context.Context, key string, entry Entry)
}

// Pruner is implemented by caches that keep entries in process memory and
// need stale ones dropped. Only keys starting with prefix are considered.
type Pruner interface {
	Prune(prefix string, cutoff time.Time) int
}

// Key namespaces cache keys per enricher so both can share one Cache.
func dateKey(url string) string        { return "posted:" + url }
func descriptionKey(url string) string { return "desc:" + url }

// MemoryCache is an in-process Cache safe for concurrent use.
type MemoryCache struct {
	entries sync.Map // key -> Entry
}

// NewMemoryCache returns an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) (*Entry, bool) {
	val, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	entry := val.(Entry)
	return &entry, true
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, entry Entry) {
	c.entries.Store(key, entry)
}

// Len returns the number of stored entries.
func (c *MemoryCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Prune drops entries under prefix cached before cutoff.
func (c *MemoryCache) Prune(prefix string, cutoff time.Time) int {
	removed := 0
	c.entries.Range(func(key, val any) bool {
		if strings.HasPrefix(key.(string), prefix) && val.(Entry).CachedAt.Before(cutoff) {
			c.entries.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

