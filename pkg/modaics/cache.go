package modaics

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// responseCache is a short-TTL in-memory cache for search and feed
// responses. Eviction is deliberately simple: expired entries are dropped
// lazily on read, and inserting past the count threshold prunes expired
// entries first, then arbitrary ones down to the cap. No LRU tracking.
type responseCache struct {
	ttl time.Duration
	max int
	now func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

func newResponseCache(ttl time.Duration, max int) *responseCache {
	if max <= 0 {
		max = 100
	}
	return &responseCache{
		ttl:     ttl,
		max:     max,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// get returns the cached value, or nil if absent or expired.
func (c *responseCache) get(key string) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil
	}
	return entry.value
}

func (c *responseCache) put(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.max {
		c.prune()
	}

	c.entries[key] = cacheEntry{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
}

// prune drops expired entries, then arbitrary entries until under the cap.
// Caller holds the lock.
func (c *responseCache) prune() {
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	for k := range c.entries {
		if len(c.entries) < c.max {
			break
		}
		delete(c.entries, k)
	}
}

func (c *responseCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// cacheKey derives a stable key from a query string and its parameters.
func cacheKey(parts ...string) string {
	return strings.Join(parts, "|")
}

// cacheKeyParams derives a stable key from a parameter map.
func cacheKeyParams(prefix string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(prefix)
	for _, k := range keys {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(params[k])
	}
	return b.String()
}
