package perf

import (
	"sync"
	"time"
)

// QueryCache is a bounded in-memory TTL cache. Entries expire on read once
// past their TTL; when the cache is full the oldest inserted key is evicted
// (FIFO, not LRU; a read does not refresh an entry's position).
type QueryCache struct {
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	order    []string
	capacity int
}

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// NewQueryCache creates a cache holding at most capacity entries.
func NewQueryCache(capacity int) *QueryCache {
	if capacity <= 0 {
		capacity = 64
	}
	return &QueryCache{
		entries:  make(map[string]*cacheEntry),
		capacity: capacity,
	}
}

// Get returns the cached value for key, or false if absent or expired.
// Expired entries are removed on read.
func (c *QueryCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.remove(key)
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key with the given TTL, evicting the oldest
// inserted key if the cache is at capacity.
func (c *QueryCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		// Overwrite keeps the original insertion position.
		c.entries[key] = &cacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
		return
	}

	if len(c.entries) >= c.capacity && len(c.order) > 0 {
		c.remove(c.order[0])
	}

	c.entries[key] = &cacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
	c.order = append(c.order, key)
}

// Delete removes a key from the cache.
func (c *QueryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(key)
}

// Clear empties the cache.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
}

// Len returns the number of entries, including not-yet-collected expired ones.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// remove must be called with the lock held.
func (c *QueryCache) remove(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
