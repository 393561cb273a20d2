// Package cache provides thread-safe caching utilities with time-based expiration.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value  V
	stored time.Time
}

// TTLCache is a thread-safe cache whose entries expire individually, ttl
// after they were stored. A non-positive ttl disables expiry.
type TTLCache[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]entry[V]
	ttl  time.Duration
	now  func() time.Time

	hits   uint64
	misses uint64
}

// New creates a new TTLCache with the given TTL duration.
func New[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		data: make(map[K]entry[V]),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get retrieves a value from the cache.
// Returns zero value and ok=false if the key doesn't exist or has expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok || c.expiredLocked(e) {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return e.value, true
}

// Set stores a value in the cache, restarting its TTL.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data == nil {
		c.data = make(map[K]entry[V])
	}
	c.data[key] = entry[V]{value: value, stored: c.clock()}
}

// GetMany returns the live values for keys and the keys that missed.
func (c *TTLCache[K, V]) GetMany(keys []K) (map[K]V, []K) {
	found := make(map[K]V, len(keys))
	var missing []K
	for _, k := range keys {
		if v, ok := c.Get(k); ok {
			found[k] = v
		} else {
			missing = append(missing, k)
		}
	}
	return found, missing
}

// Delete removes a key.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Invalidate clears all cached data.
func (c *TTLCache[K, V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[K]entry[V])
}

// Len returns the number of items currently in the cache.
// This does not check expiration.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Stats returns hit and miss counts since the cache was created.
func (c *TTLCache[K, V]) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// expiredLocked MUST be called with at least a read lock held.
func (c *TTLCache[K, V]) expiredLocked(e entry[V]) bool {
	return c.ttl > 0 && c.clock().Sub(e.stored) >= c.ttl
}

func (c *TTLCache[K, V]) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}
