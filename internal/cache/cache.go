// Package cache memoizes expensive fetches for a fixed validity window.
// It is purely a performance layer; every caller behaves identically, just
// slower, when a cache is bypassed.
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes producer results by key. Entries are published whole under
// the lock, so a reader never observes a partially-built value, and
// concurrent misses for one key share a single producer flight.
type Cache[T any] struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]entry[T]
}

type entry[T any] struct {
	value      T
	producedAt time.Time
}

// New creates a cache whose entries stay valid for ttl after production.
func New[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[T]),
	}
}

// GetOrCompute returns the cached value for key while it is fresh.
// On a miss or expiry it runs produce synchronously, stores the result, and
// returns it. Producer errors are returned to every waiting caller and are
// not cached, so the next render retries.
func (c *Cache[T]) GetOrCompute(key string, produce func() (T, error)) (T, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A concurrent flight may have filled the entry while this caller
		// waited on the group.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}

		val, err := produce()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = entry[T]{value: val, producedAt: c.now()}
		c.mu.Unlock()
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Len reports the number of stored entries, fresh or expired.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[T]) lookup(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.producedAt) >= c.ttl {
		var zero T
		return zero, false
	}
	return e.value, true
}
