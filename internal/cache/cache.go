// Package cache provides the in-memory quote cache. It is a pure
// performance cache for upstream rate-limit protection; nothing in it
// survives a process restart.
package cache

import (
	"sync"
	"time"
)

// Key namespaces. Typed constructors keep per-symbol price entries,
// per-symbol fundamentals entries, and the snapshot entry from colliding.
const (
	pricePrefix        = "price:"
	fundamentalsPrefix = "fundamentals:"
	snapshotKey        = "portfolio:snapshot"
)

// PriceKey returns the cache key for a symbol's current market price.
func PriceKey(symbol string) string {
	return pricePrefix + symbol
}

// FundamentalsKey returns the cache key for a symbol's fundamentals.
func FundamentalsKey(symbol string) string {
	return fundamentalsPrefix + symbol
}

// SnapshotKey returns the cache key for the whole-portfolio snapshot.
func SnapshotKey() string {
	return snapshotKey
}

type entry struct {
	value     any
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Cache is a mutex-guarded TTL key/value store. Expired entries behave as
// absent on read; a background janitor sweeps them out periodically so the
// map does not grow unbounded between reads.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// Option configures the cache
type Option func(*Cache)

// WithDefaultTTL sets the TTL applied when Set is called with ttl <= 0.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.defaultTTL = ttl
	}
}

// New creates a cache and starts its janitor. sweepInterval <= 0 disables
// the sweep; lazy expiry on read still applies.
func New(sweepInterval time.Duration, opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]entry),
		defaultTTL: 5 * time.Minute,
		stop:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	if sweepInterval > 0 {
		go c.janitor(sweepInterval)
	}

	return c
}

// Get returns the value for key, or false if absent or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if e.expired(time.Now()) {
		c.mu.Lock()
		// Re-check under the write lock; another writer may have replaced it.
		if cur, ok := c.entries[key]; ok && cur.expired(time.Now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key. ttl <= 0 applies the default TTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Delete removes a single key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Flush removes every entry.
func (c *Cache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len returns the number of unexpired entries.
func (c *Cache) Len() int {
	now := time.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, e := range c.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

// Close stops the janitor. The cache remains usable afterwards.
func (c *Cache) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Cache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()

	c.mu.Lock()
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}
