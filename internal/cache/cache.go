// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

// defaultCleanupInterval is how often expired entries are swept.
const defaultCleanupInterval = time.Minute

// entry represents a cached item with expiration
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Stats is a snapshot of cache performance counters.
type Stats struct {
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	Evictions   int64     `json:"evictions"`
	TotalKeys   int64     `json:"total_keys"`
	LastCleanup time.Time `json:"last_cleanup"`
}

// Options configures a Cache.
type Options struct {
	// TTL is the default lifetime of an entry. Zero means entries never expire.
	TTL time.Duration

	// MaxEntries bounds the number of live entries. When full, expired entries
	// are swept first and the entry closest to expiry is evicted next.
	// Zero means unbounded.
	MaxEntries int

	// CleanupInterval overrides the background sweep period.
	// A negative value disables the background sweep.
	CleanupInterval time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Cache is a thread-safe in-memory cache with TTL support.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	opts    Options

	hits        atomic.Int64
	misses      atomic.Int64
	evictions   atomic.Int64
	lastCleanup atomic.Int64

	stop      chan struct{}
	closeOnce sync.Once
}

// New creates a cache and starts its background cleanup goroutine.
// Call Close to stop the goroutine.
//
// Example:
//
//	c := cache.New[[]int64](cache.Options{TTL: 5 * time.Minute, MaxEntries: 10000})
//	defer c.Close()
//	c.Set("similar:42:3", ids)
//	if ids, ok := c.Get("similar:42:3"); ok {
//	    // Use cached ids
//	}
func New[V any](opts Options) *Cache[V] {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CleanupInterval == 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}

	c := &Cache[V]{
		entries: make(map[string]entry[V]),
		opts:    opts,
		stop:    make(chan struct{}),
	}
	c.lastCleanup.Store(opts.Now().UnixNano())

	if opts.CleanupInterval > 0 {
		go c.cleanupLoop(opts.CleanupInterval)
	}
	return c
}

// Get retrieves a value. Expired entries are removed and count as misses.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !exists {
		c.misses.Add(1)
		return zero, false
	}

	if c.expired(e, c.opts.Now()) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, ok := c.entries[key]; ok && c.expired(cur, c.opts.Now()) {
			delete(c.entries, key)
			c.evictions.Add(1)
		}
		c.mu.Unlock()
		c.misses.Add(1)
		return zero, false
	}

	c.hits.Add(1)
	return e.value, true
}

// Set stores a value with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.opts.TTL)
}

// SetWithTTL stores a value with a custom TTL. A non-positive TTL never expires.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	now := c.opts.Now()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.opts.MaxEntries > 0 && len(c.entries) >= c.opts.MaxEntries {
		c.makeRoomLocked(now)
	}
	c.entries[key] = entry[V]{value: value, expiresAt: expiresAt}
}

// Delete removes a specific entry.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.evictions.Add(1)
	}
	c.mu.Unlock()
}

// Clear removes all entries and returns how many were dropped.
func (c *Cache[V]) Clear() int {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()

	c.evictions.Add(int64(n))
	return n
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetStats returns a snapshot of current cache statistics.
func (c *Cache[V]) GetStats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Evictions:   c.evictions.Load(),
		TotalKeys:   int64(c.Len()),
		LastCleanup: time.Unix(0, c.lastCleanup.Load()),
	}
}

// HitRate returns the cache hit rate as a percentage
func (c *Cache[V]) HitRate() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total) * 100.0
}

// Close stops the background cleanup goroutine. It is safe to call more than once.
func (c *Cache[V]) Close() {
	c.closeOnce.Do(func() { close(c.stop) })
}

func (c *Cache[V]) expired(e entry[V], now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// makeRoomLocked frees one slot. Must be called with mu held.
func (c *Cache[V]) makeRoomLocked(now time.Time) {
	if c.sweepLocked(now) > 0 {
		return
	}

	var (
		victim   string
		earliest time.Time
		found    bool
	)
	for key, e := range c.entries {
		// Entries without expiry sort last.
		if !found || (!e.expiresAt.IsZero() && (earliest.IsZero() || e.expiresAt.Before(earliest))) {
			victim, earliest, found = key, e.expiresAt, true
		}
	}
	if found {
		delete(c.entries, victim)
		c.evictions.Add(1)
	}
}

// sweepLocked removes expired entries. Must be called with mu held.
func (c *Cache[V]) sweepLocked(now time.Time) int {
	removed := 0
	for key, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, key)
			removed++
		}
	}
	c.evictions.Add(int64(removed))
	return removed
}

// cleanupLoop periodically removes expired entries
func (c *Cache[V]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

// cleanup removes all expired entries
func (c *Cache[V]) cleanup() {
	now := c.opts.Now()
	c.mu.Lock()
	c.sweepLocked(now)
	c.mu.Unlock()
	c.lastCleanup.Store(now.UnixNano())
}

// GenerateKey creates a cache key from a prefix and parameters
func GenerateKey(prefix string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Fallback to simple string key
		return fmt.Sprintf("%s:%v", prefix, params)
	}

	// Hash the JSON data for a compact key
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", prefix, hash[:16])
}
