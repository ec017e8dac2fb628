// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// manualClock is a settable clock for deterministic expiry.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (m *manualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *manualClock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

func newTestCache(t *testing.T, opts Options) (*Cache[string], *manualClock) {
	t.Helper()
	clock := &manualClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	opts.Now = clock.Now
	opts.CleanupInterval = -1
	c := New[string](opts)
	t.Cleanup(c.Close)
	return c, clock
}

func TestCacheBasicOperations(t *testing.T) {
	c, _ := newTestCache(t, Options{TTL: time.Minute})

	c.Set("key1", "value1")
	value, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist")
	}
	if value != "value1" {
		t.Errorf("Expected value1, got %v", value)
	}

	if _, exists = c.Get("key2"); exists {
		t.Error("Expected key2 to not exist")
	}
}

func TestCacheExpiration(t *testing.T) {
	c, clock := newTestCache(t, Options{TTL: 100 * time.Millisecond})

	c.Set("key1", "value1")
	if _, exists := c.Get("key1"); !exists {
		t.Error("Expected key1 to exist immediately after set")
	}

	clock.Advance(150 * time.Millisecond)

	if _, exists := c.Get("key1"); exists {
		t.Error("Expected key1 to be expired")
	}
	if c.Len() != 0 {
		t.Errorf("Expected expired entry to be removed, Len() = %d", c.Len())
	}
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	c, clock := newTestCache(t, Options{})

	c.Set("key1", "value1")
	clock.Advance(365 * 24 * time.Hour)

	if _, exists := c.Get("key1"); !exists {
		t.Error("Expected entry without TTL to survive")
	}
}

func TestCacheSetWithTTL(t *testing.T) {
	c, clock := newTestCache(t, Options{TTL: time.Hour})

	c.SetWithTTL("short", "v", time.Second)
	c.Set("long", "v")
	clock.Advance(2 * time.Second)

	if _, ok := c.Get("short"); ok {
		t.Error("Expected short-lived entry to expire")
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("Expected default TTL entry to survive")
	}
}

func TestCacheDelete(t *testing.T) {
	c, _ := newTestCache(t, Options{TTL: time.Minute})

	c.Set("key1", "value1")
	c.Delete("key1")
	c.Delete("missing")

	if _, exists := c.Get("key1"); exists {
		t.Error("Expected key1 to be deleted")
	}
	if got := c.GetStats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

func TestCacheClear(t *testing.T) {
	c, _ := newTestCache(t, Options{TTL: time.Minute})

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	if n := c.Clear(); n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	for _, key := range []string{"key1", "key2", "key3"} {
		if _, exists := c.Get(key); exists {
			t.Errorf("Expected %s to be cleared", key)
		}
	}
}

func TestCacheMaxEntries(t *testing.T) {
	t.Run("evicts soonest to expire", func(t *testing.T) {
		c, _ := newTestCache(t, Options{TTL: time.Hour, MaxEntries: 2})

		c.SetWithTTL("a", "1", time.Minute)
		c.SetWithTTL("b", "2", time.Hour)
		c.Set("c", "3")

		if c.Len() != 2 {
			t.Fatalf("Len() = %d, want 2", c.Len())
		}
		if _, ok := c.Get("a"); ok {
			t.Error("Expected a to be evicted")
		}
		if _, ok := c.Get("b"); !ok {
			t.Error("Expected b to survive")
		}
	})

	t.Run("sweeps expired first", func(t *testing.T) {
		c, clock := newTestCache(t, Options{TTL: time.Hour, MaxEntries: 2})

		c.SetWithTTL("a", "1", time.Second)
		c.Set("b", "2")
		clock.Advance(2 * time.Second)
		c.Set("c", "3")

		if _, ok := c.Get("b"); !ok {
			t.Error("Expected b to survive when an expired entry could be swept")
		}
	})

	t.Run("overwrite does not evict", func(t *testing.T) {
		c, _ := newTestCache(t, Options{TTL: time.Hour, MaxEntries: 2})

		c.Set("a", "1")
		c.Set("b", "2")
		c.Set("a", "3")

		if v, _ := c.Get("a"); v != "3" {
			t.Errorf("a = %q, want 3", v)
		}
		if _, ok := c.Get("b"); !ok {
			t.Error("Expected b to survive an overwrite of a")
		}
	})
}

func TestCacheStats(t *testing.T) {
	c, _ := newTestCache(t, Options{TTL: time.Minute})

	c.Set("key1", "value1")
	c.Get("key1")
	c.Get("key1")
	c.Get("missing")

	stats := c.GetStats()
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.TotalKeys != 1 {
		t.Errorf("TotalKeys = %d, want 1", stats.TotalKeys)
	}

	rate := c.HitRate()
	if rate < 66.6 || rate > 66.7 {
		t.Errorf("HitRate() = %f, want ~66.67", rate)
	}
}

func TestCacheHitRateEmpty(t *testing.T) {
	c, _ := newTestCache(t, Options{})
	if c.HitRate() != 0 {
		t.Errorf("HitRate() = %f, want 0", c.HitRate())
	}
}

func TestCacheCleanup(t *testing.T) {
	c, clock := newTestCache(t, Options{TTL: time.Second})

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("key%d", i), "v")
	}
	clock.Advance(2 * time.Second)
	c.Set("fresh", "v")

	c.cleanup()

	if c.Len() != 1 {
		t.Errorf("Len() after cleanup = %d, want 1", c.Len())
	}
	stats := c.GetStats()
	if stats.Evictions != 5 {
		t.Errorf("Evictions = %d, want 5", stats.Evictions)
	}
	if !stats.LastCleanup.Equal(clock.Now()) {
		t.Errorf("LastCleanup = %v, want %v", stats.LastCleanup, clock.Now())
	}
}

func TestCacheCloseIsIdempotent(t *testing.T) {
	c := New[int](Options{TTL: time.Minute, CleanupInterval: time.Millisecond})
	c.Close()
	c.Close()
}

func TestCacheConcurrentAccess(t *testing.T) {
	c, _ := newTestCache(t, Options{TTL: time.Minute, MaxEntries: 50})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key%d-%d", id, j%20)
				c.Set(key, "v")
				c.Get(key)
				if j%25 == 0 {
					c.Delete(key)
				}
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Len() = %d, exceeds MaxEntries", c.Len())
	}
}

func TestGenerateKey(t *testing.T) {
	type params struct {
		Version int   `json:"version"`
		ID      int64 `json:"id"`
		Limit   int   `json:"limit"`
	}

	k1 := GenerateKey("similar", params{Version: 1, ID: 42, Limit: 3})
	k2 := GenerateKey("similar", params{Version: 1, ID: 42, Limit: 3})
	k3 := GenerateKey("similar", params{Version: 2, ID: 42, Limit: 3})

	if k1 != k2 {
		t.Errorf("Expected identical params to give identical keys: %s vs %s", k1, k2)
	}
	if k1 == k3 {
		t.Error("Expected different versions to give different keys")
	}
	if len(k1) != len("similar:")+32 {
		t.Errorf("Unexpected key length %d for %s", len(k1), k1)
	}

	// Unmarshalable params fall back to a formatted key.
	if got := GenerateKey("x", make(chan int)); got[:2] != "x:" {
		t.Errorf("GenerateKey() fallback = %s", got)
	}
}
