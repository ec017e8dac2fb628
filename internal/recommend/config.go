// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package recommend

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tomtom215/inkpost/internal/recommend/vectorizer"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Vectorizer controls vocabulary selection during rebuilds.
	Vectorizer vectorizer.Config `json:"vectorizer"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Cache contains caching parameters for similarity results.
	Cache CacheConfig `json:"cache"`

	// Rebuild contains rebuild parameters.
	Rebuild RebuildConfig `json:"rebuild"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultSimilar is the similar-posts limit used when a caller passes none.
	// Default: 3.
	DefaultSimilar int `json:"default_similar"`

	// DefaultRecommendations is the recommendations limit used when a caller passes none.
	// Default: 5.
	DefaultRecommendations int `json:"default_recommendations"`

	// MaxLimit caps every requested limit.
	// Default: 50.
	MaxLimit int `json:"max_limit"`

	// SeedSimilar is how many similar ids are requested per interaction seed.
	// Default: 2.
	SeedSimilar int `json:"seed_similar"`

	// FanOut bounds concurrent per-seed similarity lookups.
	// Default: 4.
	FanOut int `json:"fan_out"`
}

// CacheConfig contains caching parameters.
type CacheConfig struct {
	// Enabled controls whether similarity results are cached.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 5m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached entries.
	// Default: 10000.
	MaxEntries int `json:"max_entries"`
}

// RebuildConfig contains rebuild parameters.
type RebuildConfig struct {
	// Timeout bounds a single rebuild (extract, fit, save).
	// Default: 2m.
	Timeout time.Duration `json:"timeout"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Vectorizer: vectorizer.DefaultConfig(),
		Limits: LimitsConfig{
			DefaultSimilar:         3,
			DefaultRecommendations: 5,
			MaxLimit:               50,
			SeedSimilar:            2,
			FanOut:                 4,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
		},
		Rebuild: RebuildConfig{
			Timeout: 2 * time.Minute,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Vectorizer.Validate(); err != nil {
		return fmt.Errorf("vectorizer: %w", err)
	}

	if c.Limits.DefaultSimilar < 1 {
		return fmt.Errorf("limits.default_similar must be positive, got %d", c.Limits.DefaultSimilar)
	}
	if c.Limits.DefaultRecommendations < 1 {
		return fmt.Errorf("limits.default_recommendations must be positive, got %d", c.Limits.DefaultRecommendations)
	}
	if c.Limits.MaxLimit < c.Limits.DefaultSimilar || c.Limits.MaxLimit < c.Limits.DefaultRecommendations {
		return fmt.Errorf("limits.max_limit must be >= both defaults, got %d", c.Limits.MaxLimit)
	}
	if c.Limits.SeedSimilar < 1 {
		return fmt.Errorf("limits.seed_similar must be positive, got %d", c.Limits.SeedSimilar)
	}
	if c.Limits.FanOut < 1 {
		return fmt.Errorf("limits.fan_out must be positive, got %d", c.Limits.FanOut)
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when caching is enabled, got %v", c.Cache.TTL)
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must be non-negative, got %d", c.Cache.MaxEntries)
	}

	if c.Rebuild.Timeout <= 0 {
		return fmt.Errorf("rebuild.timeout must be positive, got %v", c.Rebuild.Timeout)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs hold value types only.
	clone := *c
	return &clone
}

// MarshalJSON renders durations as strings.
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	return json.Marshal(&struct {
		*Alias
		Cache struct {
			Enabled    bool   `json:"enabled"`
			TTL        string `json:"ttl"`
			MaxEntries int    `json:"max_entries"`
		} `json:"cache"`
		Rebuild struct {
			Timeout string `json:"timeout"`
		} `json:"rebuild"`
	}{
		Alias: (*Alias)(c),
		Cache: struct {
			Enabled    bool   `json:"enabled"`
			TTL        string `json:"ttl"`
			MaxEntries int    `json:"max_entries"`
		}{
			Enabled:    c.Cache.Enabled,
			TTL:        c.Cache.TTL.String(),
			MaxEntries: c.Cache.MaxEntries,
		},
		Rebuild: struct {
			Timeout string `json:"timeout"`
		}{
			Timeout: c.Rebuild.Timeout.String(),
		},
	})
}
