// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package config

import (
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every setting
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any mapped setting
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	db, err := database.New(&cfg.Database)
//
// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
	Recommend RecommendConfig `koanf:"recommend"`
	Events    EventsConfig    `koanf:"events"`
}

// DatabaseConfig holds DuckDB settings.
//
// Environment Variables:
//   - DUCKDB_PATH: Database file path, or ":memory:" (default: /data/inkpost.duckdb)
//   - DUCKDB_MAX_MEMORY: DuckDB memory limit (default: 1GB)
//   - DUCKDB_THREADS: Worker threads, 0 for one per CPU (default: 0)
//   - SEED_DEMO_DATA: Insert demo posts into an empty database (default: false)
type DatabaseConfig struct {
	Path                   string        `koanf:"path"`
	MaxMemory              string        `koanf:"max_memory"`
	Threads                int           `koanf:"threads"`
	PreserveInsertionOrder bool          `koanf:"preserve_insertion_order"`
	SeedDemoData           bool          `koanf:"seed_demo_data"`
	Breaker                BreakerConfig `koanf:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of the document store.
//
// Environment Variables:
//   - DB_BREAKER_FAILURES: Consecutive failures that open the breaker (default: 5)
//   - DB_BREAKER_TIMEOUT: Open duration before probing again (default: 30s)
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests"`      // Trial requests allowed while half-open
	Interval         time.Duration `koanf:"interval"`          // Closed-state count reset period, 0 never resets
	Timeout          time.Duration `koanf:"timeout"`           // Open duration before half-open
	FailureThreshold uint32        `koanf:"failure_threshold"` // Consecutive failures that trip the breaker
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_PORT: Listen port (default: 8080)
//   - HTTP_HOST: Listen address (default: 0.0.0.0)
//   - HTTP_TIMEOUT: Per-request handler timeout (default: 30s)
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds CORS and rate limiting settings.
//
// Environment Variables:
//   - CORS_ORIGINS: Comma-separated allowed origins (default: *)
//   - RATE_LIMIT_REQUESTS: Requests per window per client IP (default: 100)
//   - RATE_LIMIT_WINDOW: Rate limit window (default: 1m)
//   - DISABLE_RATE_LIMIT: Disable per-IP rate limiting (default: false)
//   - REBUILD_RATE_INTERVAL: Minimum spacing of manual rebuilds (default: 1m)
type SecurityConfig struct {
	CORSOrigins         []string      `koanf:"cors_origins"`
	RateLimitReqs       int           `koanf:"rate_limit_reqs"`
	RateLimitWindow     time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled   bool          `koanf:"rate_limit_disabled"`
	RebuildRateInterval time.Duration `koanf:"rebuild_rate_interval"`
	RebuildRateBurst    int           `koanf:"rebuild_rate_burst"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json or console (default: json)
//   - LOG_CALLER: Include caller file and line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Store backends for the recommendation model.
const (
	StoreBackendFile   = "file"
	StoreBackendBadger = "badger"
)

// RecommendConfig holds the content recommendation settings.
//
// Environment Variables:
//   - RECOMMEND_MAX_FEATURES: Vocabulary cap (default: 5000)
//   - RECOMMEND_MIN_DF: Minimum document frequency of a term (default: 2)
//   - RECOMMEND_NGRAM_MAX: Longest n-gram in the vocabulary (default: 2)
//   - RECOMMEND_STOP_WORDS: "english" or "none" (default: english)
//   - RECOMMEND_MODEL_EXPIRY: Age after which the model is stale (default: 24h)
//   - RECOMMEND_MODEL_PATH: Model store directory (default: /data/models)
//   - RECOMMEND_STORE_BACKEND: file or badger (default: file)
//   - RECOMMEND_KEEP_VERSIONS: File store bundles kept after a save (default: 3)
//   - RECOMMEND_REBUILD_TIMEOUT: Upper bound on one rebuild (default: 2m)
//   - RECOMMEND_TRAIN_INTERVAL: Scheduled staleness check period (default: 1h)
//   - RECOMMEND_TRAIN_ON_STARTUP: Rebuild a stale model at startup (default: true)
type RecommendConfig struct {
	MaxFeatures int    `koanf:"max_features"`
	MinDF       int    `koanf:"min_df"`
	NgramMax    int    `koanf:"ngram_max"`
	StopWords   string `koanf:"stop_words"`

	ModelExpiry    time.Duration `koanf:"model_expiry"`
	ModelPath      string        `koanf:"model_path"`
	StoreBackend   string        `koanf:"store_backend"`
	KeepVersions   int           `koanf:"keep_versions"`
	RebuildTimeout time.Duration `koanf:"rebuild_timeout"`
	TrainInterval  time.Duration `koanf:"train_interval"`
	TrainOnStartup bool          `koanf:"train_on_startup"`

	DefaultSimilarLimit   int `koanf:"default_similar_limit"`
	DefaultRecommendLimit int `koanf:"default_recommend_limit"`
	MaxLimit              int `koanf:"max_limit"`
	SeedSimilar           int `koanf:"seed_similar"`
	FanOut                int `koanf:"fan_out"`

	CacheEnabled    bool          `koanf:"cache_enabled"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CacheMaxEntries int           `koanf:"cache_max_entries"`
}

// Event bus backends.
const (
	EventsBackendMemory = "memory"
	EventsBackendNATS   = "nats"
)

// EventsConfig selects the bus that carries model lifecycle events.
// The NATS backend requires a binary built with the "nats" tag.
//
// Environment Variables:
//   - EVENTS_BACKEND: memory or nats (default: memory)
//   - NATS_URL: NATS server URL (default: nats://127.0.0.1:4222)
//   - NATS_EMBEDDED: Run an embedded NATS server listening on NATS_URL (default: false)
//   - EVENTS_TOPIC: Subject for model lifecycle events (default: recommend.model.rebuilt)
type EventsConfig struct {
	Backend  string `koanf:"backend"`
	NATSURL  string `koanf:"nats_url"`
	Embedded bool   `koanf:"embedded"`
	Topic    string `koanf:"topic"`
}

// Load reads configuration from defaults, the config file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
