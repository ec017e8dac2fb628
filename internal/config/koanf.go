// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/inkpost/config.yaml",
	"/etc/inkpost/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultTopic is the topic model lifecycle events are published on.
const DefaultTopic = "recommend.model.rebuilt"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:                   "/data/inkpost.duckdb",
			MaxMemory:              "1GB",
			Threads:                0, // 0 = use runtime.NumCPU()
			PreserveInsertionOrder: true,
			SeedDemoData:           false,
			Breaker: BreakerConfig{
				MaxRequests:      3,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
		},
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:         []string{"*"},
			RateLimitReqs:       100,
			RateLimitWindow:     time.Minute,
			RateLimitDisabled:   false,
			RebuildRateInterval: time.Minute,
			RebuildRateBurst:    1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Recommend: RecommendConfig{
			MaxFeatures: 5000,
			MinDF:       2,
			NgramMax:    2,
			StopWords:   "english",

			ModelExpiry:    24 * time.Hour,
			ModelPath:      "/data/models",
			StoreBackend:   StoreBackendFile,
			KeepVersions:   3,
			RebuildTimeout: 2 * time.Minute,
			TrainInterval:  time.Hour,
			TrainOnStartup: true,

			DefaultSimilarLimit:   3,
			DefaultRecommendLimit: 5,
			MaxLimit:              50,
			SeedSimilar:           2,
			FanOut:                4,

			CacheEnabled:    true,
			CacheTTL:        5 * time.Minute,
			CacheMaxEntries: 10000,
		},
		Events: EventsConfig{
			Backend:  EventsBackendMemory,
			NATSURL:  "nats://127.0.0.1:4222",
			Embedded: false,
			Topic:    DefaultTopic,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources.
//
// Loading order (later sources override earlier):
//  1. Built-in defaults from defaultConfig()
//  2. Config file (if found): config.yaml, /etc/inkpost/config.yaml
//  3. Environment variables (see envTransformFunc for the mapping)
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Empty prefix: envTransformFunc filters unknown variables itself.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
// CONFIG_PATH takes precedence over DefaultConfigPaths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths lists config paths that hold string slices.
// Environment variables deliver these as comma-separated strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated strings into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Database
	"duckdb_path":         "database.path",
	"duckdb_max_memory":   "database.max_memory",
	"duckdb_threads":      "database.threads",
	"seed_demo_data":      "database.seed_demo_data",
	"db_breaker_failures": "database.breaker.failure_threshold",
	"db_breaker_timeout":  "database.breaker.timeout",

	// Server
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_timeout":          "server.timeout",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// Security
	"cors_origins":          "security.cors_origins",
	"rate_limit_requests":   "security.rate_limit_reqs",
	"rate_limit_window":     "security.rate_limit_window",
	"disable_rate_limit":    "security.rate_limit_disabled",
	"rebuild_rate_interval": "security.rebuild_rate_interval",
	"rebuild_rate_burst":    "security.rebuild_rate_burst",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Recommendation engine
	"recommend_max_features":            "recommend.max_features",
	"recommend_min_df":                  "recommend.min_df",
	"recommend_ngram_max":               "recommend.ngram_max",
	"recommend_stop_words":              "recommend.stop_words",
	"recommend_model_expiry":            "recommend.model_expiry",
	"recommend_model_path":              "recommend.model_path",
	"recommend_store_backend":           "recommend.store_backend",
	"recommend_keep_versions":           "recommend.keep_versions",
	"recommend_rebuild_timeout":         "recommend.rebuild_timeout",
	"recommend_train_interval":          "recommend.train_interval",
	"recommend_train_on_startup":        "recommend.train_on_startup",
	"recommend_default_similar_limit":   "recommend.default_similar_limit",
	"recommend_default_recommend_limit": "recommend.default_recommend_limit",
	"recommend_max_limit":               "recommend.max_limit",
	"recommend_seed_similar":            "recommend.seed_similar",
	"recommend_fan_out":                 "recommend.fan_out",
	"recommend_cache_enabled":           "recommend.cache_enabled",
	"recommend_cache_ttl":               "recommend.cache_ttl",
	"recommend_cache_max_entries":       "recommend.cache_max_entries",

	// Events
	"events_backend": "events.backend",
	"nats_url":       "events.nats_url",
	"nats_embedded":  "events.embedded",
	"events_topic":   "events.topic",
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables return "" and are ignored.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
