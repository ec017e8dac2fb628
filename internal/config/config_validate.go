// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	return errors.Join(
		c.validateDatabase(),
		c.validateServer(),
		c.validateSecurity(),
		c.validateLogging(),
		c.validateRecommend(),
		c.validateEvents(),
	)
}

func (c *Config) validateDatabase() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("DUCKDB_PATH is required"))
	}
	if c.Database.Threads < 0 {
		errs = append(errs, fmt.Errorf("DUCKDB_THREADS must be non-negative, got %d", c.Database.Threads))
	}
	if c.Database.Breaker.FailureThreshold == 0 {
		errs = append(errs, errors.New("DB_BREAKER_FAILURES must be at least 1"))
	}
	if c.Database.Breaker.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("DB_BREAKER_TIMEOUT must be positive, got %v", c.Database.Breaker.Timeout))
	}
	return errors.Join(errs...)
}

func (c *Config) validateServer() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive, got %v", c.Server.ShutdownTimeout))
	}
	return errors.Join(errs...)
}

func (c *Config) validateSecurity() error {
	var errs []error
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs))
		}
		if c.Security.RateLimitWindow <= 0 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow))
		}
	}
	if c.Security.RebuildRateInterval < 0 {
		errs = append(errs, fmt.Errorf("REBUILD_RATE_INTERVAL must be non-negative, got %v", c.Security.RebuildRateInterval))
	}
	if c.Security.RebuildRateBurst < 1 {
		errs = append(errs, fmt.Errorf("REBUILD_RATE_BURST must be at least 1, got %d", c.Security.RebuildRateBurst))
	}
	for _, origin := range c.Security.CORSOrigins {
		if err := validateOrigin(origin); err != nil {
			errs = append(errs, fmt.Errorf("CORS_ORIGINS entry %q is invalid: %w", origin, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) validateLogging() error {
	var errs []error
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic, got %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	var errs []error

	if r.MaxFeatures < 0 {
		errs = append(errs, fmt.Errorf("RECOMMEND_MAX_FEATURES must be non-negative, got %d", r.MaxFeatures))
	}
	if r.MinDF < 1 {
		errs = append(errs, fmt.Errorf("RECOMMEND_MIN_DF must be at least 1, got %d", r.MinDF))
	}
	if r.NgramMax < 1 {
		errs = append(errs, fmt.Errorf("RECOMMEND_NGRAM_MAX must be at least 1, got %d", r.NgramMax))
	}
	switch r.StopWords {
	case "english", "none":
	default:
		errs = append(errs, fmt.Errorf("RECOMMEND_STOP_WORDS must be english or none, got %q", r.StopWords))
	}

	if r.ModelExpiry <= 0 {
		errs = append(errs, fmt.Errorf("RECOMMEND_MODEL_EXPIRY must be positive, got %v", r.ModelExpiry))
	}
	switch r.StoreBackend {
	case StoreBackendFile, StoreBackendBadger:
	default:
		errs = append(errs, fmt.Errorf("RECOMMEND_STORE_BACKEND must be %s or %s, got %q", StoreBackendFile, StoreBackendBadger, r.StoreBackend))
	}
	if r.ModelPath == "" {
		errs = append(errs, errors.New("RECOMMEND_MODEL_PATH is required"))
	}
	if r.KeepVersions < 1 {
		errs = append(errs, fmt.Errorf("RECOMMEND_KEEP_VERSIONS must be at least 1, got %d", r.KeepVersions))
	}
	if r.RebuildTimeout <= 0 {
		errs = append(errs, fmt.Errorf("RECOMMEND_REBUILD_TIMEOUT must be positive, got %v", r.RebuildTimeout))
	}
	if r.TrainInterval <= 0 {
		errs = append(errs, fmt.Errorf("RECOMMEND_TRAIN_INTERVAL must be positive, got %v", r.TrainInterval))
	}

	if r.DefaultSimilarLimit < 1 || r.DefaultRecommendLimit < 1 {
		errs = append(errs, errors.New("recommend default limits must be at least 1"))
	}
	if r.MaxLimit < r.DefaultSimilarLimit || r.MaxLimit < r.DefaultRecommendLimit {
		errs = append(errs, fmt.Errorf("RECOMMEND_MAX_LIMIT (%d) must not be below the default limits", r.MaxLimit))
	}
	if r.SeedSimilar < 1 {
		errs = append(errs, fmt.Errorf("RECOMMEND_SEED_SIMILAR must be at least 1, got %d", r.SeedSimilar))
	}
	if r.FanOut < 1 {
		errs = append(errs, fmt.Errorf("RECOMMEND_FAN_OUT must be at least 1, got %d", r.FanOut))
	}
	if r.CacheEnabled && r.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("RECOMMEND_CACHE_TTL must be positive when the cache is enabled, got %v", r.CacheTTL))
	}
	if r.CacheMaxEntries < 0 {
		errs = append(errs, fmt.Errorf("RECOMMEND_CACHE_MAX_ENTRIES must be non-negative, got %d", r.CacheMaxEntries))
	}

	return errors.Join(errs...)
}

func (c *Config) validateEvents() error {
	switch c.Events.Backend {
	case EventsBackendMemory:
	case EventsBackendNATS:
		if err := validateNATSURL(c.Events.NATSURL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
	default:
		return fmt.Errorf("EVENTS_BACKEND must be %s or %s, got %q", EventsBackendMemory, EventsBackendNATS, c.Events.Backend)
	}
	if c.Events.Topic == "" {
		return errors.New("EVENTS_TOPIC is required")
	}
	return nil
}
