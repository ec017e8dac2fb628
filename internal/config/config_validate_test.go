// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package config

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty database path", func(c *Config) { c.Database.Path = "" }, "DUCKDB_PATH"},
		{"zero breaker threshold", func(c *Config) { c.Database.Breaker.FailureThreshold = 0 }, "DB_BREAKER_FAILURES"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"rate limit disabled skips checks", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
		{"zero rate limit", func(c *Config) { c.Security.RateLimitReqs = 0 }, "RATE_LIMIT_REQUESTS"},
		{"bad cors origin", func(c *Config) { c.Security.CORSOrigins = []string{"ftp://x"} }, "CORS_ORIGINS"},
		{"cors origin with path", func(c *Config) { c.Security.CORSOrigins = []string{"https://x.example.com/app"} }, "CORS_ORIGINS"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"min df zero", func(c *Config) { c.Recommend.MinDF = 0 }, "RECOMMEND_MIN_DF"},
		{"unknown stop words", func(c *Config) { c.Recommend.StopWords = "klingon" }, "RECOMMEND_STOP_WORDS"},
		{"no stop words", func(c *Config) { c.Recommend.StopWords = "none" }, ""},
		{"zero expiry", func(c *Config) { c.Recommend.ModelExpiry = 0 }, "RECOMMEND_MODEL_EXPIRY"},
		{"unknown backend", func(c *Config) { c.Recommend.StoreBackend = "s3" }, "RECOMMEND_STORE_BACKEND"},
		{"max below default", func(c *Config) { c.Recommend.MaxLimit = 2 }, "RECOMMEND_MAX_LIMIT"},
		{"zero seed similar", func(c *Config) { c.Recommend.SeedSimilar = 0 }, "RECOMMEND_SEED_SIMILAR"},
		{"cache ttl ignored when disabled", func(c *Config) {
			c.Recommend.CacheEnabled = false
			c.Recommend.CacheTTL = 0
		}, ""},
		{"zero cache ttl", func(c *Config) { c.Recommend.CacheTTL = 0 }, "RECOMMEND_CACHE_TTL"},
		{"unknown events backend", func(c *Config) { c.Events.Backend = "kafka" }, "EVENTS_BACKEND"},
		{"nats bad url", func(c *Config) {
			c.Events.Backend = EventsBackendNATS
			c.Events.NATSURL = "http://nats:4222"
		}, "NATS_URL"},
		{"embedded nats", func(c *Config) {
			c.Events.Backend = EventsBackendNATS
			c.Events.Embedded = true
		}, ""},
		{"empty topic", func(c *Config) { c.Events.Topic = "" }, "EVENTS_TOPIC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.Path = ""
	cfg.Server.Port = 0
	cfg.Recommend.FanOut = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"DUCKDB_PATH", "HTTP_PORT", "RECOMMEND_FAN_OUT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q does not mention %s", err, want)
		}
	}
}
