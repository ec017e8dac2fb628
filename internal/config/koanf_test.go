// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// isolateConfig points CONFIG_PATH at a missing file and runs the test in an
// empty directory so no stray config file is picked up.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "absent.yaml"))
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path != "/data/inkpost.duckdb" {
		t.Errorf("Database.Path = %q, want /data/inkpost.duckdb", cfg.Database.Path)
	}
	if cfg.Database.Breaker.FailureThreshold != 5 {
		t.Errorf("Database.Breaker.FailureThreshold = %d, want 5", cfg.Database.Breaker.FailureThreshold)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}

	r := cfg.Recommend
	if r.MaxFeatures != 5000 || r.MinDF != 2 || r.NgramMax != 2 || r.StopWords != "english" {
		t.Errorf("vectorizer defaults = %d/%d/%d/%q, want 5000/2/2/english", r.MaxFeatures, r.MinDF, r.NgramMax, r.StopWords)
	}
	if r.ModelExpiry != 24*time.Hour {
		t.Errorf("ModelExpiry = %v, want 24h", r.ModelExpiry)
	}
	if r.StoreBackend != StoreBackendFile {
		t.Errorf("StoreBackend = %q, want file", r.StoreBackend)
	}
	if r.DefaultSimilarLimit != 3 || r.DefaultRecommendLimit != 5 || r.MaxLimit != 50 {
		t.Errorf("limits = %d/%d/%d, want 3/5/50", r.DefaultSimilarLimit, r.DefaultRecommendLimit, r.MaxLimit)
	}
	if r.SeedSimilar != 2 {
		t.Errorf("SeedSimilar = %d, want 2", r.SeedSimilar)
	}
	if r.RebuildTimeout != 2*time.Minute || r.TrainInterval != time.Hour || !r.TrainOnStartup {
		t.Errorf("rebuild schedule = %v/%v/%v, want 2m/1h/true", r.RebuildTimeout, r.TrainInterval, r.TrainOnStartup)
	}

	if cfg.Events.Backend != EventsBackendMemory || cfg.Events.Topic != DefaultTopic {
		t.Errorf("Events = %+v, want memory backend on %s", cfg.Events, DefaultTopic)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig().Validate() error = %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"DUCKDB_PATH", "database.path"},
		{"SEED_DEMO_DATA", "database.seed_demo_data"},
		{"DB_BREAKER_FAILURES", "database.breaker.failure_threshold"},
		{"HTTP_PORT", "server.port"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"RATE_LIMIT_REQUESTS", "security.rate_limit_reqs"},
		{"LOG_LEVEL", "logging.level"},
		{"RECOMMEND_MAX_FEATURES", "recommend.max_features"},
		{"RECOMMEND_MODEL_EXPIRY", "recommend.model_expiry"},
		{"RECOMMEND_STORE_BACKEND", "recommend.store_backend"},
		{"EVENTS_BACKEND", "events.backend"},
		{"NATS_URL", "events.nats_url"},
		{"recommend_fan_out", "recommend.fan_out"},

		// Unknown (should return empty)
		{"RANDOM_VAR", ""},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	t.Run("no config file exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		if got := findConfigFile(); got != "" {
			t.Errorf("findConfigFile() = %q, want empty string", got)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		if err := os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		t.Cleanup(func() { _ = os.Remove(path) })

		t.Setenv(ConfigPathEnvVar, "")
		if got := findConfigFile(); got != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", got)
		}
	})

	t.Run("CONFIG_PATH takes precedence", func(t *testing.T) {
		custom := filepath.Join(dir, "custom.yaml")
		if err := os.WriteFile(custom, []byte("{}"), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		t.Setenv(ConfigPathEnvVar, custom)
		if got := findConfigFile(); got != custom {
			t.Errorf("findConfigFile() = %q, want %q", got, custom)
		}
	})

	t.Run("CONFIG_PATH with non-existent file falls back", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
		if got := findConfigFile(); got != "" {
			t.Errorf("findConfigFile() = %q, want empty string", got)
		}
	})
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	isolateConfig(t)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RECOMMEND_MODEL_EXPIRY", "12h")
	t.Setenv("RECOMMEND_STORE_BACKEND", "badger")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("DB_BREAKER_FAILURES", "7")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Recommend.ModelExpiry != 12*time.Hour {
		t.Errorf("Recommend.ModelExpiry = %v, want 12h", cfg.Recommend.ModelExpiry)
	}
	if cfg.Recommend.StoreBackend != StoreBackendBadger {
		t.Errorf("Recommend.StoreBackend = %q, want badger", cfg.Recommend.StoreBackend)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if !reflect.DeepEqual(cfg.Security.CORSOrigins, want) {
		t.Errorf("Security.CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	if cfg.Database.Breaker.FailureThreshold != 7 {
		t.Errorf("Database.Breaker.FailureThreshold = %d, want 7", cfg.Database.Breaker.FailureThreshold)
	}

	// Unset values keep their defaults.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Recommend.MaxLimit != 50 {
		t.Errorf("Recommend.MaxLimit = %d, want 50", cfg.Recommend.MaxLimit)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	dir := isolateConfig(t)

	content := `
database:
  path: "/var/lib/inkpost/blog.duckdb"
server:
  port: 8888
recommend:
  model_expiry: 6h
  seed_similar: 3
logging:
  level: "warn"
`
	path := filepath.Join(dir, "inkpost.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	// Environment overrides the file.
	t.Setenv("HTTP_PORT", "9999")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Database.Path != "/var/lib/inkpost/blog.duckdb" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999 from env", cfg.Server.Port)
	}
	if cfg.Recommend.ModelExpiry != 6*time.Hour || cfg.Recommend.SeedSimilar != 3 {
		t.Errorf("Recommend = %v/%d, want 6h/3", cfg.Recommend.ModelExpiry, cfg.Recommend.SeedSimilar)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestLoadWithKoanfInvalid(t *testing.T) {
	isolateConfig(t)
	t.Setenv("RECOMMEND_STORE_BACKEND", "redis")

	if _, err := LoadWithKoanf(); err == nil {
		t.Fatal("LoadWithKoanf() expected validation error for unknown store backend")
	}
}

func TestProcessSliceFields(t *testing.T) {
	isolateConfig(t)
	t.Setenv("CORS_ORIGINS", " , https://only.example.com ,")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if !reflect.DeepEqual(cfg.Security.CORSOrigins, []string{"https://only.example.com"}) {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
}
