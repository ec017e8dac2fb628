// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

/*
Package config provides centralized configuration management for Inkpost.

Configuration is layered with Koanf v2: built-in defaults, then an optional
YAML file, then environment variables. The first existing file among
CONFIG_PATH, config.yaml, config.yml, /etc/inkpost/config.yaml and
/etc/inkpost/config.yml is used.

# Configuration Structure

  - DatabaseConfig: DuckDB path, memory and threads, demo seeding, breaker tuning
  - ServerConfig: HTTP listen address and timeouts
  - SecurityConfig: CORS origins, per-IP rate limit, manual rebuild rate
  - LoggingConfig: zerolog level, format and caller
  - RecommendConfig: vectorizer, model store, rebuild schedule, limits and result cache
  - EventsConfig: model lifecycle event bus (in-memory or NATS)

# Environment Variables

Environment variables use plain upper-case names with no prefix, for example
DUCKDB_PATH, HTTP_PORT, RECOMMEND_MODEL_EXPIRY, RECOMMEND_STORE_BACKEND,
CORS_ORIGINS, LOG_LEVEL and EVENTS_BACKEND. Each config struct documents the
variables it reads. Slice values such as CORS_ORIGINS are comma-separated.

Example config.yaml:

	database:
	  path: /var/lib/inkpost/inkpost.duckdb
	recommend:
	  model_expiry: 12h
	  store_backend: badger
	events:
	  backend: nats
	  embedded: true

# Validation

Load validates the merged configuration and joins every problem into one
error, so a misconfigured deployment reports all of its mistakes at once.

# Thread Safety

Config is immutable after Load and safe for concurrent reads.
*/
package config
