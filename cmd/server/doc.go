// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

/*
Package main is the entry point for the Inkpost recommendation server.

Inkpost serves content-based post recommendations for a blog. Published
posts are vectorized with TF-IDF, similar posts are ranked by cosine
similarity, and a reader's list is built from the posts they commented on.

# Application Architecture

The server runs its long-lived components under Suture v4 supervision:

	RootSupervisor ("inkpost")
	├── ModelSupervisor ("model-layer")
	│   └── Rebuild scheduler (staleness check every RECOMMEND_TRAIN_INTERVAL)
	├── EventsSupervisor ("events-layer")
	│   └── Model events subscriber (drops cached rankings on rebuild)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config file and environment
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB with versioned migrations, optional demo seed
 4. Document source: circuit breaker (gobreaker) in front of DuckDB
 5. Model store: versioned files or BadgerDB
 6. Event bus: in-process channel or NATS (build tag "nats")
 7. Recommendation engine
 8. Supervisor tree and HTTP server

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	HTTP_PORT=8080               # HTTP server port
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console
	DUCKDB_PATH=/data/inkpost.duckdb
	SEED_DEMO_DATA=false         # insert demo posts into an empty database

	RECOMMEND_STORE_BACKEND=file # file or badger
	RECOMMEND_MODEL_PATH=/data/models
	RECOMMEND_MODEL_EXPIRY=24h   # model age after which it is rebuilt

	EVENTS_BACKEND=memory        # memory or nats
	NATS_URL=nats://127.0.0.1:4222
	NATS_EMBEDDED=false

# Build Tags

	go build ./cmd/server               # in-process event bus only
	go build -tags nats ./cmd/server    # enable the NATS event bus

Instances sharing one model store should use the NATS bus so a rebuild on
one instance clears cached rankings on all of them.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains within
HTTP_SHUTDOWN_TIMEOUT, then the bus, model store and database are closed.

# Example Usage

	SEED_DEMO_DATA=true DUCKDB_PATH=:memory: RECOMMEND_MODEL_PATH=/tmp/models ./inkpost
	curl localhost:8080/api/v1/posts/1/similar
	curl localhost:8080/api/v1/users/101/recommendations

The API reference is served at /swagger/index.html.
*/
package main
