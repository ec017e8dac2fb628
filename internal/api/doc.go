// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

/*
Package api provides the HTTP interface of the recommendation engine.

Routing uses go-chi/chi with chi ecosystem middleware (go-chi/cors,
go-chi/httprate). Every response is wrapped in models.APIResponse.

# Endpoints

	GET  /api/v1/posts/{postID}/similar?limit=N       similar posts (default 3)
	GET  /api/v1/users/{userID}/recommendations?limit=N  reading list (default 5)
	GET  /api/v1/recommendations/status               model lifecycle state
	POST /api/v1/recommendations/rebuild?force=bool   explicit rebuild
	GET  /health/live                                 liveness
	GET  /health/ready                                database reachable
	GET  /metrics                                     Prometheus exposition
	GET  /swagger/*                                   Swagger UI and doc.json

Handlers carry swag annotations; the generated spec lives in the docs
package and is registered by the server binary.

# Middleware

Applied in order: request id, access log, Prometheus metrics, panic
recovery, CORS, then per-IP rate limiting on /api/v1 unless disabled.
Manual rebuilds are additionally throttled by a token bucket
(golang.org/x/time/rate) shared by all clients.

# Errors

Failures of the document store surface as 503 SERVICE_UNAVAILABLE so a
load balancer can back off while the circuit breaker is open. Invalid path
or query parameters are 400 VALIDATION_ERROR with per-field details.
*/
package api
