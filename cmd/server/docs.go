// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

// General API annotations for swag. Regenerate the docs package with:
//
//go:generate swag init -g cmd/server/docs.go -o ../../docs --parseInternal -d ../../
//
// @title Inkpost API
// @version 1.0
// @description Content-based post recommendations for a blog.
// @description
// @description Published posts are vectorized with TF-IDF and ranked by cosine similarity.
// @description When no model is available, endpoints answer with the most recent published posts.
// @description
// @description ## Error Responses
// @description
// @description All error responses follow this format:
// @description ```json
// @description {
// @description   "status": "error",
// @description   "error": {
// @description     "code": "ERROR_CODE",
// @description     "message": "Human-readable error message",
// @description     "details": {}
// @description   },
// @description   "metadata": {
// @description     "timestamp": "2026-03-01T09:00:00Z"
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/inkpost/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @BasePath /
// @schemes http https
//
// @tag.name Recommendations
// @tag.description Similar posts, reading recommendations and similarity model lifecycle
//
// @tag.name Health
// @tag.description Liveness and readiness checks
package main
