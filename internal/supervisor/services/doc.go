// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

/*
Package services provides suture.Service wrappers for Inkpost components.

Each wrapper translates a component lifecycle into suture's context-aware
Serve pattern and implements fmt.Stringer so supervisor logs name it.

# Available Services

RecommendService:
  - Calls RebuildIfStale on startup (optional) and on every CheckInterval tick
  - Logs rebuild failures and keeps running; the next tick retries

ModelEventsService:
  - Holds a model event subscription open and delivers to a handler
  - An unexpectedly ended subscription returns an error so suture resubscribes
  - A closed bus returns suture.ErrDoNotRestart

HTTPServerService:
  - Runs ListenAndServe in a goroutine
  - Shuts down gracefully with its own timeout when the context ends
*/
package services
