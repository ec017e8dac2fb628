// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

/*
Package events carries model lifecycle events between Inkpost instances.

Every successful rebuild publishes a ModelRebuilt event. Instances that
share a model store subscribe to the topic and drop their cached rankings
when any instance saves a new bundle, so no instance keeps serving results
computed against an older version for the full cache TTL.

# Backends

  - memory: watermill GoChannel. Events stay inside the process. This is
    the default and needs no infrastructure.
  - nats: watermill-nats over core NATS (JetStream disabled, no queue
    group), so every instance receives every event. Requires building with
    -tags nats. With embedded enabled the process also runs a NATS server
    bound to the host and port of the configured URL.

# Usage

	bus, err := events.New(cfg.Events, logger)
	if err != nil {
	    return err
	}
	defer bus.Close()

	engine, _ := recommend.NewEngine(recCfg, source, store, logger, recommend.WithNotifier(bus))
	done, err := bus.Subscribe(ctx, events.CacheInvalidationHandler(engine, logger))

Delivery is at-most-once across restarts. A missed event only means a
cache entry lives until its TTL expires.
*/
package events
