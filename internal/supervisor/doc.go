// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

/*
Package supervisor provides process supervision for Inkpost using suture v4.

Long-running services are grouped into layers so a failure in one layer is
restarted without touching the others:

	RootSupervisor ("inkpost")
	├── ModelSupervisor ("model-layer")
	│   └── RecommendService (scheduled rebuilds)
	├── EventsSupervisor ("events-layer")
	│   └── ModelEventsService (cache invalidation on model rebuilt events)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Supervisor events (start, stop, failure, backoff) are logged through
sutureslog into the application's slog logger, which itself writes through
zerolog (see logging.NewSlogLogger).

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddModelService(services.NewRecommendService(engine, svcCfg, logger))
	tree.AddEventService(services.NewModelEventsService(bus, handler))
	tree.AddAPIService(services.NewHTTPServerService(httpServer, 10*time.Second))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

Services stuck past ShutdownTimeout are listed by UnstoppedServiceReport.
*/
package supervisor
