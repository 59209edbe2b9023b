// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package supervisor runs the long-lived parts of the server under a suture v4
supervisor tree.

	root ("reelmatch")
	├── data-layer
	│   ├── recommend-service (training on start + periodic retrain)
	│   ├── blacklist-cleanup
	│   └── audit-retention
	├── messaging-layer
	│   ├── websocket-hub
	│   ├── event-router
	│   └── scheduler
	└── api-layer
	    └── http-server

A crashed service is restarted with backoff; failures in one layer do not
count against the others. Supervisor events (service panics, restarts,
backoff) go through sutureslog into the zerolog stream via
logging.NewSlogLogger.

Usage:

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	tree.AddDataService(services.NewRecommendService(engine, cfg, logger))
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
	err = tree.Serve(ctx)

The services subpackage holds the suture.Service adapters. Components that
already implement Serve, such as audit.Logger, are added directly.
*/
package supervisor
