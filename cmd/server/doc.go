// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package main is the entry point for the ReelMatch server.

ReelMatch serves a movie catalog mirrored from TMDb, records favorites,
ratings and interactions, and produces hybrid recommendations that blend
collaborative filtering, content similarity and popularity.

# Application Architecture

The server runs under Suture v4 process supervision:

	RootSupervisor ("reelmatch")
	├── DataSupervisor ("data-layer")
	│   ├── Recommend Service (train on start, periodic retrain)
	│   ├── Blacklist Cleanup (expired revoked tokens, badger GC)
	│   └── Audit Retention (optional, prunes audit_events)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub (realtime notifications)
	│   ├── Event Router (watermill, channel or NATS transport)
	│   └── Scheduler (periodic tasks, optional)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: koanf v2 with defaults, optional YAML file, environment
 2. Logging: zerolog with JSON or console output
 3. Database: DuckDB with the schema applied on open
 4. Cache: in-memory LRU or Redis
 5. Token blacklist: badger (persistent) or memory
 6. TMDb client: rate limited, circuit breaker, cached
 7. Event bus and services: accounts, audit trail, catalog, recommendations, tasks
 8. Authorization: casbin RBAC with the embedded policy
 9. Supervisor tree and HTTP server

# Configuration

Core environment variables:

	HTTP_PORT=8000
	ENVIRONMENT=production
	JWT_SECRET=<32+ chars>          # required
	TMDB_API_KEY=<key>
	DUCKDB_PATH=data/reelmatch.duckdb
	CACHE_BACKEND=memory            # memory or redis
	REDIS_URL=redis://localhost:6379/1
	TOKEN_BLACKLIST=badger          # badger or memory
	EVENTS_TRANSPORT=channel        # channel or nats
	SCHEDULER_ENABLED=true
	AUDIT_ENABLED=true
	AUDIT_RETENTION_DAYS=90         # 0 keeps events forever
	LOG_LEVEL=info
	LOG_FORMAT=json

# Build Tags

	go build ./cmd/server                # in-process event bus only
	go build -tags nats ./cmd/server     # enable the NATS JetStream transport

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains in-flight
requests within HTTP_SHUTDOWN_TIMEOUT, running tasks are awaited, and the
database, badger, cache and event bus are closed.
*/
package main
