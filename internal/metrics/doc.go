// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package metrics provides Prometheus instrumentation for ReelMatch.

All collectors are registered on the default registry through promauto at
package init, so importing the package is enough to expose them on /metrics.

# Available Metrics

API:
  - api_requests_total (method, endpoint, status_code)
  - api_request_duration_seconds (method, endpoint)
  - api_active_requests
  - api_rate_limit_hits_total (endpoint)

Database:
  - duckdb_query_duration_seconds (operation, table)
  - duckdb_query_errors_total (operation, table)

TMDb:
  - tmdb_requests_total (endpoint, outcome)
  - tmdb_request_duration_seconds (endpoint)

Circuit breakers:
  - circuit_breaker_state (name): 0 closed, 1 half-open, 2 open
  - circuit_breaker_transitions_total (name, from, to)
  - circuit_breaker_requests_total (name, result)

Cache:
  - cache_hits_total, cache_misses_total (backend)
  - cache_evictions_total (backend)
  - redis_command_duration_seconds (command)

Recommendations:
  - recommendation_duration_seconds (algorithm)
  - recommendation_results (algorithm)
  - recommendation_fallbacks_total (reason)
  - recommendation_training_duration_seconds
  - recommendation_model_version

Tasks:
  - task_runs_total (task, outcome)
  - task_duration_seconds (task)

WebSocket (event counters live in internal/events):
  - websocket_connections
  - websocket_messages_sent_total

# Usage

	start := time.Now()
	movies, err := db.ListMovies(ctx, filter)
	metrics.RecordDBQuery("select", "movies", time.Since(start), err)
*/
package metrics
