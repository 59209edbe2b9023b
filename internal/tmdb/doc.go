// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package tmdb is the client for The Movie Database (TMDb) v3 API.

# Client

Client issues authenticated GET requests (api_key query parameter) and
decodes responses with goccy/go-json. Every call passes through:

  - a token bucket limiter (golang.org/x/time/rate), sized from
    tmdb.rate_limit and tmdb.rate_burst
  - a circuit breaker named "tmdb-api" (sony/gobreaker/v2) that opens at a
    60% failure rate over at least 10 requests and probes again after two
    minutes with up to three half-open requests

A missing API key makes every call fail with ErrNotConfigured. Non-200
responses are returned as *APIError.

# Caching

CachedClient wraps Client with a cache.Backend. Keys and TTLs:

	trending_movies_{window}_{page}        1h
	popular_movies_{page}                  2h
	movie_details_{id}                     24h
	similar_movies_{id}_{page}             12h
	search_movies_{query}_{page}[_{year}]  1h
	movie_genres                           24h
	movies_by_genre_{genre}_{page}         2h

Concurrent misses for the same key share a single upstream request through
golang.org/x/sync/singleflight. ClearListCaches drops the trending and
popular lists after a catalog sync.

# Metrics

  - tmdb_requests_total{endpoint, outcome}
  - tmdb_request_duration_seconds{endpoint}
  - circuit_breaker_* gauges and counters for "tmdb-api"
*/
package tmdb
