// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package middleware provides the HTTP middleware shared by every API route.

All middleware has the chi signature func(http.Handler) http.Handler so it
can be installed with r.Use:

  - RequestID: X-Request-ID propagation plus request and correlation IDs in
    the logging context
  - SecurityHeaders: HSTS, frame, sniffing and referrer policies
  - PrometheusMetrics: request count, duration and in-flight gauge, labelled
    by chi route pattern
  - Compression: gzip for JSON and text responses
  - PerformanceMonitor: rolling per-route latency percentiles for the admin
    API

Order matters: RequestID runs first so every later layer logs with the ID,
and Compression runs last so metrics see the uncompressed status.
*/
package middleware
