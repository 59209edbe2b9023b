// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/reelmatch/internal/metrics"
)

// unmatchedRoute labels requests that no route matched, keeping label
// cardinality bounded.
const unmatchedRoute = "unmatched"

// PrometheusMetrics records request count, duration and in-flight requests.
// The endpoint label is the chi route pattern, not the raw path.
func PrometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		metrics.RecordAPIRequest(
			r.Method,
			RoutePattern(r),
			strconv.Itoa(rec.status),
			time.Since(start),
		)
	})
}

// RoutePattern returns the matched chi pattern. chi trims the trailing
// slash, so /api/movies/{tmdb_id}/ is reported as /api/movies/{tmdb_id}.
// It is only complete after the router has served the request.
func RoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return unmatchedRoute
}
