// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// TMDb Metrics
	TMDbRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmdb_requests_total",
			Help: "Total number of TMDb API requests",
		},
		[]string{"endpoint", "outcome"}, // success, error, rejected
	)

	TMDbRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tmdb_request_duration_seconds",
			Help:    "TMDb API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breakers",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"backend"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"backend"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions",
		},
		[]string{"backend"},
	)

	RedisCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_command_duration_seconds",
			Help:    "Redis command duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"command"},
	)

	// Recommendation Metrics
	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Time spent producing recommendations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"algorithm"},
	)

	RecommendationResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_results",
			Help:    "Number of recommendations returned per request",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
		[]string{"algorithm"},
	)

	RecommendationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_fallbacks_total",
			Help: "Total number of personalized requests answered by the popularity fallback",
		},
		[]string{"reason"}, // error, empty
	)

	RecommendationTrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_training_duration_seconds",
			Help:    "Duration of recommendation engine training in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
		},
	)

	RecommendationModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommendation_model_version",
			Help: "Current recommendation model version",
		},
	)

	// Task Metrics
	TaskRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_runs_total",
			Help: "Total number of background task runs",
		},
		[]string{"task", "outcome"}, // success, failure
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "task_duration_seconds",
			Help:    "Background task duration in seconds",
			Buckets: []float64{0.1, 1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"task"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	// Application Info
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordTMDbRequest records one outbound TMDb call.
func RecordTMDbRequest(endpoint, outcome string, duration time.Duration) {
	TMDbRequests.WithLabelValues(endpoint, outcome).Inc()
	TMDbRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordCacheLookup counts a hit or miss for backend.
func RecordCacheLookup(backend string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(backend).Inc()
		return
	}
	CacheMisses.WithLabelValues(backend).Inc()
}

// RecordBreakerTransition updates state gauges on a circuit breaker change.
// state is 0 closed, 1 half-open, 2 open.
func RecordBreakerTransition(name, from, to string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordRecommendation records latency and result size for one algorithm run.
func RecordRecommendation(algorithm string, duration time.Duration, results int) {
	RecommendationDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
	RecommendationResults.WithLabelValues(algorithm).Observe(float64(results))
}

// RecordTaskRun records one background task execution
func RecordTaskRun(task string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	TaskRuns.WithLabelValues(task, outcome).Inc()
	TaskDuration.WithLabelValues(task).Observe(duration.Seconds())
}
