// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package authz

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthzDecisionsTotal counts authorization decisions by role, resource, action, and outcome.
	AuthzDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"role", "resource_pattern", "action", "decision"},
	)

	// AuthzDecisionDuration tracks the latency of authorization decisions.
	AuthzDecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authz_decision_duration_seconds",
			Help:    "Duration of authorization decisions in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"role", "cache_hit"},
	)

	// AuthzCacheHitsTotal counts cache hits for authorization decisions.
	AuthzCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_cache_hits_total",
			Help: "Total number of authorization cache hits",
		},
	)

	// AuthzCacheMissesTotal counts cache misses for authorization decisions.
	AuthzCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_cache_misses_total",
			Help: "Total number of authorization cache misses",
		},
	)

	// AuthzCacheSize is the number of cached decisions.
	AuthzCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "authz_cache_size",
			Help: "Current number of cached authorization decisions",
		},
	)

	// AuthzPolicyRules tracks the loaded policy size.
	AuthzPolicyRules = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "authz_policy_rules",
			Help: "Number of loaded policy rules by type",
		},
		[]string{"type"},
	)

	// AuthzErrorsTotal counts enforcement errors.
	AuthzErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_errors_total",
			Help: "Total number of authorization errors",
		},
		[]string{"type"},
	)
)

// RecordAuthzDecision records one decision.
func RecordAuthzDecision(role, resource, action string, allowed bool, duration time.Duration, cacheHit bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	hit := "false"
	if cacheHit {
		hit = "true"
	}
	AuthzDecisionsTotal.WithLabelValues(role, normalizeResourcePattern(resource), action, decision).Inc()
	AuthzDecisionDuration.WithLabelValues(role, hit).Observe(duration.Seconds())
}

// normalizeResourcePattern keeps the first two path segments so numeric IDs
// do not explode label cardinality: /api/admin/tasks/x/run -> /api/admin/*.
func normalizeResourcePattern(resource string) string {
	parts := strings.SplitN(strings.TrimPrefix(resource, "/"), "/", 3)
	if len(parts) < 3 {
		return resource
	}
	return "/" + parts[0] + "/" + parts[1] + "/*"
}

// RecordAuthzCacheHit increments the cache hit counter.
func RecordAuthzCacheHit() { AuthzCacheHitsTotal.Inc() }

// RecordAuthzCacheMiss increments the cache miss counter.
func RecordAuthzCacheMiss() { AuthzCacheMissesTotal.Inc() }

// UpdateAuthzCacheSize sets the cache size gauge.
func UpdateAuthzCacheSize(size int) { AuthzCacheSize.Set(float64(size)) }

// UpdatePolicyStats sets the policy size gauges.
func UpdatePolicyStats(policyRules, groupingRules int) {
	AuthzPolicyRules.WithLabelValues("policy").Set(float64(policyRules))
	AuthzPolicyRules.WithLabelValues("grouping").Set(float64(groupingRules))
}

// RecordAuthzError increments the error counter.
func RecordAuthzError(errorType string) {
	AuthzErrorsTotal.WithLabelValues(errorType).Inc()
}
