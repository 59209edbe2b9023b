// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthTokensIssued counts signed tokens.
	// Labels:
	//   - type: "access", "refresh"
	AuthTokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Total number of JWT tokens issued",
		},
		[]string{"type"},
	)

	// AuthValidationFailures counts rejected tokens.
	// Labels:
	//   - reason: "invalid", "expired", "wrong_type", "revoked"
	AuthValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_validation_failures_total",
			Help: "Total number of JWT validation failures",
		},
		[]string{"reason"},
	)

	// BlacklistOperations counts token blacklist operations.
	// Labels:
	//   - operation: "revoke", "check", "cleanup"
	//   - outcome: "success", "failure", "revoked"
	BlacklistOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_blacklist_operations_total",
			Help: "Total number of token blacklist operations",
		},
		[]string{"operation", "outcome"},
	)

	// BlacklistCleanedUp counts expired revocations removed by cleanup.
	BlacklistCleanedUp = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_blacklist_cleaned_up_total",
			Help: "Total number of expired blacklist entries removed",
		},
	)
)

// RecordBlacklistOperation increments the blacklist counter.
func RecordBlacklistOperation(operation, outcome string) {
	BlacklistOperations.WithLabelValues(operation, outcome).Inc()
}
