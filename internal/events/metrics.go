// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsPublished counts publish attempts by topic and outcome.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of domain events published",
		},
		[]string{"topic", "outcome"},
	)

	// EventsHandled counts router handler invocations by topic and outcome.
	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_handled_total",
			Help: "Total number of domain events handled by the router",
		},
		[]string{"topic", "outcome"},
	)

	// InteractionsByType counts tracked interactions.
	InteractionsByType = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_interactions_total",
			Help: "Total number of tracked interactions by type",
		},
		[]string{"interaction_type"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "events_circuit_breaker_state",
			Help: "Publish circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
