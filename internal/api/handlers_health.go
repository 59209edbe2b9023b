// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/reelmatch/internal/logging"
)

// readyTimeout bounds each readiness ping.
const readyTimeout = 2 * time.Second

// LiveStatus is the liveness payload.
type LiveStatus struct {
	Status        string  `json:"status"`
	Version       string  `json:"version,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadyStatus is the readiness payload.
type ReadyStatus struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
}

// handleLive reports that the process is up.
//
// @Summary Liveness probe
// @Description Returns 200 while the process is running, regardless of dependencies
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse{data=LiveStatus}
// @Router /health/live [get]
func (rt *Router) handleLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(LiveStatus{
		Status:        "alive",
		Version:       rt.deps.Version,
		UptimeSeconds: time.Since(rt.startTime).Seconds(),
	})
}

// handleReady pings every registered dependency.
//
// @Summary Readiness probe
// @Description Returns 200 when the database and cache respond, 503 otherwise
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse{data=ReadyStatus}
// @Failure 503 {object} APIResponse
// @Router /health/ready [get]
func (rt *Router) handleReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	status := ReadyStatus{Ready: true, Checks: make(map[string]string, len(rt.deps.Health))}

	for _, hc := range rt.deps.Health {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		err := hc.Pinger.Ping(ctx)
		cancel()
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Str("check", hc.Name).Msg("Readiness check failed")
			status.Ready = false
			status.Checks[hc.Name] = "unavailable"
			continue
		}
		status.Checks[hc.Name] = "ok"
	}

	if !status.Ready {
		rw.ServiceUnavailable("Service not ready", status)
		return
	}
	rw.Success(status)
}
