// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package middleware

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/reelmatch/internal/logging"
)

// DefaultSlowRequestThreshold is when a request is logged as slow.
const DefaultSlowRequestThreshold = time.Second

// RequestSample is one recorded request.
type RequestSample struct {
	Route      string    `json:"route"`
	Method     string    `json:"method"`
	DurationMS int64     `json:"duration_ms"`
	StatusCode int       `json:"status_code"`
	Timestamp  time.Time `json:"timestamp"`
}

// EndpointStats aggregates the retained samples of one method and route.
type EndpointStats struct {
	Endpoint     string  `json:"endpoint"`
	RequestCount int     `json:"request_count"`
	ErrorCount   int     `json:"error_count"`
	AvgMS        float64 `json:"avg_ms"`
	P50MS        int64   `json:"p50_ms"`
	P95MS        int64   `json:"p95_ms"`
	P99MS        int64   `json:"p99_ms"`
	MaxMS        int64   `json:"max_ms"`
}

// PerformanceMonitor keeps the last N request samples in a ring.
type PerformanceMonitor struct {
	mu      sync.RWMutex
	samples []RequestSample
	next    int
	full    bool
	slow    time.Duration
	now     func() time.Time
}

// NewPerformanceMonitor retains up to size samples. size < 1 means 1000.
func NewPerformanceMonitor(size int) *PerformanceMonitor {
	if size < 1 {
		size = 1000
	}
	return &PerformanceMonitor{
		samples: make([]RequestSample, size),
		slow:    DefaultSlowRequestThreshold,
		now:     time.Now,
	}
}

// Record adds a sample, overwriting the oldest when full.
func (pm *PerformanceMonitor) Record(s RequestSample) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.samples[pm.next] = s
	pm.next = (pm.next + 1) % len(pm.samples)
	if pm.next == 0 {
		pm.full = true
	}
}

// Len returns the number of retained samples.
func (pm *PerformanceMonitor) Len() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	if pm.full {
		return len(pm.samples)
	}
	return pm.next
}

func (pm *PerformanceMonitor) retained() []RequestSample {
	if pm.full {
		return pm.samples
	}
	return pm.samples[:pm.next]
}

// Stats returns per-endpoint statistics, busiest first.
func (pm *PerformanceMonitor) Stats() []EndpointStats {
	pm.mu.RLock()
	grouped := make(map[string][]RequestSample)
	for _, s := range pm.retained() {
		key := s.Method + " " + s.Route
		grouped[key] = append(grouped[key], s)
	}
	pm.mu.RUnlock()

	stats := make([]EndpointStats, 0, len(grouped))
	for endpoint, samples := range grouped {
		durations := make([]int64, len(samples))
		var sum int64
		st := EndpointStats{Endpoint: endpoint, RequestCount: len(samples)}
		for i, s := range samples {
			durations[i] = s.DurationMS
			sum += s.DurationMS
			if s.StatusCode >= http.StatusInternalServerError {
				st.ErrorCount++
			}
		}
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
		st.AvgMS = float64(sum) / float64(len(durations))
		st.P50MS = percentile(durations, 0.50)
		st.P95MS = percentile(durations, 0.95)
		st.P99MS = percentile(durations, 0.99)
		st.MaxMS = durations[len(durations)-1]
		stats = append(stats, st)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].RequestCount != stats[j].RequestCount {
			return stats[i].RequestCount > stats[j].RequestCount
		}
		return stats[i].Endpoint < stats[j].Endpoint
	})
	return stats
}

// Middleware records every request and logs slow ones.
func (pm *PerformanceMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := pm.now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		elapsed := pm.now().Sub(start)
		route := RoutePattern(r)
		pm.Record(RequestSample{
			Route:      route,
			Method:     r.Method,
			DurationMS: elapsed.Milliseconds(),
			StatusCode: rec.status,
			Timestamp:  start,
		})

		if elapsed > pm.slow {
			logging.Ctx(r.Context()).Warn().
				Str("method", r.Method).
				Str("route", route).
				Int64("duration_ms", elapsed.Milliseconds()).
				Msg("Slow request detected")
		}
	})
}

// percentile expects sorted input.
func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}
