// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func TestPerformanceMonitor_Ring(t *testing.T) {
	t.Parallel()
	pm := NewPerformanceMonitor(3)
	for i := 1; i <= 5; i++ {
		pm.Record(RequestSample{Route: "/r", Method: http.MethodGet, DurationMS: int64(i * 10)})
	}
	if pm.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", pm.Len())
	}
	stats := pm.Stats()
	if len(stats) != 1 {
		t.Fatalf("len(Stats()) = %d, want 1", len(stats))
	}
	// Samples 30, 40, 50 survive.
	if stats[0].MaxMS != 50 || stats[0].P50MS != 40 || stats[0].AvgMS != 40 {
		t.Errorf("stats = %+v, want max 50, p50 40, avg 40", stats[0])
	}
}

func TestPerformanceMonitor_StatsOrdering(t *testing.T) {
	t.Parallel()
	pm := NewPerformanceMonitor(0)
	for i := 0; i < 4; i++ {
		pm.Record(RequestSample{Route: "/busy", Method: http.MethodGet, DurationMS: 5, StatusCode: 200})
	}
	pm.Record(RequestSample{Route: "/quiet", Method: http.MethodPost, DurationMS: 7, StatusCode: 500})

	stats := pm.Stats()
	if len(stats) != 2 {
		t.Fatalf("len(Stats()) = %d, want 2", len(stats))
	}
	if stats[0].Endpoint != "GET /busy" || stats[0].RequestCount != 4 {
		t.Errorf("stats[0] = %+v, want GET /busy x4", stats[0])
	}
	if stats[1].ErrorCount != 1 {
		t.Errorf("stats[1].ErrorCount = %d, want 1", stats[1].ErrorCount)
	}
}

func TestPerformanceMonitor_Middleware(t *testing.T) {
	t.Parallel()
	pm := NewPerformanceMonitor(10)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	pm.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * 1500 * time.Millisecond)
	}

	r := chi.NewRouter()
	r.Use(pm.Middleware)
	r.Get("/api/movies/{tmdb_id}/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/movies/1/", nil))

	stats := pm.Stats()
	if len(stats) != 1 {
		t.Fatalf("len(Stats()) = %d, want 1", len(stats))
	}
	want := fmt.Sprintf("%s %s", http.MethodGet, "/api/movies/{tmdb_id}")
	if stats[0].Endpoint != want {
		t.Errorf("Endpoint = %q, want %q", stats[0].Endpoint, want)
	}
	if stats[0].MaxMS != 1500 {
		t.Errorf("MaxMS = %d, want 1500", stats[0].MaxMS)
	}
}
