// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantCheck  string
	}{
		{"ready", nil, http.StatusOK, "ok"},
		{"database down", errors.New("closed"), http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, func(d *Dependencies) {
				d.Health = []HealthCheck{{Name: "database", Pinger: fakePinger{err: tt.pingErr}}}
			})

			rec := env.do(t, http.MethodGet, "/api/health/live", "", "")
			if rec.Code != http.StatusOK {
				t.Errorf("live status = %d, want 200", rec.Code)
			}

			rec = env.do(t, http.MethodGet, "/api/health/ready", "", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("ready status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), `"database":"`+tt.wantCheck+`"`) {
				t.Errorf("body = %s, want database %s", rec.Body.String(), tt.wantCheck)
			}
		})
	}
}

func TestGlobalMiddleware(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/health/live", "", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
	env0 := decodeEnvelope(t, rec)
	if env0.Meta == nil || env0.Meta.RequestID != rec.Header().Get("X-Request-ID") {
		t.Errorf("meta.request_id does not match the X-Request-ID header")
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	assertError(t, env.do(t, http.MethodGet, "/api/nope/", "", ""), http.StatusNotFound, ErrCodeNotFound)
	assertError(t, env.do(t, http.MethodDelete, "/api/movies/genres/", "", ""), http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed)
}

func TestObservabilityRoutes(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("/metrics status = %d, want 200", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/swagger/doc.json", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("/swagger/doc.json status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ReelMatch API") {
		t.Errorf("swagger doc missing title")
	}
}

func TestAuthRateLimit(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, func(d *Dependencies) {
		cfg := DefaultChiMiddlewareConfig()
		cfg.AuthRateLimitRequests = 2
		d.Middleware = cfg
	})

	body := `{"email":"neo@example.com","password":"whatever"}`
	for i := 0; i < 2; i++ {
		if rec := env.do(t, http.MethodPost, "/api/users/login/", "", body); rec.Code != http.StatusOK {
			t.Fatalf("login %d status = %d, want 200", i, rec.Code)
		}
	}
	assertError(t, env.do(t, http.MethodPost, "/api/users/login/", "", body), http.StatusTooManyRequests, ErrCodeTooManyRequests)

	// The general API limit is separate.
	if rec := env.do(t, http.MethodGet, "/api/movies/genres/", "", ""); rec.Code != http.StatusOK {
		t.Errorf("genres status = %d, want 200", rec.Code)
	}
}

func TestChiMiddlewareConfigFromSecurity(t *testing.T) {
	t.Parallel()
	cfg := ChiMiddlewareConfigFromSecurity(nil)
	if cfg.RateLimitRequests != 100 || cfg.AuthRateLimitRequests != 5 {
		t.Errorf("defaults = %d/%d, want 100/5", cfg.RateLimitRequests, cfg.AuthRateLimitRequests)
	}
}
