// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package authz

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/reelmatch/internal/auth"
	"github.com/tomtom215/reelmatch/internal/models"
)

func TestAuthorizeRequest(t *testing.T) {
	t.Parallel()
	mw := NewMiddleware(newTestEnforcer(t))
	h := mw.AuthorizeRequest(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		claims     *auth.Claims
		method     string
		path       string
		wantStatus int
	}{
		{"no claims", nil, http.MethodGet, "/api/users/profile/", http.StatusForbidden},
		{"user reads profile", &auth.Claims{UserID: 1, Role: models.RoleUser}, http.MethodGet, "/api/users/profile/", http.StatusNoContent},
		{"user runs task", &auth.Claims{UserID: 1, Role: models.RoleUser}, http.MethodPost, "/api/admin/tasks/cleanup_old_data/run/", http.StatusForbidden},
		{"admin runs task", &auth.Claims{UserID: 2, Role: models.RoleAdmin}, http.MethodPost, "/api/admin/tasks/cleanup_old_data/run/", http.StatusNoContent},
		{"user removes favorite", &auth.Claims{UserID: 1, Role: models.RoleUser}, http.MethodDelete, "/api/movies/favorites/3/", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.claims != nil {
				req = req.WithContext(auth.WithClaims(req.Context(), tt.claims))
			}
			rec := httptest.NewRecorder()
			h(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusForbidden && !strings.Contains(rec.Body.String(), `"FORBIDDEN"`) {
				t.Errorf("body = %s, want FORBIDDEN code", rec.Body.String())
			}
			if tt.wantStatus == http.StatusForbidden && !strings.Contains(rec.Body.String(), `"meta":{`) {
				t.Errorf("body = %s, want meta block", rec.Body.String())
			}
		})
	}
}

func TestMethodToAction(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		http.MethodGet:     "read",
		http.MethodHead:    "read",
		http.MethodOptions: "read",
		http.MethodPost:    "write",
		http.MethodPut:     "write",
		http.MethodPatch:   "write",
		http.MethodDelete:  "delete",
	}
	for method, want := range tests {
		if got := methodToAction(method); got != want {
			t.Errorf("methodToAction(%s) = %q, want %q", method, got, want)
		}
	}
}
