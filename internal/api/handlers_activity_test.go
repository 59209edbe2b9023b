// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"net/http"
	"testing"

	"github.com/tomtom215/reelmatch/internal/catalog"
	"github.com/tomtom215/reelmatch/internal/models"
)

func TestAddFavorite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"created", `{"movie_id":1}`, nil, http.StatusCreated, ""},
		{"missing movie", `{}`, nil, http.StatusBadRequest, ErrCodeValidationFailed},
		{"duplicate", `{"movie_id":1}`, catalog.ErrAlreadyFavorite, http.StatusBadRequest, ErrCodeValidationFailed},
		{"unknown movie", `{"movie_id":5}`, catalog.ErrMovieNotFound, http.StatusNotFound, ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil)
			env.catalog.favorite = &models.Favorite{ID: 7, UserID: 42, MovieID: 1}
			env.catalog.err = tt.err

			rec := env.do(t, http.MethodPost, "/api/movies/favorites/", env.token(t, models.RoleUser), tt.body)
			if tt.wantCode != "" {
				assertError(t, rec, tt.wantStatus, tt.wantCode)
				return
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var fav models.Favorite
			decodeData(t, decodeEnvelope(t, rec), &fav)
			if fav.ID != 7 {
				t.Errorf("favorite id = %d, want 7", fav.ID)
			}
		})
	}
}

func TestRemoveFavorite(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	token := env.token(t, models.RoleUser)

	rec := env.do(t, http.MethodDelete, "/api/movies/favorites/7/remove/", token, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if env.catalog.removed != 7 {
		t.Errorf("removed = %d, want 7", env.catalog.removed)
	}

	env.catalog.err = catalog.ErrFavoriteNotFound
	assertError(t, env.do(t, http.MethodDelete, "/api/movies/favorites/8/remove/", token, ""), http.StatusNotFound, ErrCodeNotFound)
}

func TestRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		created    bool
		err        error
		wantStatus int
	}{
		{"created", `{"movie_id":1,"rating":4.5}`, true, nil, http.StatusCreated},
		{"updated", `{"movie_id":1,"rating":3}`, false, nil, http.StatusOK},
		{"out of range", `{"movie_id":1,"rating":6}`, false, nil, http.StatusBadRequest},
		{"missing rating", `{"movie_id":1}`, false, nil, http.StatusBadRequest},
		{"review too long", `{"movie_id":1,"rating":3}`, false, catalog.ErrReviewTooLong, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil)
			env.catalog.rating = &models.Rating{ID: 3, MovieID: 1, Rating: 4.5}
			env.catalog.created = tt.created
			env.catalog.err = tt.err

			rec := env.do(t, http.MethodPost, "/api/movies/rate/", env.token(t, models.RoleUser), tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestActivityLists(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	token := env.token(t, models.RoleUser)

	for _, path := range []string{"/api/movies/favorites/", "/api/movies/ratings/"} {
		assertError(t, env.do(t, http.MethodGet, path, "", ""), http.StatusUnauthorized, ErrCodeUnauthorized)
		rec := env.do(t, http.MethodGet, path, token, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
		if e := decodeEnvelope(t, rec); !e.Success {
			t.Errorf("%s success = false, want true", path)
		}
	}
}
