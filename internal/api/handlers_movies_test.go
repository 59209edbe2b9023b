// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/tomtom215/reelmatch/internal/catalog"
	"github.com/tomtom215/reelmatch/internal/models"
	"github.com/tomtom215/reelmatch/internal/tmdb"
	"github.com/tomtom215/reelmatch/internal/validation"
)

func TestTrendingMovies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantWindow string
	}{
		{"defaults", "", http.StatusOK, "week"},
		{"day window", "?time_window=day&page=1&page_size=10", http.StatusOK, "day"},
		{"bad window", "?time_window=month", http.StatusBadRequest, ""},
		{"page zero", "?page=0", http.StatusBadRequest, ""},
		{"page too large", "?page=1001", http.StatusBadRequest, ""},
		{"page size too large", "?page_size=101", http.StatusBadRequest, ""},
		{"page not a number", "?page=abc", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil)
			rec := env.do(t, http.MethodGet, "/api/movies/trending/"+tt.query, "", "")

			if tt.wantStatus != http.StatusOK {
				assertError(t, rec, tt.wantStatus, ErrCodeValidationFailed)
				return
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
			}
			e := decodeEnvelope(t, rec)
			if e.Meta == nil || e.Meta.Pagination == nil || e.Meta.Pagination.Total != 1 {
				t.Errorf("meta = %+v, want pagination with total 1", e.Meta)
			}
			var movies []models.Movie
			decodeData(t, e, &movies)
			if len(movies) != 1 || movies[0].TMDbID != 603 {
				t.Errorf("movies = %+v, want The Matrix", movies)
			}
			if env.catalog.timeWindow != tt.wantWindow {
				t.Errorf("time window = %q, want %q", env.catalog.timeWindow, tt.wantWindow)
			}
		})
	}
}

func TestTrendingMovies_Upstream(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.catalog.err = catalog.ErrUpstream

	e := assertError(t, env.do(t, http.MethodGet, "/api/movies/popular/", "", ""), http.StatusInternalServerError, ErrCodeExternalServiceFail)
	if e.Error.Message != catalog.ErrUpstream.Error() {
		t.Errorf("message = %q, want %q", e.Error.Message, catalog.ErrUpstream.Error())
	}
}

func TestSearchMovies(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	e := assertError(t, env.do(t, http.MethodGet, "/api/movies/search/", "", ""), http.StatusBadRequest, ErrCodeBadRequest)
	if e.Error.Message != "Search query is required" {
		t.Errorf("message = %q", e.Error.Message)
	}
	assertError(t, env.do(t, http.MethodGet, "/api/movies/search/?query=matrix&year=1800", "", ""), http.StatusBadRequest, ErrCodeValidationFailed)

	rec := env.do(t, http.MethodGet, "/api/movies/search/?query=matrix&year=1999", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res SearchResults
	decodeData(t, decodeEnvelope(t, rec), &res)
	if res.SearchQuery != "matrix" || res.TotalResults != 1 || len(res.Results) != 1 {
		t.Errorf("results = %+v, want one match for matrix", res)
	}
}

func TestListMovies_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
	}{
		{"year too early", "?year=1899"},
		{"rating above ten", "?min_rating=11"},
		{"min above max", "?min_rating=8&max_rating=5"},
		{"unknown sort", "?sort_by=budget"},
		{"unknown order", "?sort_by=title&order=up"},
		{"rating not a number", "?min_rating=high"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil)
			assertError(t, env.do(t, http.MethodGet, "/api/movies/"+tt.query, "", ""), http.StatusBadRequest, ErrCodeValidationFailed)
		})
	}
}

func TestListMovies_Filter(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/movies/?genre=28&year=1999&min_rating=6&sort_by=title&search=neo", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	f := env.catalog.filter
	if len(f.GenreIDs) != 1 || f.GenreIDs[0] != 28 {
		t.Errorf("GenreIDs = %v, want [28]", f.GenreIDs)
	}
	if f.ReleasedAfter == nil || f.ReleasedAfter.Year() != 1999 || f.ReleasedBy == nil || f.ReleasedBy.Month() != time.December {
		t.Errorf("release range = %v..%v, want 1999", f.ReleasedAfter, f.ReleasedBy)
	}
	if f.MinRating == nil || *f.MinRating != 6 {
		t.Errorf("MinRating = %v, want 6", f.MinRating)
	}
	if len(f.OrderBy) != 1 || f.OrderBy[0] != "title" {
		t.Errorf("OrderBy = %v, want [title]", f.OrderBy)
	}
	if f.Search != "neo" {
		t.Errorf("Search = %q, want neo", f.Search)
	}
}

func TestMovieFilter_Order(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sortBy, order string
		want          []string
	}{
		{"", "", nil},
		{"popularity", "", []string{"-popularity"}},
		{"popularity", "asc", []string{"popularity"}},
		{"title", "", []string{"title"}},
		{"title", "desc", []string{"-title"}},
	}
	for _, tt := range tests {
		got := movieFilter(validation.MovieListQuery{SortBy: tt.sortBy, Order: tt.order}).OrderBy
		if len(got) != len(tt.want) || (len(got) == 1 && got[0] != tt.want[0]) {
			t.Errorf("movieFilter(%q, %q).OrderBy = %v, want %v", tt.sortBy, tt.order, got, tt.want)
		}
	}
}

func TestMovieDetail(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	rating := 4.5
	env.catalog.detail = &catalog.MovieDetail{
		Movie:      models.Movie{ID: 1, TMDbID: 603, Title: "The Matrix"},
		Details:    &tmdb.MovieDetails{ID: 603, Tagline: "Welcome to the Real World."},
		IsFavorite: true,
		UserRating: &rating,
	}

	for _, bad := range []string{"abc", "0", "-5"} {
		e := assertError(t, env.do(t, http.MethodGet, "/api/movies/"+bad+"/", "", ""), http.StatusBadRequest, ErrCodeBadRequest)
		if e.Error.Message != "Invalid TMDB ID" {
			t.Errorf("%s: message = %q, want Invalid TMDB ID", bad, e.Error.Message)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/movies/603/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env.catalog.viewer != nil {
		t.Errorf("anonymous viewer = %v, want nil", *env.catalog.viewer)
	}
	var got MovieDetailResponse
	decodeData(t, decodeEnvelope(t, rec), &got)
	if got.Title != "The Matrix" || !got.IsFavorite || got.UserRating == nil || *got.UserRating != 4.5 {
		t.Errorf("detail = %+v", got)
	}
	if got.TMDb == nil || got.TMDb.Tagline != "Welcome to the Real World." {
		t.Errorf("tmdb_details = %+v, want tagline", got.TMDb)
	}

	env.do(t, http.MethodGet, "/api/movies/603/", env.token(t, models.RoleUser), "")
	if env.catalog.viewer == nil || *env.catalog.viewer != 42 {
		t.Errorf("viewer = %v, want 42", env.catalog.viewer)
	}

	env.catalog.err = catalog.ErrMovieNotFound
	assertError(t, env.do(t, http.MethodGet, "/api/movies/999/", "", ""), http.StatusNotFound, ErrCodeNotFound)
}

func TestGenres(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.catalog.genres = []models.Genre{{ID: 1, TMDbID: 28, Name: "Action"}}

	rec := env.do(t, http.MethodGet, "/api/movies/genres/", "", "")
	var genres []models.Genre
	decodeData(t, decodeEnvelope(t, rec), &genres)
	if len(genres) != 1 || genres[0].Name != "Action" {
		t.Errorf("genres = %+v, want Action", genres)
	}
}

func TestGenres_InternalError(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.catalog.err = errBoom

	e := assertError(t, env.do(t, http.MethodGet, "/api/movies/genres/", "", ""), http.StatusInternalServerError, ErrCodeInternalError)
	if e.Error.Message != "Internal server error" {
		t.Errorf("message = %q, want generic message", e.Error.Message)
	}
}
