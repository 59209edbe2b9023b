// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/reelmatch/internal/catalog"
	"github.com/tomtom215/reelmatch/internal/models"
	"github.com/tomtom215/reelmatch/internal/tmdb"
	"github.com/tomtom215/reelmatch/internal/validation"
)

// Paging defaults for movie lists.
const (
	defaultPageSize   = 20
	defaultTimeWindow = "week"
)

// SearchResults is the search payload.
type SearchResults struct {
	Results      []models.Movie `json:"results"`
	SearchQuery  string         `json:"search_query"`
	TotalResults int            `json:"total_results"`
}

// MovieDetailResponse is a catalog movie with TMDb details and the
// viewer's relation to it.
type MovieDetailResponse struct {
	models.Movie
	TMDb       *tmdb.MovieDetails `json:"tmdb_details,omitempty"`
	IsFavorite bool               `json:"is_favorite"`
	UserRating *float64           `json:"user_rating"`
}

func parsePage(p *queryParser) validation.PageQuery {
	return validation.PageQuery{
		Page:     p.Int("page", 1),
		PageSize: p.Int("page_size", defaultPageSize),
	}
}

// handleTrendingMovies syncs and returns TMDb trending movies.
//
// @Summary Trending movies
// @Tags Movies
// @Produce json
// @Param time_window query string false "day or week" default(week)
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} APIResponse{data=[]models.Movie}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /movies/trending/ [get]
func (rt *Router) handleTrendingMovies(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	p := newQueryParser(r)
	q := validation.TrendingQuery{
		TimeWindow: p.String("time_window", defaultTimeWindow),
		PageQuery:  parsePage(p),
	}
	if !p.ok(rw) || !validateQuery(rw, &q) {
		return
	}

	page, err := rt.deps.Catalog.Trending(r.Context(), q.TimeWindow, q.Page, q.PageSize)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.SuccessWithPagination(page.Movies, page.Pagination)
}

// handlePopularMovies syncs and returns TMDb popular movies.
//
// @Summary Popular movies
// @Tags Movies
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} APIResponse{data=[]models.Movie}
// @Failure 500 {object} APIResponse
// @Router /movies/popular/ [get]
func (rt *Router) handlePopularMovies(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	p := newQueryParser(r)
	q := parsePage(p)
	if !p.ok(rw) || !validateQuery(rw, &q) {
		return
	}

	page, err := rt.deps.Catalog.Popular(r.Context(), q.Page, q.PageSize)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.SuccessWithPagination(page.Movies, page.Pagination)
}

// handleSearchMovies searches TMDb by title.
//
// @Summary Search movies
// @Tags Movies
// @Produce json
// @Param query query string true "Search text"
// @Param year query int false "Release year"
// @Param page query int false "Page number" default(1)
// @Success 200 {object} APIResponse{data=SearchResults}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /movies/search/ [get]
func (rt *Router) handleSearchMovies(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	p := newQueryParser(r)
	q := validation.SearchQuery{
		Query: p.String("query", ""),
		Year:  p.OptionalInt("year"),
		Page:  p.Int("page", 1),
	}
	paging := parsePage(p)
	if !p.ok(rw) {
		return
	}
	if q.Query == "" {
		writeServiceError(rw, catalog.ErrQueryRequired)
		return
	}
	if !validateQuery(rw, &q) || !validateQuery(rw, &paging) {
		return
	}

	year := 0
	if q.Year != nil {
		year = *q.Year
	}
	page, err := rt.deps.Catalog.Search(r.Context(), q.Query, q.Page, year, paging.PageSize)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.SuccessWithPagination(SearchResults{
		Results:      page.Movies,
		SearchQuery:  page.SearchQuery,
		TotalResults: page.TotalResults,
	}, page.Pagination)
}

// handleListMovies browses the local catalog.
//
// @Summary List catalog movies
// @Tags Movies
// @Produce json
// @Param genre query int false "TMDb genre id"
// @Param year query int false "Release year"
// @Param min_rating query number false "Minimum vote average"
// @Param max_rating query number false "Maximum vote average"
// @Param sort_by query string false "popularity, vote_average, release_date or title"
// @Param order query string false "asc or desc"
// @Param search query string false "Title or overview text"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} APIResponse{data=[]models.Movie}
// @Failure 400 {object} APIResponse
// @Router /movies/ [get]
func (rt *Router) handleListMovies(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	p := newQueryParser(r)
	q := validation.MovieListQuery{
		Genre:     p.OptionalInt("genre"),
		Year:      p.OptionalInt("year"),
		MinRating: p.OptionalFloat("min_rating"),
		MaxRating: p.OptionalFloat("max_rating"),
		SortBy:    p.String("sort_by", ""),
		Order:     p.String("order", ""),
		Search:    p.String("search", ""),
		PageQuery: parsePage(p),
	}
	if !p.ok(rw) || !validateQuery(rw, &q) {
		return
	}

	page, err := rt.deps.Catalog.List(r.Context(), movieFilter(q), q.Page, q.PageSize)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.SuccessWithPagination(page.Movies, page.Pagination)
}

// movieFilter maps validated list parameters onto a catalog filter. A year
// selects the whole calendar year; sort order defaults to descending except
// for title.
func movieFilter(q validation.MovieListQuery) models.MovieFilter {
	f := models.MovieFilter{
		MinRating: q.MinRating,
		MaxRating: q.MaxRating,
		Search:    q.Search,
	}
	if q.Genre != nil {
		f.GenreIDs = []int{*q.Genre}
	}
	if q.Year != nil {
		start := time.Date(*q.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(*q.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
		f.ReleasedAfter = &start
		f.ReleasedBy = &end
	}
	if q.SortBy != "" {
		desc := q.Order == "desc" || (q.Order == "" && q.SortBy != models.SortTitle)
		key := q.SortBy
		if desc {
			key = "-" + key
		}
		f.OrderBy = []string{key}
	}
	return f
}

// handleGenres lists genres, refreshed from TMDb when reachable.
//
// @Summary List genres
// @Tags Movies
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.Genre}
// @Router /movies/genres/ [get]
func (rt *Router) handleGenres(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	genres, err := rt.deps.Catalog.Genres(r.Context())
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(genres)
}

// handleMovieDetail returns one movie by TMDb id.
//
// @Summary Movie details
// @Tags Movies
// @Produce json
// @Param tmdb_id path int true "TMDb movie id"
// @Success 200 {object} APIResponse{data=MovieDetailResponse}
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /movies/{tmdb_id}/ [get]
func (rt *Router) handleMovieDetail(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := int64Param(r, "tmdb_id")
	if !ok {
		rw.BadRequest("Invalid TMDB ID")
		return
	}

	d, err := rt.deps.Catalog.Detail(r.Context(), id, optionalUserID(r))
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(MovieDetailResponse{
		Movie:      d.Movie,
		TMDb:       d.Details,
		IsFavorite: d.IsFavorite,
		UserRating: d.UserRating,
	})
}
