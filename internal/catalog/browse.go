// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/models"
	"github.com/tomtom215/reelmatch/internal/tmdb"
)

// MoviePage is one locally paginated page of synced movies.
type MoviePage struct {
	Movies     []models.Movie
	Pagination models.Pagination

	// Search metadata, set by Search only.
	SearchQuery  string
	TotalResults int
}

// MovieDetail is a catalog movie with its full TMDb details and the
// viewer's relation to it.
type MovieDetail struct {
	Movie      models.Movie
	Details    *tmdb.MovieDetails
	IsFavorite bool
	UserRating *float64
}

// Trending syncs a TMDb trending page and paginates it locally.
func (s *Service) Trending(ctx context.Context, timeWindow string, page, pageSize int) (*MoviePage, error) {
	list, err := s.api.TrendingMovies(ctx, timeWindow, page)
	if err != nil {
		if errors.Is(err, tmdb.ErrInvalidTimeWindow) {
			return nil, err
		}
		logging.Ctx(ctx).Error().Err(err).Str("time_window", timeWindow).Msg("Error fetching trending movies")
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return s.syncPage(ctx, list, pageSize), nil
}

// Popular syncs a TMDb popular page and paginates it locally.
func (s *Service) Popular(ctx context.Context, page, pageSize int) (*MoviePage, error) {
	list, err := s.api.PopularMovies(ctx, page)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Error fetching popular movies")
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return s.syncPage(ctx, list, pageSize), nil
}

// Search runs a TMDb title search. year is ignored when zero.
func (s *Service) Search(ctx context.Context, query string, page, year, pageSize int) (*MoviePage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrQueryRequired
	}

	list, err := s.api.SearchMovies(ctx, query, page, year)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("query", query).Msg("Error searching movies")
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	out := s.syncPage(ctx, list, pageSize)
	out.SearchQuery = query
	out.TotalResults = list.TotalResults
	return out, nil
}

// syncPage upserts a TMDb page and returns local page 1 of the synced movies.
// TMDb paging is applied upstream, so the local page is always the first.
func (s *Service) syncPage(ctx context.Context, list *tmdb.MovieList, pageSize int) *MoviePage {
	synced := s.syncAll(ctx, list.Results)
	p := models.Paginate(synced, 1, pageSize)
	return &MoviePage{Movies: p.Items, Pagination: p.Pagination}
}

// List browses the local catalog. page and pageSize are normalized onto the
// filter's Limit and Offset.
func (s *Service) List(ctx context.Context, filter models.MovieFilter, page, pageSize int) (*MoviePage, error) {
	page, pageSize = models.NormalizePage(page, pageSize)
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	movies, total, err := s.store.ListMovies(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	return &MoviePage{Movies: movies, Pagination: models.NewPagination(page, pageSize, total)}, nil
}

// Genres returns the genre list, refreshing it from TMDb first. The local
// list is served when TMDb is unavailable and genres were synced before.
func (s *Service) Genres(ctx context.Context) ([]models.Genre, error) {
	_, syncErr := s.SyncGenres(ctx)

	genres, err := s.store.ListGenres(ctx)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	if syncErr != nil {
		if len(genres) == 0 {
			return nil, syncErr
		}
		logging.Ctx(ctx).Warn().Err(syncErr).Msg("Serving stored genres, TMDb refresh failed")
	}
	return genres, nil
}

// Detail fetches full TMDb details, syncs the movie, and annotates it for the
// viewer. viewerID is nil for anonymous requests.
func (s *Service) Detail(ctx context.Context, tmdbID int64, viewerID *int64) (*MovieDetail, error) {
	details, err := s.api.MovieDetails(ctx, tmdbID, tmdb.DefaultAppendToResponse)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("tmdb_id", tmdbID).Msg("TMDb movie details unavailable")
		return nil, ErrMovieNotFound
	}
	if details == nil || details.ID == 0 {
		return nil, ErrMovieNotFound
	}

	movie, err := s.CreateOrUpdateMovie(ctx, details.AsResult())
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Int64("tmdb_id", tmdbID).Msg("Failed to process movie data")
		return nil, fmt.Errorf("%w: %w", ErrSyncFailed, err)
	}

	out := &MovieDetail{Movie: *movie, Details: details}
	if viewerID == nil {
		return out, nil
	}

	fav, err := s.store.IsFavorite(ctx, *viewerID, movie.ID)
	if err != nil {
		return nil, fmt.Errorf("favorite lookup: %w", err)
	}
	out.IsFavorite = fav

	rating, err := s.store.GetRating(ctx, *viewerID, movie.ID)
	switch {
	case err == nil:
		v := rating.Rating
		out.UserRating = &v
	case !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("rating lookup: %w", err)
	}
	return out, nil
}
