// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/models"
	"github.com/tomtom215/reelmatch/internal/tmdb"
)

// Store is the persistence the catalog needs. *database.DB implements it.
type Store interface {
	UpsertMovie(ctx context.Context, m *models.Movie) error
	GetMovieByID(ctx context.Context, id int64) (*models.Movie, error)
	ListMovies(ctx context.Context, filter models.MovieFilter) ([]models.Movie, int, error)
	UpsertGenre(ctx context.Context, tmdbID int, name string) (*models.Genre, bool, error)
	ListGenres(ctx context.Context) ([]models.Genre, error)

	AddFavorite(ctx context.Context, userID, movieID int64) (*models.Favorite, error)
	RemoveFavorite(ctx context.Context, userID, favoriteID int64) (int64, error)
	ListFavorites(ctx context.Context, userID int64) ([]models.Favorite, error)
	IsFavorite(ctx context.Context, userID, movieID int64) (bool, error)

	UpsertRating(ctx context.Context, userID, movieID int64, value float64, review string) (*models.Rating, bool, error)
	GetRating(ctx context.Context, userID, movieID int64) (*models.Rating, error)
	ListRatingsByUser(ctx context.Context, userID int64) ([]models.Rating, error)

	CreateInteraction(ctx context.Context, in *models.Interaction) (int64, error)
}

// Publisher announces interactions recorded by favorites and ratings.
type Publisher interface {
	PublishInteraction(ctx context.Context, in *models.Interaction) error
}

// Invalidator drops a user's cached recommendations.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID int64) error
}

// Service is the movie catalog service.
type Service struct {
	api          tmdb.API
	store        Store
	imageBaseURL string

	publisher   Publisher
	invalidator Invalidator
	now         func() time.Time
}

// NewService creates a catalog service. imageBaseURL prefixes poster and
// backdrop paths, e.g. https://image.tmdb.org/t/p/w500.
func NewService(api tmdb.API, store Store, imageBaseURL string) *Service {
	return &Service{
		api:          api,
		store:        store,
		imageBaseURL: strings.TrimRight(imageBaseURL, "/"),
		now:          time.Now,
	}
}

// SetInteractionHooks attaches the optional event publisher and
// recommendation cache invalidator. Either may be nil.
func (s *Service) SetInteractionHooks(p Publisher, inv Invalidator) {
	s.publisher = p
	s.invalidator = inv
}

// CreateOrUpdateMovie maps a TMDb result onto the catalog and upserts it by
// TMDb ID.
func (s *Service) CreateOrUpdateMovie(ctx context.Context, r tmdb.MovieResult) (*models.Movie, error) {
	if r.ID <= 0 {
		return nil, fmt.Errorf("tmdb movie has no id")
	}

	m := &models.Movie{
		TMDbID:           r.ID,
		Title:            r.Title,
		OriginalTitle:    r.OriginalTitle,
		Overview:         r.Overview,
		PosterPath:       s.imageURL(r.PosterPath),
		BackdropPath:     s.imageURL(r.BackdropPath),
		Adult:            r.Adult,
		OriginalLanguage: r.OriginalLanguage,
		Popularity:       r.Popularity,
		VoteAverage:      r.VoteAverage,
		VoteCount:        r.VoteCount,
		GenreIDs:         r.GenreIDs,
	}
	if r.ReleaseDate != "" {
		d, err := time.Parse(models.DateLayout, r.ReleaseDate)
		if err != nil {
			logging.Ctx(ctx).Warn().
				Str("release_date", r.ReleaseDate).
				Int64("tmdb_id", r.ID).
				Msg("Invalid release date format")
		} else {
			m.ReleaseDate = &d
		}
	}
	if m.GenreIDs == nil {
		m.GenreIDs = []int{}
	}

	if err := s.store.UpsertMovie(ctx, m); err != nil {
		return nil, fmt.Errorf("upsert movie %d: %w", r.ID, err)
	}
	logging.Ctx(ctx).Debug().Str("title", m.Title).Int64("tmdb_id", m.TMDbID).Msg("Synced movie")
	return m, nil
}

// imageURL expands a TMDb image path. Already absolute URLs pass through.
func (s *Service) imageURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return s.imageBaseURL + path
}

// BulkSyncMovies upserts each result and returns how many succeeded.
func (s *Service) BulkSyncMovies(ctx context.Context, results []tmdb.MovieResult) int {
	synced := s.syncAll(ctx, results)
	logging.Ctx(ctx).Info().Int("synced", len(synced)).Int("received", len(results)).Msg("Bulk synced movies")
	return len(synced)
}

// syncAll upserts results in order, skipping the failures.
func (s *Service) syncAll(ctx context.Context, results []tmdb.MovieResult) []models.Movie {
	out := make([]models.Movie, 0, len(results))
	for _, r := range results {
		m, err := s.CreateOrUpdateMovie(ctx, r)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Int64("tmdb_id", r.ID).Msg("Error creating/updating movie")
			continue
		}
		out = append(out, *m)
	}
	return out
}

// SyncGenres pulls the TMDb genre list and returns the number of newly
// created genres.
func (s *Service) SyncGenres(ctx context.Context) (int, error) {
	list, err := s.api.Genres(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	created := 0
	for _, g := range list.Genres {
		_, isNew, err := s.store.UpsertGenre(ctx, g.ID, g.Name)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Int("tmdb_id", g.ID).Str("name", g.Name).Msg("Error syncing genre")
			continue
		}
		if isNew {
			created++
		}
	}
	logging.Ctx(ctx).Info().Int("created", created).Msg("Synced genres")
	return created, nil
}

// SyncTrending fetches the first trending page, syncs it, and returns up to
// limit of the synced movies.
func (s *Service) SyncTrending(ctx context.Context, timeWindow string, limit int) ([]models.Movie, error) {
	list, err := s.api.TrendingMovies(ctx, timeWindow, 1)
	if err != nil {
		return nil, err
	}
	results := list.Results
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return s.syncAll(ctx, results), nil
}
