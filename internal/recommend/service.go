// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tomtom215/reelmatch/internal/cache"
	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/metrics"
	"github.com/tomtom215/reelmatch/internal/models"
)

// Service errors. Messages are returned to API clients verbatim.
var (
	ErrMissingInteractionFields = errors.New("movie_id and interaction_type are required")
	ErrInvalidInteractionType   = errors.New("invalid interaction_type")
	ErrMovieNotFound            = errors.New("Movie not found") //nolint:revive,stylecheck // user-facing message
	ErrUpstream                 = errors.New("Failed to fetch trending movies") //nolint:revive,stylecheck // user-facing message
)

// Cache TTLs for service-level results.
const (
	PersonalizedCacheTTL = 10 * time.Minute
	TrendingCacheTTL     = 15 * time.Minute
)

// Fallback recommendation values.
const (
	FallbackScore  = 0.6
	FallbackReason = "Popular movies trending now"

	fallbackMinPopularity  = 10
	fallbackMinVoteAverage = 6.0

	// HybridAlgorithmLabel is stored in Recommendation.Metadata["algorithm"].
	HybridAlgorithmLabel = "hybrid_engine"
)

// Store is the catalog and activity storage the service reads and writes.
type Store interface {
	GetMovieByID(ctx context.Context, id int64) (*models.Movie, error)
	MoviesByIDs(ctx context.Context, ids []int64) (map[int64]*models.Movie, error)
	ListMovies(ctx context.Context, filter models.MovieFilter) ([]models.Movie, int, error)
	CreateInteraction(ctx context.Context, in *models.Interaction) (int64, error)
}

// Recommender produces hybrid recommendations. *Engine implements it.
type Recommender interface {
	Recommend(ctx context.Context, req Request) (*Response, error)
	InvalidateUser(userID int64)
	Status() Status
}

// TrendingSource fetches TMDb trending movies and syncs them into the catalog.
type TrendingSource interface {
	SyncTrending(ctx context.Context, timeWindow string, limit int) ([]models.Movie, error)
}

// InteractionPublisher announces tracked interactions.
type InteractionPublisher interface {
	PublishInteraction(ctx context.Context, in *models.Interaction) error
}

// Service is the recommendation entry point used by the HTTP layer and tasks.
type Service struct {
	engine    Recommender
	store     Store
	trending  TrendingSource
	cache     cache.Backend
	publisher InteractionPublisher
	now       func() time.Time
}

// NewService wires the service. publisher may be nil.
func NewService(engine Recommender, store Store, trending TrendingSource, c cache.Backend, publisher InteractionPublisher) *Service {
	return &Service{
		engine:    engine,
		store:     store,
		trending:  trending,
		cache:     c,
		publisher: publisher,
		now:       time.Now,
	}
}

// PersonalizedKey is the cache key for a user's personalized list.
func PersonalizedKey(userID int64, limit int) string {
	return fmt.Sprintf("user_recommendations_%d_%d", userID, limit)
}

func personalizedPrefix(userID int64) string {
	return fmt.Sprintf("user_recommendations_%d_", userID)
}

// TrendingKeyPrefix prefixes every trending recommendation cache key.
const TrendingKeyPrefix = "trending_recommendations_"

// TrendingKey is the cache key for trending recommendations.
func TrendingKey(limit int) string {
	return TrendingKeyPrefix + strconv.Itoa(limit)
}

// Personalized returns hybrid recommendations for a user, falling back to
// popular catalog movies when the engine fails or returns nothing.
func (s *Service) Personalized(ctx context.Context, userID int64, limit int) ([]models.Recommendation, error) {
	logger := logging.Ctx(ctx)
	key := PersonalizedKey(userID, limit)

	if cached, ok, err := cache.GetJSON[[]models.Recommendation](ctx, s.cache, key); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Recommendation cache read failed")
	} else if ok {
		return cached, nil
	}

	recs, err := s.Generate(ctx, userID, limit)
	switch {
	case err != nil:
		logger.Error().Err(err).Int64("user_id", userID).Msg("Hybrid engine failed, using popular fallback")
		metrics.RecommendationFallbacks.WithLabelValues("error").Inc()
		recs, err = s.fallback(ctx, limit)
	case len(recs) == 0:
		metrics.RecommendationFallbacks.WithLabelValues("empty").Inc()
		recs, err = s.fallback(ctx, limit)
	}
	if err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, s.cache, key, recs, PersonalizedCacheTTL); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Recommendation cache write failed")
	}
	return recs, nil
}

// Generate runs the hybrid engine and resolves the scored movies. It does not
// consult the service cache or fall back.
func (s *Service) Generate(ctx context.Context, userID int64, limit int) ([]models.Recommendation, error) {
	resp, err := s.engine.Recommend(ctx, Request{UserID: userID, Limit: limit})
	if err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return []models.Recommendation{}, nil
	}

	ids := make([]int64, len(resp.Items))
	for i, it := range resp.Items {
		ids[i] = it.MovieID
	}
	movies, err := s.store.MoviesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load recommended movies: %w", err)
	}

	now := s.now().UTC()
	uid := userID
	recs := make([]models.Recommendation, 0, len(resp.Items))
	for _, it := range resp.Items {
		movie, ok := movies[it.MovieID]
		if !ok {
			continue
		}
		recs = append(recs, models.Recommendation{
			UserID:    &uid,
			MovieID:   it.MovieID,
			Movie:     movie,
			Type:      models.RecHybrid,
			Score:     it.Score,
			Reason:    it.Reason,
			Metadata:  map[string]any{"algorithm": HybridAlgorithmLabel},
			CreatedAt: now,
		})
	}
	return recs, nil
}

func (s *Service) fallback(ctx context.Context, limit int) ([]models.Recommendation, error) {
	movies, _, err := s.store.ListMovies(ctx, models.MovieFilter{
		MinPopularity:  fallbackMinPopularity,
		MinVoteAverage: fallbackMinVoteAverage,
		OrderBy:        []string{"-" + models.SortPopularity},
		Limit:          limit,
	})
	if err != nil {
		return nil, fmt.Errorf("load fallback movies: %w", err)
	}

	now := s.now().UTC()
	recs := make([]models.Recommendation, 0, len(movies))
	for i := range movies {
		m := movies[i]
		recs = append(recs, models.Recommendation{
			MovieID:   m.ID,
			Movie:     &m,
			Type:      models.RecPopular,
			Score:     FallbackScore,
			Reason:    FallbackReason,
			CreatedAt: now,
		})
	}
	return recs, nil
}

// Trending returns the current TMDb weekly trending movies, synced into the
// catalog.
func (s *Service) Trending(ctx context.Context, limit int) ([]models.Movie, error) {
	logger := logging.Ctx(ctx)
	key := TrendingKey(limit)

	if cached, ok, err := cache.GetJSON[[]models.Movie](ctx, s.cache, key); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Trending cache read failed")
	} else if ok {
		return cached, nil
	}

	movies, err := s.trending.SyncTrending(ctx, "week", limit)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch trending movies")
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if movies == nil {
		movies = []models.Movie{}
	}

	if err := cache.SetJSON(ctx, s.cache, key, movies, TrendingCacheTTL); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Trending cache write failed")
	}
	return movies, nil
}

// TrackInput is a request to record an interaction.
type TrackInput struct {
	UserID   int64
	MovieID  int64
	Type     models.InteractionType
	Value    *float64
	Metadata map[string]any
}

// TrackInteraction validates and stores an interaction, then publishes it.
// Publishing is best effort.
func (s *Service) TrackInteraction(ctx context.Context, in TrackInput) (int64, error) {
	if in.MovieID == 0 || in.Type == "" {
		return 0, ErrMissingInteractionFields
	}
	if !in.Type.Valid() {
		return 0, ErrInvalidInteractionType
	}

	if _, err := s.store.GetMovieByID(ctx, in.MovieID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return 0, ErrMovieNotFound
		}
		return 0, fmt.Errorf("lookup movie: %w", err)
	}

	interaction := &models.Interaction{
		UserID:    in.UserID,
		MovieID:   in.MovieID,
		Type:      in.Type,
		Value:     in.Value,
		Metadata:  in.Metadata,
		CreatedAt: s.now().UTC(),
	}
	id, err := s.store.CreateInteraction(ctx, interaction)
	if err != nil {
		return 0, fmt.Errorf("store interaction: %w", err)
	}
	interaction.ID = id

	if s.publisher != nil {
		if err := s.publisher.PublishInteraction(ctx, interaction); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int64("interaction_id", id).Msg("Failed to publish interaction event")
		}
	}
	return id, nil
}

// InvalidateUser drops every cached recommendation list for a user.
func (s *Service) InvalidateUser(ctx context.Context, userID int64) error {
	s.engine.InvalidateUser(userID)
	if err := s.cache.DeletePrefix(ctx, personalizedPrefix(userID)); err != nil {
		return fmt.Errorf("invalidate user %d: %w", userID, err)
	}
	return nil
}

// Status returns the engine status snapshot.
func (s *Service) Status() Status {
	return s.engine.Status()
}
