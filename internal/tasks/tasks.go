// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/reelmatch/internal/cache"
	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/events"
	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/models"
	"github.com/tomtom215/reelmatch/internal/recommend"
	"github.com/tomtom215/reelmatch/internal/tmdb"
)

// Task names.
const (
	SyncTMDbData                    = "sync_tmdb_data"
	SyncGenres                      = "sync_genres"
	UpdateMoviePopularity           = "update_movie_popularity"
	GenerateUserRecommendations     = "generate_user_recommendations"
	CleanupExpired                  = "cleanup_expired"
	UpdateSimilarityMatrix          = "update_similarity_matrix"
	GenerateTrendingRecommendations = "generate_trending_recommendations"
)

// Sync categories.
const (
	CategoryTrending = "trending"
	CategoryPopular  = "popular"
)

// Batch and trending generation constants.
const (
	UserRecommendationTTL = 7 * 24 * time.Hour
	TrendingTTL           = 24 * time.Hour
	TrendingLimit         = 20
	TrendingScore         = 0.9
	TrendingReason        = "Currently trending on TMDb"

	// TrendingCacheKey is the persisted trending snapshot row.
	TrendingCacheKey = "trending_recommendations"
)

// ListSource fetches raw TMDb list pages.
type ListSource interface {
	TrendingMovies(ctx context.Context, timeWindow string, page int) (*tmdb.MovieList, error)
	PopularMovies(ctx context.Context, page int) (*tmdb.MovieList, error)
}

// ListCache drops cached TMDb responses after a sync. *tmdb.CachedClient
// implements it.
type ListCache interface {
	ClearListCaches(ctx context.Context) error
	ClearGenreCache(ctx context.Context) error
}

// CatalogSyncer writes TMDb results into the catalog. *catalog.Service
// implements it.
type CatalogSyncer interface {
	BulkSyncMovies(ctx context.Context, results []tmdb.MovieResult) int
	SyncGenres(ctx context.Context) (int, error)
	SyncTrending(ctx context.Context, timeWindow string, limit int) ([]models.Movie, error)
}

// Store is the persistence the jobs need. *database.DB implements it.
type Store interface {
	UpdateMoviePopularityFromRatings(ctx context.Context) (int64, error)
	ListActiveUsersWithActivity(ctx context.Context, limit int) ([]int64, error)
	ReplaceRecommendations(ctx context.Context, userID *int64, recType models.RecommendationType, recs []models.Recommendation) (int, error)
	DeleteExpiredRecommendations(ctx context.Context, now time.Time) (int64, error)
	DeleteExpiredCacheEntries(ctx context.Context, now time.Time) (int64, error)
	PutCacheEntry(ctx context.Context, e *models.CacheEntry) error
}

// UserRecommender generates and invalidates per-user recommendations.
// *recommend.Service implements it.
type UserRecommender interface {
	Generate(ctx context.Context, userID int64, limit int) ([]models.Recommendation, error)
	InvalidateUser(ctx context.Context, userID int64) error
}

// Trainer rebuilds the recommendation model.
type Trainer interface {
	Train(ctx context.Context) error
}

// Publisher announces job outcomes. *events.Bus implements it.
type Publisher interface {
	PublishCatalogSynced(ctx context.Context, p events.CatalogSyncedPayload) error
	PublishRecommendationsGenerated(ctx context.Context, p events.RecommendationsPayload) error
}

// TrendingBroadcaster notifies websocket clients. *websocket.Hub
// implements it.
type TrendingBroadcaster interface {
	BroadcastTrendingUpdated(count int)
}

// SyncProgress observes SyncTMDbData page by page. cmd/sync prints it.
type SyncProgress interface {
	CategoryStarted(category string)
	PageSynced(category string, page, received, synced int)
	PageFailed(category string, page int, err error)
	CategoryFinished(category string, synced int)
}

// Deps wires the jobs. ListCache, Cache, Publisher, Broadcaster and
// Progress may be nil.
type Deps struct {
	TMDb        ListSource
	ListCache   ListCache
	Catalog     CatalogSyncer
	Store       Store
	Recommender UserRecommender
	Trainer     Trainer
	Cache       cache.Backend
	Publisher   Publisher
	Broadcaster TrendingBroadcaster
	Progress    SyncProgress
	Sync        config.SyncConfig
	Clock       clockwork.Clock
}

// Tasks holds the job implementations.
type Tasks struct {
	d Deps
}

// New creates the jobs, filling zero sync settings with defaults.
func New(d Deps) *Tasks {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Sync.Pages <= 0 {
		d.Sync.Pages = 5
	}
	if len(d.Sync.Categories) == 0 {
		d.Sync.Categories = []string{CategoryTrending, CategoryPopular}
	}
	if d.Sync.RetryBaseDelay <= 0 {
		d.Sync.RetryBaseDelay = 60 * time.Second
	}
	if d.Sync.RecommendUserLimit <= 0 {
		d.Sync.RecommendUserLimit = 100
	}
	if d.Sync.RecommendPerUser <= 0 {
		d.Sync.RecommendPerUser = 20
	}
	return &Tasks{d: d}
}

// Register adds every job to r using the configured sync settings.
func (t *Tasks) Register(r *Runner) {
	r.Register(SyncTMDbData, func(ctx context.Context) (Result, error) {
		return t.SyncTMDbData(ctx, t.d.Sync.Categories, t.d.Sync.Pages)
	})
	r.Register(SyncGenres, t.SyncGenres)
	r.Register(UpdateMoviePopularity, t.UpdateMoviePopularity)
	r.Register(GenerateUserRecommendations, t.GenerateUserRecommendations)
	r.Register(CleanupExpired, t.CleanupExpired)
	r.Register(UpdateSimilarityMatrix, t.UpdateSimilarityMatrix)
	r.Register(GenerateTrendingRecommendations, t.GenerateTrendingRecommendations)
}

// SyncTMDbData pulls pages 1..pages of each category into the catalog.
// A page that keeps failing after the retries is counted and skipped.
func (t *Tasks) SyncTMDbData(ctx context.Context, categories []string, pages int) (Result, error) {
	logger := logging.Ctx(ctx)
	logger.Info().Strs("categories", categories).Int("pages", pages).Msg("Starting TMDb data sync")

	total, failed := 0, 0
	for _, category := range categories {
		fetch, ok := t.pageFetcher(category)
		if !ok {
			logger.Warn().Str("category", category).Msg("Unknown sync category, skipping")
			continue
		}

		if t.d.Progress != nil {
			t.d.Progress.CategoryStarted(category)
		}
		categoryTotal := 0
		for page := 1; page <= pages; page++ {
			var list *tmdb.MovieList
			err := t.retry(ctx, func() error {
				var err error
				list, err = fetch(ctx, page)
				return err
			})
			if err != nil {
				if ctx.Err() != nil {
					return Result{}, ctx.Err()
				}
				failed++
				logger.Error().Err(err).Str("category", category).Int("page", page).Msg("Error syncing page")
				if t.d.Progress != nil {
					t.d.Progress.PageFailed(category, page, err)
				}
				continue
			}
			n := t.d.Catalog.BulkSyncMovies(ctx, list.Results)
			categoryTotal += n
			logger.Debug().Str("category", category).Int("page", page).Int("synced", n).Msg("Synced page")
			if t.d.Progress != nil {
				t.d.Progress.PageSynced(category, page, len(list.Results), n)
			}
		}
		if t.d.Progress != nil {
			t.d.Progress.CategoryFinished(category, categoryTotal)
		}
		total += categoryTotal
		logger.Info().Str("category", category).Int("synced", categoryTotal).Msg("Synced category")
	}

	if t.d.ListCache != nil {
		if err := t.d.ListCache.ClearListCaches(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to clear TMDb list caches")
		}
	}
	if t.d.Publisher != nil {
		payload := events.CatalogSyncedPayload{Synced: total, Failed: failed, Categories: categories, Pages: pages}
		if err := t.d.Publisher.PublishCatalogSynced(ctx, payload); err != nil {
			logger.Warn().Err(err).Msg("Failed to publish catalog sync event")
		}
	}

	return Result{
		Message: fmt.Sprintf("Successfully synced %d movies", total),
		Data:    map[string]any{"synced": total, "failed_pages": failed},
	}, nil
}

func (t *Tasks) pageFetcher(category string) (func(context.Context, int) (*tmdb.MovieList, error), bool) {
	switch category {
	case CategoryTrending:
		return func(ctx context.Context, page int) (*tmdb.MovieList, error) {
			return t.d.TMDb.TrendingMovies(ctx, "week", page)
		}, true
	case CategoryPopular:
		return t.d.TMDb.PopularMovies, true
	default:
		return nil, false
	}
}

// retry runs fn once plus up to RetryAttempts retries, waiting
// base·2^n before retry n.
func (t *Tasks) retry(ctx context.Context, fn func() error) error {
	delay := t.d.Sync.RetryBaseDelay
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= t.d.Sync.RetryAttempts {
			return fmt.Errorf("max retry attempts reached: %w", err)
		}
		logging.Ctx(ctx).Warn().Err(err).Int("attempt", attempt+1).Dur("delay", delay).Msg("Retry attempt")
		select {
		case <-t.d.Clock.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
}

// SyncGenres refreshes the genre table and drops the cached list.
func (t *Tasks) SyncGenres(ctx context.Context) (Result, error) {
	created, err := t.d.Catalog.SyncGenres(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("sync genres: %w", err)
	}
	if t.d.ListCache != nil {
		if err := t.d.ListCache.ClearGenreCache(ctx); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to clear genre cache")
		}
	}
	return Result{
		Message: fmt.Sprintf("Successfully synced %d genres", created),
		Data:    map[string]any{"created": created},
	}, nil
}

// UpdateMoviePopularity recomputes popularity for rated movies.
func (t *Tasks) UpdateMoviePopularity(ctx context.Context) (Result, error) {
	n, err := t.d.Store.UpdateMoviePopularityFromRatings(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("update popularity: %w", err)
	}
	return Result{
		Message: fmt.Sprintf("Updated popularity for %d movies", n),
		Data:    map[string]any{"updated": n},
	}, nil
}

// GenerateUserRecommendations replaces the stored hybrid recommendations of
// up to RecommendUserLimit active users. One user's failure does not stop
// the batch.
func (t *Tasks) GenerateUserRecommendations(ctx context.Context) (Result, error) {
	logger := logging.Ctx(ctx)

	users, err := t.d.Store.ListActiveUsersWithActivity(ctx, t.d.Sync.RecommendUserLimit)
	if err != nil {
		return Result{}, fmt.Errorf("list active users: %w", err)
	}

	generated := 0
	var refreshed []int64
	for _, uid := range users {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		n, err := t.generateForUser(ctx, uid)
		if err != nil {
			logger.Error().Err(err).Int64("user_id", uid).Msg("Error generating recommendations for user")
			continue
		}
		generated += n
		refreshed = append(refreshed, uid)
		logger.Debug().Int64("user_id", uid).Int("count", n).Msg("Generated recommendations for user")
	}

	if t.d.Publisher != nil && len(refreshed) > 0 {
		payload := events.RecommendationsPayload{Users: len(refreshed), Generated: generated, UserIDs: refreshed}
		if err := t.d.Publisher.PublishRecommendationsGenerated(ctx, payload); err != nil {
			logger.Warn().Err(err).Msg("Failed to publish recommendations event")
		}
	}

	return Result{
		Message: fmt.Sprintf("Generated %d recommendations for %d users", generated, len(users)),
		Data:    map[string]any{"generated": generated, "users": len(users)},
	}, nil
}

func (t *Tasks) generateForUser(ctx context.Context, uid int64) (int, error) {
	recs, err := t.d.Recommender.Generate(ctx, uid, t.d.Sync.RecommendPerUser)
	if err != nil {
		return 0, err
	}

	now := t.d.Clock.Now().UTC()
	expires := now.Add(UserRecommendationTTL)
	for i := range recs {
		recs[i].Type = models.RecHybrid
		recs[i].ExpiresAt = &expires
		recs[i].CreatedAt = now
		recs[i].Metadata = map[string]any{
			"algorithm":    recommend.HybridAlgorithmLabel,
			"generated_at": now.Format(time.RFC3339),
		}
	}

	n, err := t.d.Store.ReplaceRecommendations(ctx, &uid, models.RecHybrid, recs)
	if err != nil {
		return 0, err
	}
	if err := t.d.Recommender.InvalidateUser(ctx, uid); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("user_id", uid).Msg("Failed to clear user recommendation cache")
	}
	return n, nil
}

// CleanupExpired deletes expired recommendations and cache rows.
func (t *Tasks) CleanupExpired(ctx context.Context) (Result, error) {
	now := t.d.Clock.Now().UTC()
	recs, recErr := t.d.Store.DeleteExpiredRecommendations(ctx, now)
	rows, rowErr := t.d.Store.DeleteExpiredCacheEntries(ctx, now)
	if err := errors.Join(recErr, rowErr); err != nil {
		return Result{}, fmt.Errorf("cleanup expired: %w", err)
	}
	return Result{
		Message: fmt.Sprintf("Cleaned up %d recommendations and %d cache entries", recs, rows),
		Data:    map[string]any{"recommendations": recs, "cache_entries": rows},
	}, nil
}

// UpdateSimilarityMatrix retrains the engine, rebuilding the user
// similarity data the collaborative algorithm uses.
func (t *Tasks) UpdateSimilarityMatrix(ctx context.Context) (Result, error) {
	if err := t.d.Trainer.Train(ctx); err != nil {
		return Result{}, fmt.Errorf("retrain engine: %w", err)
	}
	return Result{Message: "Updated recommendation model"}, nil
}

// GenerateTrendingRecommendations stores the first TrendingLimit movies of
// TMDb's weekly trending list as general recommendations.
func (t *Tasks) GenerateTrendingRecommendations(ctx context.Context) (Result, error) {
	logger := logging.Ctx(ctx)

	movies, err := t.d.Catalog.SyncTrending(ctx, "week", TrendingLimit)
	if err != nil {
		return Result{}, fmt.Errorf("fetch trending: %w", err)
	}
	if len(movies) == 0 {
		logger.Warn().Msg("No trending data received from TMDb")
		return Result{Message: "No trending data available"}, nil
	}

	now := t.d.Clock.Now().UTC()
	expires := now.Add(TrendingTTL)
	recs := make([]models.Recommendation, 0, len(movies))
	ids := make([]int64, 0, len(movies))
	for _, m := range movies {
		recs = append(recs, models.Recommendation{
			MovieID:   m.ID,
			Type:      models.RecTrending,
			Score:     TrendingScore,
			Reason:    TrendingReason,
			Metadata:  map[string]any{"source": "tmdb_trending"},
			CreatedAt: now,
			ExpiresAt: &expires,
		})
		ids = append(ids, m.ID)
	}

	n, err := t.d.Store.ReplaceRecommendations(ctx, nil, models.RecTrending, recs)
	if err != nil {
		return Result{}, fmt.Errorf("store trending recommendations: %w", err)
	}

	if t.d.Cache != nil {
		if err := t.d.Cache.DeletePrefix(ctx, recommend.TrendingKeyPrefix); err != nil {
			logger.Warn().Err(err).Msg("Failed to clear trending cache")
		}
	}

	data, err := json.Marshal(map[string]any{"movie_ids": ids, "generated_at": now.Format(time.RFC3339)})
	if err != nil {
		return Result{}, fmt.Errorf("encode trending snapshot: %w", err)
	}
	if err := t.d.Store.PutCacheEntry(ctx, &models.CacheEntry{
		Key:       TrendingCacheKey,
		Type:      models.CacheTrending,
		Data:      data,
		CreatedAt: now,
		ExpiresAt: expires,
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to store trending snapshot")
	}

	if t.d.Broadcaster != nil {
		t.d.Broadcaster.BroadcastTrendingUpdated(n)
	}

	return Result{
		Message: fmt.Sprintf("Generated %d trending recommendations", n),
		Data:    map[string]any{"generated": n},
	}, nil
}
