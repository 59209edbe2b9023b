// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package tmdb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/reelmatch/internal/cache"
	"github.com/tomtom215/reelmatch/internal/logging"
)

// Cache TTLs per endpoint.
const (
	TrendingTTL = time.Hour
	PopularTTL  = 2 * time.Hour
	DetailsTTL  = 24 * time.Hour
	SimilarTTL  = 12 * time.Hour
	SearchTTL   = time.Hour
	GenresTTL   = 24 * time.Hour
	DiscoverTTL = 2 * time.Hour
)

// Cache key prefixes for the list endpoints cleared after a sync.
const (
	trendingPrefix = "trending_movies_"
	popularPrefix  = "popular_movies_"
	genresKey      = "movie_genres"
)

// TrendingKey returns the cache key for a trending page.
func TrendingKey(timeWindow string, page int) string {
	return fmt.Sprintf("%s%s_%d", trendingPrefix, timeWindow, page)
}

// PopularKey returns the cache key for a popular page.
func PopularKey(page int) string { return popularPrefix + strconv.Itoa(page) }

// DetailsKey returns the cache key for movie details.
func DetailsKey(id int64) string { return "movie_details_" + strconv.FormatInt(id, 10) }

// SimilarKey returns the cache key for a similar-movies page.
func SimilarKey(id int64, page int) string { return fmt.Sprintf("similar_movies_%d_%d", id, page) }

// SearchKey returns the cache key for a search page. year is appended when
// positive.
func SearchKey(query string, page, year int) string {
	key := fmt.Sprintf("search_movies_%s_%d", query, page)
	if year > 0 {
		key += "_" + strconv.Itoa(year)
	}
	return key
}

// GenreKey returns the cache key for a discover-by-genre page.
func GenreKey(genreID, page int) string { return fmt.Sprintf("movies_by_genre_%d_%d", genreID, page) }

// CachedClient serves TMDb responses from a cache.Backend and falls back
// to the wrapped API on a miss. Failed upstream calls are not cached.
type CachedClient struct {
	api   API
	cache cache.Backend
	group singleflight.Group
}

// NewCachedClient wraps api with backend.
func NewCachedClient(api API, backend cache.Backend) *CachedClient {
	return &CachedClient{api: api, cache: backend}
}

// cached returns key from the cache or loads it once via fetch.
func cached[T any](ctx context.Context, c *CachedClient, key string, ttl time.Duration, fetch func() (*T, error)) (*T, error) {
	v, ok, err := cache.GetJSON[T](ctx, c.cache, key)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("TMDb cache read failed")
	}
	if ok {
		logging.Ctx(ctx).Debug().Str("key", key).Msg("Returning cached TMDb response")
		return &v, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		out, err := fetch()
		if err != nil {
			return nil, err
		}
		if err := cache.SetJSON(ctx, c.cache, key, out, ttl); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("TMDb cache write failed")
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*T), nil
}

// TrendingMovies returns a cached trending page.
func (c *CachedClient) TrendingMovies(ctx context.Context, timeWindow string, page int) (*MovieList, error) {
	tw, err := normalizeTimeWindow(timeWindow)
	if err != nil {
		return nil, err
	}
	return cached(ctx, c, TrendingKey(tw, page), TrendingTTL, func() (*MovieList, error) {
		return c.api.TrendingMovies(ctx, tw, page)
	})
}

// PopularMovies returns a cached popular page.
func (c *CachedClient) PopularMovies(ctx context.Context, page int) (*MovieList, error) {
	return cached(ctx, c, PopularKey(page), PopularTTL, func() (*MovieList, error) {
		return c.api.PopularMovies(ctx, page)
	})
}

// MovieDetails returns cached details. The key does not include
// appendToResponse.
func (c *CachedClient) MovieDetails(ctx context.Context, id int64, appendToResponse string) (*MovieDetails, error) {
	return cached(ctx, c, DetailsKey(id), DetailsTTL, func() (*MovieDetails, error) {
		return c.api.MovieDetails(ctx, id, appendToResponse)
	})
}

// SimilarMovies returns a cached similar-movies page.
func (c *CachedClient) SimilarMovies(ctx context.Context, id int64, page int) (*MovieList, error) {
	return cached(ctx, c, SimilarKey(id, page), SimilarTTL, func() (*MovieList, error) {
		return c.api.SimilarMovies(ctx, id, page)
	})
}

// SearchMovies returns a cached search page.
func (c *CachedClient) SearchMovies(ctx context.Context, query string, page, year int) (*MovieList, error) {
	return cached(ctx, c, SearchKey(query, page, year), SearchTTL, func() (*MovieList, error) {
		return c.api.SearchMovies(ctx, query, page, year)
	})
}

// Genres returns the cached genre list.
func (c *CachedClient) Genres(ctx context.Context) (*GenreList, error) {
	return cached(ctx, c, genresKey, GenresTTL, func() (*GenreList, error) {
		return c.api.Genres(ctx)
	})
}

// MoviesByGenre returns a cached discover page.
func (c *CachedClient) MoviesByGenre(ctx context.Context, genreID, page int) (*MovieList, error) {
	return cached(ctx, c, GenreKey(genreID, page), DiscoverTTL, func() (*MovieList, error) {
		return c.api.MoviesByGenre(ctx, genreID, page)
	})
}

// ClearListCaches drops every cached trending and popular page.
func (c *CachedClient) ClearListCaches(ctx context.Context) error {
	for _, prefix := range []string{trendingPrefix, popularPrefix} {
		if err := c.cache.DeletePrefix(ctx, prefix); err != nil {
			return fmt.Errorf("clear %s cache: %w", prefix, err)
		}
	}
	return nil
}

// ClearGenreCache drops the cached genre list.
func (c *CachedClient) ClearGenreCache(ctx context.Context) error {
	return c.cache.Delete(ctx, genresKey)
}

var _ API = (*CachedClient)(nil)
