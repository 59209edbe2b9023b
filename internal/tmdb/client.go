// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/metrics"
)

// DefaultAppendToResponse is requested with movie details.
const DefaultAppendToResponse = "credits,videos"

// maxErrorBodySize bounds how much of an error response is kept.
const maxErrorBodySize = 64 * 1024

var (
	// ErrNotConfigured is returned by every call when no API key is set.
	ErrNotConfigured = errors.New("tmdb: API key not configured")

	// ErrInvalidTimeWindow rejects trending windows other than day or week.
	ErrInvalidTimeWindow = errors.New("tmdb: time window must be day or week")
)

// APIError is a non-200 response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tmdb: unexpected status %d: %s", e.StatusCode, e.Body)
}

// API is the set of TMDb operations used by the catalog. Implemented by
// Client and CachedClient.
type API interface {
	TrendingMovies(ctx context.Context, timeWindow string, page int) (*MovieList, error)
	PopularMovies(ctx context.Context, page int) (*MovieList, error)
	MovieDetails(ctx context.Context, id int64, appendToResponse string) (*MovieDetails, error)
	SimilarMovies(ctx context.Context, id int64, page int) (*MovieList, error)
	SearchMovies(ctx context.Context, query string, page, year int) (*MovieList, error)
	Genres(ctx context.Context) (*GenreList, error)
	MoviesByGenre(ctx context.Context, genreID, page int) (*MovieList, error)
}

// Client talks to the TMDb API directly.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a client from cfg.
func NewClient(cfg *config.TMDbConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    newBreaker(BreakerName),
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// BreakerState returns the current circuit breaker state.
func (c *Client) BreakerState() string {
	return stateToString(c.breaker.State())
}

// get fetches path with params and decodes the body into out. endpoint
// labels the request in metrics.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	start := time.Now()
	if c.apiKey == "" {
		logging.Error().Str("endpoint", endpoint).Msg("TMDb API key not configured")
		metrics.RecordTMDbRequest(endpoint, "not_configured", time.Since(start))
		return ErrNotConfigured
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, path, params)
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
			metrics.CircuitBreakerRequests.WithLabelValues(BreakerName, "rejected").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(BreakerName, "failure").Inc()
		}
		metrics.RecordTMDbRequest(endpoint, outcome, time.Since(start))
		logging.Ctx(ctx).Error().Err(err).Str("endpoint", endpoint).Str("path", path).Msg("TMDb API request failed")
		return err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(BreakerName, "success").Inc()

	if err := json.Unmarshal(body, out); err != nil {
		metrics.RecordTMDbRequest(endpoint, "decode_error", time.Since(start))
		return fmt.Errorf("tmdb: decode %s response: %w", endpoint, err)
	}
	metrics.RecordTMDbRequest(endpoint, "success", time.Since(start))
	return nil
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("tmdb: rate limiter: %w", err)
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("tmdb: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb: request %s: %w", path, redactKey(err, c.apiKey))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logging.Debug().Err(cerr).Msg("Failed to close TMDb response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tmdb: read body: %w", err)
	}
	return body, nil
}

// redactKey strips the API key from transport errors, which embed the URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}

func pageParams(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

func normalizeTimeWindow(tw string) (string, error) {
	switch tw {
	case "":
		return "week", nil
	case "day", "week":
		return tw, nil
	}
	return "", ErrInvalidTimeWindow
}

// TrendingMovies fetches /trending/movie/{day|week}.
func (c *Client) TrendingMovies(ctx context.Context, timeWindow string, page int) (*MovieList, error) {
	tw, err := normalizeTimeWindow(timeWindow)
	if err != nil {
		return nil, err
	}
	var out MovieList
	if err := c.get(ctx, "trending", "/trending/movie/"+tw, pageParams(page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PopularMovies fetches /movie/popular.
func (c *Client) PopularMovies(ctx context.Context, page int) (*MovieList, error) {
	var out MovieList
	if err := c.get(ctx, "popular", "/movie/popular", pageParams(page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MovieDetails fetches /movie/{id}. An empty appendToResponse requests
// DefaultAppendToResponse.
func (c *Client) MovieDetails(ctx context.Context, id int64, appendToResponse string) (*MovieDetails, error) {
	if appendToResponse == "" {
		appendToResponse = DefaultAppendToResponse
	}
	var out MovieDetails
	params := url.Values{"append_to_response": {appendToResponse}}
	if err := c.get(ctx, "details", "/movie/"+strconv.FormatInt(id, 10), params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SimilarMovies fetches /movie/{id}/similar.
func (c *Client) SimilarMovies(ctx context.Context, id int64, page int) (*MovieList, error) {
	var out MovieList
	if err := c.get(ctx, "similar", "/movie/"+strconv.FormatInt(id, 10)+"/similar", pageParams(page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchMovies queries /search/movie without adult titles. year <= 0 means
// any year.
func (c *Client) SearchMovies(ctx context.Context, query string, page, year int) (*MovieList, error) {
	params := pageParams(page)
	params.Set("query", query)
	params.Set("include_adult", "false")
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}
	var out MovieList
	if err := c.get(ctx, "search", "/search/movie", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Genres fetches /genre/movie/list.
func (c *Client) Genres(ctx context.Context) (*GenreList, error) {
	var out GenreList
	if err := c.get(ctx, "genres", "/genre/movie/list", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MoviesByGenre queries /discover/movie sorted by popularity.
func (c *Client) MoviesByGenre(ctx context.Context, genreID, page int) (*MovieList, error) {
	params := pageParams(page)
	params.Set("with_genres", strconv.Itoa(genreID))
	params.Set("sort_by", "popularity.desc")
	params.Set("include_adult", "false")
	var out MovieList
	if err := c.get(ctx, "discover", "/discover/movie", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

var _ API = (*Client)(nil)
