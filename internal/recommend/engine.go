// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelmatch/internal/metrics"
)

// Engine errors.
var (
	ErrNoDataProvider     = errors.New("data provider not set")
	ErrNoAlgorithms       = errors.New("no algorithms registered")
	ErrTrainingInProgress = errors.New("training already in progress")
	ErrInsufficientData   = errors.New("insufficient training data")
)

// Engine coordinates the recommendation algorithms and produces final
// recommendations. It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	algorithms map[string]Algorithm
	order      []string
	rerankers  []Reranker
	algMu      sync.RWMutex

	trainMu       sync.Mutex
	statusMu      sync.RWMutex
	trainStatus   TrainingStatus
	modelVersion  atomic.Int32
	lastTrainedAt atomic.Value // time.Time

	requestCount atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	errorCount   atomic.Int64

	cache   map[string]cacheEntry
	cacheMu sync.RWMutex

	dataProvider DataProvider
}

type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// NewEngine creates a new recommendation engine. The logger is used as
// given; callers tag it, e.g. with logging.WithComponent("recommend").
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		config:     cfg,
		logger:     logger,
		algorithms: make(map[string]Algorithm),
		cache:      make(map[string]cacheEntry),
	}
	e.lastTrainedAt.Store(time.Time{})
	return e, nil
}

// SetDataProvider sets the data provider for training and prediction.
func (e *Engine) SetDataProvider(dp DataProvider) {
	e.dataProvider = dp
}

// RegisterAlgorithm adds an algorithm. A second algorithm with the same name
// replaces the first.
func (e *Engine) RegisterAlgorithm(alg Algorithm) {
	e.algMu.Lock()
	defer e.algMu.Unlock()

	if _, exists := e.algorithms[alg.Name()]; !exists {
		e.order = append(e.order, alg.Name())
	}
	e.algorithms[alg.Name()] = alg
	e.logger.Info().Str("algorithm", alg.Name()).Msg("registered algorithm")
}

// SetReranker replaces the post-processing pipeline with a single reranker.
// A nil reranker disables reranking.
func (e *Engine) SetReranker(rr Reranker) {
	e.algMu.Lock()
	defer e.algMu.Unlock()

	if rr == nil {
		e.rerankers = nil
		return
	}
	e.rerankers = []Reranker{rr}
	e.logger.Info().Str("reranker", rr.Name()).Msg("registered reranker")
}

func (e *Engine) algorithm(name string) Algorithm {
	e.algMu.RLock()
	defer e.algMu.RUnlock()
	return e.algorithms[name]
}

// Recommend generates hybrid recommendations for a user.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	req = e.prepareRequest(req)
	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Int64("user_id", req.UserID).
		Int("limit", req.Limit).
		Logger()

	if resp := e.tryGetCachedResponse(req, start); resp != nil {
		logger.Debug().Msg("cache hit")
		return resp, nil
	}

	if e.dataProvider == nil {
		e.errorCount.Add(1)
		return nil, ErrNoDataProvider
	}
	if e.algorithmCount() == 0 {
		e.errorCount.Add(1)
		return nil, ErrNoAlgorithms
	}

	profile, err := e.dataProvider.LoadProfile(ctx, req.UserID)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("load profile: %w", err)
	}

	items, used := e.hybrid(ctx, profile, req.Limit, logger)
	items = e.applyRerankers(ctx, items, req.Limit)
	if len(items) > req.Limit {
		items = items[:req.Limit]
	}

	resp := &Response{
		Items:    items,
		Metadata: e.buildResponseMetadata(req, used, start),
	}
	e.cacheResponse(req, resp)

	metrics.RecordRecommendation("hybrid", time.Since(start), len(items))
	logger.Debug().
		Int("returned", len(items)).
		Strs("algorithms", used).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")

	return resp, nil
}

// prepareRequest applies defaults and generates a request ID if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = "rec-" + uuid.NewString()[:8]
	}
	if req.Limit <= 0 {
		req.Limit = e.config.Limits.DefaultLimit
	}
	if req.Limit > e.config.Limits.MaxLimit {
		req.Limit = e.config.Limits.MaxLimit
	}
	return req
}

// hybrid runs the algorithm mix for one profile, sorted best first.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) hybrid(ctx context.Context, profile *Profile, limit int, logger zerolog.Logger) ([]ScoredMovie, []string) {
	half := limit / 2

	var primary []string
	if len(profile.Ratings) >= e.config.MinRatingCount {
		primary = append(primary, AlgorithmCollaborative)
	}
	primary = append(primary, AlgorithmContent)

	results := e.runParallel(ctx, primary, profile, half, logger)

	var merged []ScoredMovie
	used := make([]string, 0, 3)
	for _, r := range results {
		if len(r.items) == 0 {
			continue
		}
		used = append(used, r.name)
		merged = append(merged, r.items...)
	}

	if len(merged) < limit {
		fill := e.runSingle(ctx, AlgorithmPopularity, profile, limit-len(merged))
		if fill.err != nil {
			logger.Warn().Err(fill.err).Str("algorithm", AlgorithmPopularity).Msg("algorithm prediction failed")
		} else if len(fill.items) > 0 {
			used = append(used, AlgorithmPopularity)
			merged = append(merged, fill.items...)
		}
	}

	return mergeScored(merged), used
}

type algResult struct {
	name  string
	items []ScoredMovie
	err   error
}

// runParallel runs the named algorithms concurrently. Failed or missing
// algorithms are logged and yield no items.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) runParallel(ctx context.Context, names []string, profile *Profile, limit int, logger zerolog.Logger) []algResult {
	results := make([]algResult, len(names))
	var wg sync.WaitGroup

	for i, name := range names {
		wg.Add(1)
		go func(idx int, n string) {
			defer wg.Done()
			results[idx] = e.runSingle(ctx, n, profile, limit)
		}(i, name)
	}
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			logger.Warn().Err(r.err).Str("algorithm", r.name).Msg("algorithm prediction failed")
		}
	}
	return results
}

// runSingle runs one algorithm with the prediction timeout and applies its
// weight to every score.
func (e *Engine) runSingle(ctx context.Context, name string, profile *Profile, limit int) algResult {
	result := algResult{name: name}
	if limit <= 0 {
		return result
	}

	alg := e.algorithm(name)
	if alg == nil || !alg.IsTrained() {
		return result
	}
	weight := e.config.Weights.For(name)
	if weight <= 0 {
		return result
	}

	algCtx, cancel := context.WithTimeout(ctx, e.config.Limits.PredictionTimeout)
	defer cancel()

	start := time.Now()
	items, err := alg.Recommend(algCtx, profile, limit)
	metrics.RecordRecommendation(name, time.Since(start), len(items))
	if err != nil {
		result.err = err
		return result
	}

	for i := range items {
		items[i].Score *= weight
		if items[i].Source == "" {
			items[i].Source = name
		}
	}
	result.items = items
	return result
}

// mergeScored deduplicates by movie, keeping the highest score and the first
// reason seen, then sorts by score descending with movie ID as tiebreak.
func mergeScored(items []ScoredMovie) []ScoredMovie {
	index := make(map[int64]int, len(items))
	out := make([]ScoredMovie, 0, len(items))

	for _, it := range items {
		if i, ok := index[it.MovieID]; ok {
			if it.Score > out[i].Score {
				out[i].Score = it.Score
			}
			continue
		}
		index[it.MovieID] = len(out)
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].MovieID < out[j].MovieID
	})
	return out
}

func (e *Engine) applyRerankers(ctx context.Context, items []ScoredMovie, k int) []ScoredMovie {
	e.algMu.RLock()
	rerankers := e.rerankers
	e.algMu.RUnlock()

	for _, rr := range rerankers {
		items = rr.Rerank(ctx, items, k)
	}
	return items
}

func (e *Engine) algorithmCount() int {
	e.algMu.RLock()
	defer e.algMu.RUnlock()
	return len(e.algorithms)
}

// algorithmList returns registered algorithms in registration order.
func (e *Engine) algorithmList() []Algorithm {
	e.algMu.RLock()
	defer e.algMu.RUnlock()

	out := make([]Algorithm, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, e.algorithms[name])
	}
	return out
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) buildResponseMetadata(req Request, used []string, start time.Time) ResponseMetadata {
	return ResponseMetadata{
		RequestID:      req.RequestID,
		UserID:         req.UserID,
		Algorithm:      "hybrid",
		AlgorithmsUsed: used,
		LatencyMS:      time.Since(start).Milliseconds(),
		ModelVersion:   int(e.modelVersion.Load()),
		TrainedAt:      e.lastTrainedAt.Load().(time.Time),
		Timestamp:      time.Now(),
	}
}

// Train trains all registered algorithms on a fresh data snapshot.
// Returns ErrTrainingInProgress immediately if another run holds the lock.
func (e *Engine) Train(ctx context.Context) error {
	if !e.trainMu.TryLock() {
		return ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	if e.dataProvider == nil {
		return ErrNoDataProvider
	}

	start := time.Now()
	e.setTraining(true, "")
	e.logger.Info().Msg("starting model training")

	trainCtx, cancel := context.WithTimeout(ctx, e.config.Training.Timeout)
	defer cancel()

	err := e.train(trainCtx)

	duration := time.Since(start)
	metrics.RecommendationTrainingDuration.Observe(duration.Seconds())

	e.statusMu.Lock()
	e.trainStatus.IsTraining = false
	e.trainStatus.LastTrainingDurationMS = duration.Milliseconds()
	if err != nil {
		e.trainStatus.LastError = err.Error()
	}
	e.statusMu.Unlock()

	if err != nil {
		return err
	}

	e.logger.Info().
		Int("version", int(e.modelVersion.Load())).
		Int64("duration_ms", duration.Milliseconds()).
		Msg("model training complete")
	return nil
}

func (e *Engine) train(ctx context.Context) error {
	data, err := e.dataProvider.LoadTrainingData(ctx)
	if err != nil {
		return fmt.Errorf("load training data: %w", err)
	}
	if len(data.Movies) < e.config.Training.MinMovies {
		return fmt.Errorf("%w: %d movies < %d", ErrInsufficientData, len(data.Movies), e.config.Training.MinMovies)
	}

	users := countUniqueUsers(data.Ratings)
	e.statusMu.Lock()
	e.trainStatus.RatingCount = len(data.Ratings)
	e.trainStatus.MovieCount = len(data.Movies)
	e.trainStatus.UserCount = users
	e.statusMu.Unlock()

	e.logger.Info().
		Int("ratings", len(data.Ratings)).
		Int("movies", len(data.Movies)).
		Int("users", users).
		Msg("loaded training data")

	trained := 0
	for _, alg := range e.algorithmList() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("training aborted: %w", err)
		}
		if err := alg.Train(ctx, data); err != nil {
			e.logger.Error().Str("algorithm", alg.Name()).Err(err).Msg("algorithm training failed")
			continue
		}
		trained++
		e.logger.Debug().Str("algorithm", alg.Name()).Msg("algorithm training complete")
	}
	if trained == 0 {
		return ErrNoAlgorithms
	}

	version := e.modelVersion.Add(1)
	now := time.Now()
	e.lastTrainedAt.Store(now)
	metrics.RecommendationModelVersion.Set(float64(version))

	e.statusMu.Lock()
	e.trainStatus.LastTrainedAt = now
	e.trainStatus.ModelVersion = int(version)
	e.trainStatus.LastError = ""
	e.statusMu.Unlock()

	e.clearCache()
	return nil
}

func (e *Engine) setTraining(training bool, lastErr string) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.trainStatus.IsTraining = training
	e.trainStatus.LastError = lastErr
}

// Status returns a snapshot of training state, algorithms and counters.
func (e *Engine) Status() Status {
	e.statusMu.RLock()
	training := e.trainStatus
	e.statusMu.RUnlock()

	algs := e.algorithmList()
	statuses := make([]AlgorithmStatus, 0, len(algs))
	for _, alg := range algs {
		statuses = append(statuses, AlgorithmStatus{
			Name:          alg.Name(),
			Weight:        e.config.Weights.For(alg.Name()),
			Trained:       alg.IsTrained(),
			Version:       alg.Version(),
			LastTrainedAt: alg.LastTrainedAt(),
		})
	}

	e.algMu.RLock()
	rerankers := make([]string, 0, len(e.rerankers))
	for _, rr := range e.rerankers {
		rerankers = append(rerankers, rr.Name())
	}
	e.algMu.RUnlock()

	return Status{
		Training:     training,
		Algorithms:   statuses,
		Rerankers:    rerankers,
		RequestCount: e.requestCount.Load(),
		CacheHits:    e.cacheHits.Load(),
		CacheMisses:  e.cacheMisses.Load(),
		ErrorCount:   e.errorCount.Load(),
	}
}

// IsTrained reports whether at least one training run has completed.
func (e *Engine) IsTrained() bool {
	return e.modelVersion.Load() > 0
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// InvalidateUser drops cached responses for one user.
func (e *Engine) InvalidateUser(userID int64) {
	prefix := "rec:" + strconv.FormatInt(userID, 10) + ":"

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	for key := range e.cache {
		if strings.HasPrefix(key, prefix) {
			delete(e.cache, key)
		}
	}
}

//nolint:gocritic // hugeParam: req passed by value for simplicity
func (e *Engine) cacheKey(req Request) string {
	return fmt.Sprintf("rec:%d:%d", req.UserID, req.Limit)
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) tryGetCachedResponse(req Request, start time.Time) *Response {
	if !e.config.Cache.Enabled {
		return nil
	}

	resp := e.checkCache(e.cacheKey(req))
	if resp == nil {
		e.cacheMisses.Add(1)
		return nil
	}

	e.cacheHits.Add(1)
	resp.Metadata.Cached = true
	resp.Metadata.RequestID = req.RequestID
	resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
	return resp
}

// checkCache returns a copy of a live cached response, or nil.
func (e *Engine) checkCache(key string) *Response {
	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()

	entry, ok := e.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil
	}

	items := make([]ScoredMovie, len(entry.response.Items))
	copy(items, entry.response.Items)
	return &Response{Items: items, Metadata: entry.response.Metadata}
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) cacheResponse(req Request, resp *Response) {
	if !e.config.Cache.Enabled {
		return
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if len(e.cache) >= e.config.Cache.MaxEntries {
		e.evictExpiredLocked()
	}
	if len(e.cache) >= e.config.Cache.MaxEntries {
		return
	}
	e.cache[e.cacheKey(req)] = cacheEntry{
		response:  resp,
		expiresAt: time.Now().Add(e.config.Cache.TTL),
	}
}

func (e *Engine) clearCache() {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	e.cache = make(map[string]cacheEntry)
	e.logger.Debug().Msg("cache cleared")
}

// evictExpiredLocked removes expired cache entries.
// Must be called with cacheMu held.
func (e *Engine) evictExpiredLocked() {
	now := time.Now()
	for key, entry := range e.cache {
		if now.After(entry.expiresAt) {
			delete(e.cache, key)
		}
	}
}

func countUniqueUsers(ratings []Rating) int {
	users := make(map[int64]struct{}, len(ratings))
	for _, r := range ratings {
		users[r.UserID] = struct{}{}
	}
	return len(users)
}
