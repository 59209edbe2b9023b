// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package main

import (
	"runtime"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/recommend"
	"github.com/tomtom215/reelmatch/internal/recommend/algorithms"
	"github.com/tomtom215/reelmatch/internal/recommend/reranking"
	"github.com/tomtom215/reelmatch/internal/supervisor/services"
)

// initRecommend builds the hybrid engine with all three algorithms and the
// optional MMR reranker. Training is driven by the returned service.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initRecommend(cfg *config.Config, dp recommend.DataProvider, logger zerolog.Logger) (*recommend.Engine, *services.RecommendService, error) {
	logger.Info().
		Dur("train_interval", cfg.Recommend.TrainInterval).
		Bool("train_on_startup", cfg.Recommend.TrainOnStartup).
		Float64("collaborative_weight", cfg.Recommend.CollaborativeWeight).
		Float64("content_weight", cfg.Recommend.ContentWeight).
		Float64("popularity_weight", cfg.Recommend.PopularityWeight).
		Msg("initializing recommendation engine")

	engine, err := recommend.NewEngine(buildEngineConfig(&cfg.Recommend), logger)
	if err != nil {
		return nil, nil, err
	}
	engine.SetDataProvider(dp)

	for _, alg := range buildAlgorithms(&cfg.Recommend) {
		engine.RegisterAlgorithm(alg)
		logger.Debug().Str("algorithm", alg.Name()).Msg("registered algorithm")
	}
	if cfg.Recommend.DiversityEnabled {
		engine.SetReranker(reranking.NewMMR(cfg.Recommend.DiversityLambda))
		logger.Debug().Float64("lambda", cfg.Recommend.DiversityLambda).Msg("registered MMR reranker")
	}

	svc := services.NewRecommendService(engine, services.RecommendServiceConfig{
		TrainOnStartup: cfg.Recommend.TrainOnStartup,
		TrainInterval:  cfg.Recommend.TrainInterval,
		TrainTimeout:   cfg.Recommend.TrainingTimeout,
	}, logger)
	return engine, svc, nil
}

// buildEngineConfig maps application settings onto the engine defaults.
// Zero values keep the default.
func buildEngineConfig(rc *config.RecommendConfig) *recommend.Config {
	c := recommend.DefaultConfig()
	if w := (recommend.Weights{
		Collaborative: rc.CollaborativeWeight,
		Content:       rc.ContentWeight,
		Popularity:    rc.PopularityWeight,
	}); w != (recommend.Weights{}) {
		c.Weights = w
	}
	if rc.MinRatingCount > 0 {
		c.MinRatingCount = rc.MinRatingCount
	}
	c.Diversity.Enabled = rc.DiversityEnabled
	if rc.DiversityLambda > 0 {
		c.Diversity.Lambda = rc.DiversityLambda
	}
	if rc.TrainingTimeout > 0 {
		c.Training.Timeout = rc.TrainingTimeout
	}
	if rc.DefaultLimit > 0 {
		c.Limits.DefaultLimit = rc.DefaultLimit
	}
	if rc.MaxLimit > 0 {
		c.Limits.MaxLimit = rc.MaxLimit
	}
	if rc.PredictionTimeout > 0 {
		c.Limits.PredictionTimeout = rc.PredictionTimeout
	}
	if rc.CacheTTL > 0 {
		c.Cache.TTL = rc.CacheTTL
	}
	return c
}

// buildAlgorithms returns the collaborative, content and popularity
// algorithms configured from rc.
func buildAlgorithms(rc *config.RecommendConfig) []recommend.Algorithm {
	cf := algorithms.DefaultCollaborativeConfig()
	if rc.MinRatingCount > 0 {
		cf.MinRatings = rc.MinRatingCount
	}
	if rc.MinCommonRatings > 0 {
		cf.MinCommonRatings = rc.MinCommonRatings
	}
	if rc.SimilarityThreshold > 0 {
		cf.SimilarityThreshold = rc.SimilarityThreshold
	}
	cf.NumWorkers = rc.Workers
	if cf.NumWorkers <= 0 {
		cf.NumWorkers = runtime.NumCPU()
	}

	return []recommend.Algorithm{
		algorithms.NewCollaborative(cf),
		algorithms.NewContentBased(),
		algorithms.NewPopularity(algorithms.DefaultPopularityConfig()),
	}
}
