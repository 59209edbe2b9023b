// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package recommend

import (
	"errors"
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights scale each algorithm's scores before merging.
	// They are applied as-is, not normalized.
	Weights Weights `json:"weights"`

	// MinRatingCount is the number of ratings a user needs before
	// collaborative filtering is consulted.
	// Default: 5.
	MinRatingCount int `json:"min_rating_count"`

	// Diversity controls MMR reranking.
	Diversity DiversityConfig `json:"diversity"`

	Training TrainingConfig `json:"training"`
	Limits   LimitsConfig   `json:"limits"`
	Cache    CacheConfig    `json:"cache"`
}

// Weights holds per-algorithm score multipliers.
type Weights struct {
	Collaborative float64 `json:"collaborative"`
	Content       float64 `json:"content"`
	Popularity    float64 `json:"popularity"`
}

// For returns the weight for an algorithm name, or 0 when unknown.
func (w Weights) For(name string) float64 {
	switch name {
	case AlgorithmCollaborative:
		return w.Collaborative
	case AlgorithmContent:
		return w.Content
	case AlgorithmPopularity:
		return w.Popularity
	}
	return 0
}

// DiversityConfig contains parameters for diversity reranking.
type DiversityConfig struct {
	Enabled bool `json:"enabled"`

	// Lambda balances relevance vs. diversity in MMR reranking.
	// 1.0 = pure relevance, 0.0 = pure diversity.
	// Default: 0.7.
	Lambda float64 `json:"lambda"`
}

// TrainingConfig contains training parameters.
type TrainingConfig struct {
	// Timeout is the maximum time allowed for a training run.
	// Default: 10m.
	Timeout time.Duration `json:"timeout"`

	// MinMovies is the minimum catalog size required to train.
	// Default: 1.
	MinMovies int `json:"min_movies"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultLimit is used when a request does not set one.
	// Default: 20.
	DefaultLimit int `json:"default_limit"`

	// MaxLimit caps Request.Limit.
	// Default: 100.
	MaxLimit int `json:"max_limit"`

	// PredictionTimeout bounds a single algorithm's Recommend call.
	// Default: 5s.
	PredictionTimeout time.Duration `json:"prediction_timeout"`
}

// CacheConfig contains in-process response caching parameters.
type CacheConfig struct {
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 10m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries bounds the cache; expired entries are evicted when full.
	// Default: 10000.
	MaxEntries int `json:"max_entries"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: Weights{
			Collaborative: 0.4,
			Content:       0.4,
			Popularity:    0.2,
		},
		MinRatingCount: 5,
		Diversity: DiversityConfig{
			Enabled: false,
			Lambda:  0.7,
		},
		Training: TrainingConfig{
			Timeout:   10 * time.Minute,
			MinMovies: 1,
		},
		Limits: LimitsConfig{
			DefaultLimit:      20,
			MaxLimit:          100,
			PredictionTimeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        10 * time.Minute,
			MaxEntries: 10000,
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.Weights.Collaborative < 0 || c.Weights.Content < 0 || c.Weights.Popularity < 0 {
		errs = append(errs, errors.New("weights must be non-negative"))
	}
	if c.Weights.Collaborative+c.Weights.Content+c.Weights.Popularity == 0 {
		errs = append(errs, errors.New("at least one weight must be positive"))
	}
	if c.MinRatingCount < 0 {
		errs = append(errs, errors.New("min_rating_count must be non-negative"))
	}
	if c.Diversity.Lambda < 0 || c.Diversity.Lambda > 1 {
		errs = append(errs, fmt.Errorf("diversity lambda must be in [0, 1], got %v", c.Diversity.Lambda))
	}
	if c.Training.Timeout <= 0 {
		errs = append(errs, errors.New("training timeout must be positive"))
	}
	if c.Limits.DefaultLimit <= 0 {
		errs = append(errs, errors.New("default_limit must be positive"))
	}
	if c.Limits.MaxLimit < c.Limits.DefaultLimit {
		errs = append(errs, errors.New("max_limit must be >= default_limit"))
	}
	if c.Limits.PredictionTimeout <= 0 {
		errs = append(errs, errors.New("prediction_timeout must be positive"))
	}
	if c.Cache.Enabled && (c.Cache.TTL <= 0 || c.Cache.MaxEntries <= 0) {
		errs = append(errs, errors.New("cache ttl and max_entries must be positive when enabled"))
	}

	return errors.Join(errs...)
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
