// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package algorithms

import (
	"context"
	"math"
	"sort"

	"github.com/tomtom215/reelmatch/internal/recommend"
)

// PopularityReason is attached to every popularity recommendation.
const PopularityReason = "Popular movies trending now"

// PopularityConfig contains the catalog thresholds for popularity picks.
type PopularityConfig struct {
	MinPopularity  float64
	MinVoteAverage float64
	MinVoteCount   int
}

// DefaultPopularityConfig returns the default thresholds.
func DefaultPopularityConfig() PopularityConfig {
	return PopularityConfig{
		MinPopularity:  10,
		MinVoteAverage: 6.0,
		MinVoteCount:   100,
	}
}

// Popularity recommends popular, well rated movies the user has not touched.
// It needs no history, so it serves cold-start users and fills the gap when
// the personalized algorithms return fewer than the limit.
//
//	score = min(popularity/100, 1)·0.6 + vote_average/10·0.4
type Popularity struct {
	BaseAlgorithm
	config PopularityConfig

	// eligible is the thresholded catalog ordered by popularity descending.
	eligible []recommend.MovieFeatures
}

// NewPopularity creates a new popularity algorithm.
func NewPopularity(cfg PopularityConfig) *Popularity {
	return &Popularity{
		BaseAlgorithm: NewBaseAlgorithm(recommend.AlgorithmPopularity),
		config:        cfg,
	}
}

// Train filters and orders the catalog.
func (p *Popularity) Train(ctx context.Context, data *recommend.TrainingData) error {
	p.acquireTrainLock()
	defer p.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	eligible := make([]recommend.MovieFeatures, 0, len(data.Movies))
	for _, m := range data.Movies {
		if m.Popularity > p.config.MinPopularity &&
			m.VoteAverage > p.config.MinVoteAverage &&
			m.VoteCount > p.config.MinVoteCount {
			eligible = append(eligible, m)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Popularity != eligible[j].Popularity {
			return eligible[i].Popularity > eligible[j].Popularity
		}
		return eligible[i].ID < eligible[j].ID
	})

	p.eligible = eligible
	p.markTrained()
	return nil
}

// Recommend returns the most popular movies outside the user's history.
func (p *Popularity) Recommend(ctx context.Context, profile *recommend.Profile, limit int) ([]recommend.ScoredMovie, error) {
	p.acquirePredictLock()
	defer p.releasePredictLock()

	if !p.trained || limit <= 0 {
		return nil, nil
	}

	items := make([]recommend.ScoredMovie, 0, limit)
	for _, m := range p.eligible {
		if len(items) == limit {
			break
		}
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		if profile != nil && profile.IsExcluded(m.ID) {
			continue
		}
		items = append(items, recommend.ScoredMovie{
			MovieID:  m.ID,
			Score:    PopularityScore(m.Popularity, m.VoteAverage),
			Reason:   PopularityReason,
			Source:   recommend.AlgorithmPopularity,
			GenreIDs: m.GenreIDs,
		})
	}
	return items, nil
}

// PopularityScore combines raw popularity and vote average into [0, 1].
func PopularityScore(popularity, voteAverage float64) float64 {
	return math.Min(popularity/100, 1.0)*0.6 + voteAverage/10*0.4
}
