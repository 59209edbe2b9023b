// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package algorithms

import (
	"context"
	"math"
	"strings"

	"github.com/tomtom215/reelmatch/internal/recommend"
)

// Content-based scoring constants.
const (
	// likedRatingThreshold is the star rating from which a rated movie's
	// genres feed the user profile.
	likedRatingThreshold = 4.0

	// candidateMultiplier sizes the candidate pool relative to the limit.
	candidateMultiplier = 3

	minContentScore = 0.1
)

// ContentBased recommends movies whose genres match the user's genre profile.
//
// The profile starts at 1.0 for every preferred genre and is max-merged with
// weight(g)·rating/5 for the genres of each movie rated 4 stars or more.
// Candidates are the most popular unseen movies sharing a preferred genre;
// each is scored as
//
//	base  = sum_g profile(g)·weight(g) / sum_g weight(g)   (g in movie ∩ profile)
//	score = min(base·(0.6 + 0.2·min(pop/100, 1) + 0.2·min(vote/10, 1)), 1)
//
// and kept when above 0.1.
type ContentBased struct {
	BaseAlgorithm
	movies catalog
}

// NewContentBased creates a new content-based algorithm.
func NewContentBased() *ContentBased {
	return &ContentBased{
		BaseAlgorithm: NewBaseAlgorithm(recommend.AlgorithmContent),
	}
}

// Train indexes the movie feature table.
func (c *ContentBased) Train(ctx context.Context, data *recommend.TrainingData) error {
	c.acquireTrainLock()
	defer c.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	c.movies = newCatalog(data.Movies)
	c.markTrained()
	return nil
}

// Recommend returns up to limit genre matches for the profile.
func (c *ContentBased) Recommend(ctx context.Context, profile *recommend.Profile, limit int) ([]recommend.ScoredMovie, error) {
	c.acquirePredictLock()
	defer c.releasePredictLock()

	if !c.trained || limit <= 0 {
		return nil, nil
	}

	genreProfile := c.buildProfile(profile)
	if len(genreProfile) == 0 {
		return nil, nil
	}

	preferred := make(map[int]struct{})
	for _, id := range GenreIDsForNames(profile.PreferredGenres) {
		preferred[id] = struct{}{}
	}
	if len(preferred) == 0 {
		return nil, nil
	}

	reason := "Similar to your preferred genres: " + strings.Join(profile.PreferredGenres, ", ")
	pool := limit * candidateMultiplier

	items := make([]recommend.ScoredMovie, 0, limit)
	for _, m := range c.movies.ranked {
		if pool == 0 {
			break
		}
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		if profile.IsExcluded(m.ID) || !overlaps(m.GenreIDs, preferred) {
			continue
		}
		pool--

		score := ContentSimilarity(genreProfile, m)
		if score > minContentScore {
			items = append(items, recommend.ScoredMovie{
				MovieID:  m.ID,
				Score:    score,
				Reason:   reason,
				Source:   recommend.AlgorithmContent,
				GenreIDs: m.GenreIDs,
			})
		}
	}

	sortScored(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// buildProfile derives genre affinities from preferences and liked movies.
// Must be called with the predict lock held.
func (c *ContentBased) buildProfile(profile *recommend.Profile) map[int]float64 {
	out := make(map[int]float64)
	for _, id := range GenreIDsForNames(profile.PreferredGenres) {
		out[id] = 1.0
	}

	for movieID, rating := range profile.Ratings {
		if rating < likedRatingThreshold {
			continue
		}
		for _, g := range c.movies.genres(movieID) {
			w := GenreWeight(g) * (rating / 5.0)
			if cur, ok := out[g]; !ok || w > cur {
				out[g] = w
			}
		}
	}
	return out
}

// ContentSimilarity scores a movie against a genre profile.
func ContentSimilarity(profile map[int]float64, m recommend.MovieFeatures) float64 {
	if len(m.GenreIDs) == 0 {
		return 0
	}

	var simSum, weightSum float64
	for _, g := range m.GenreIDs {
		p, ok := profile[g]
		if !ok {
			continue
		}
		w := GenreWeight(g)
		simSum += p * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}

	base := simSum / weightSum
	popularityBoost := math.Min(m.Popularity/100, 1.0)
	ratingBoost := math.Min(m.VoteAverage/10, 1.0)
	return math.Min(base*(0.6+0.2*popularityBoost+0.2*ratingBoost), 1.0)
}

func overlaps(genres []int, set map[int]struct{}) bool {
	for _, g := range genres {
		if _, ok := set[g]; ok {
			return true
		}
	}
	return false
}
