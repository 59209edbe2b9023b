// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package algorithms

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/reelmatch/internal/recommend"
)

// CollaborativeConfig contains configuration for user-based collaborative
// filtering.
type CollaborativeConfig struct {
	// MinRatings is the number of ratings each user of a pair needs before
	// their similarity is computed.
	MinRatings int

	// MinCommonRatings is the number of co-rated movies a pair needs.
	MinCommonRatings int

	// SimilarityThreshold drops pairs at or below this similarity.
	SimilarityThreshold float64

	// NumWorkers is the number of parallel similarity workers.
	NumWorkers int
}

// DefaultCollaborativeConfig returns the default configuration.
func DefaultCollaborativeConfig() CollaborativeConfig {
	return CollaborativeConfig{
		MinRatings:          5,
		MinCommonRatings:    5,
		SimilarityThreshold: 0.1,
		NumWorkers:          4,
	}
}

// Collaborative implements user-based collaborative filtering.
//
// Similarity between users u and v is the cosine of their rating vectors,
// with the dot product taken over co-rated movies and the norms over each
// user's full rating vector:
//
//	sim(u, v) = sum_{i in I(u)∩I(v)} r(u,i)·r(v,i) / (|r(u)|·|r(v)|)
//
// For a movie i not rated by u, the prediction is
//
//	score(u, i) = sum_{v in N(u)} sim(u,v)·r(v,i) / sum_{v in N(u)} |sim(u,v)|
//
// where N(u) is every neighbor of u that rated i.
type Collaborative struct {
	BaseAlgorithm
	config CollaborativeConfig

	// userVectors stores user rating vectors (movieID -> rating)
	userVectors map[int64]map[int64]float64

	// similarity stores neighbors per user (neighborID -> similarity)
	similarity map[int64]map[int64]float64

	movies catalog
}

// NewCollaborative creates a new collaborative filtering algorithm.
func NewCollaborative(cfg CollaborativeConfig) *Collaborative {
	d := DefaultCollaborativeConfig()
	if cfg.MinRatings <= 0 {
		cfg.MinRatings = d.MinRatings
	}
	if cfg.MinCommonRatings <= 0 {
		cfg.MinCommonRatings = d.MinCommonRatings
	}
	if cfg.SimilarityThreshold < 0 {
		cfg.SimilarityThreshold = d.SimilarityThreshold
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = d.NumWorkers
	}

	return &Collaborative{
		BaseAlgorithm: NewBaseAlgorithm(recommend.AlgorithmCollaborative),
		config:        cfg,
		userVectors:   make(map[int64]map[int64]float64),
		similarity:    make(map[int64]map[int64]float64),
	}
}

// Train builds the user vectors and the user-user similarity matrix.
func (c *Collaborative) Train(ctx context.Context, data *recommend.TrainingData) error {
	c.acquireTrainLock()
	defer c.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	vectors := make(map[int64]map[int64]float64)
	for _, r := range data.Ratings {
		if vectors[r.UserID] == nil {
			vectors[r.UserID] = make(map[int64]float64)
		}
		vectors[r.UserID][r.MovieID] = r.Value
	}

	// Only users with enough ratings take part in the matrix.
	eligible := make([]int64, 0, len(vectors))
	norms := make(map[int64]float64, len(vectors))
	for uid, vec := range vectors {
		if len(vec) < c.config.MinRatings {
			continue
		}
		eligible = append(eligible, uid)
		norms[uid] = vectorNorm(vec)
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i] < eligible[j] })

	similarity, err := c.computeMatrix(ctx, eligible, vectors, norms)
	if err != nil {
		return err
	}

	c.userVectors = vectors
	c.similarity = similarity
	c.movies = newCatalog(data.Movies)
	c.markTrained()
	return nil
}

// computeMatrix fans the eligible users across at most NumWorkers
// goroutines and stops early when ctx is cancelled.
func (c *Collaborative) computeMatrix(ctx context.Context, users []int64, vectors map[int64]map[int64]float64, norms map[int64]float64) (map[int64]map[int64]float64, error) {
	similarity := make(map[int64]map[int64]float64, len(users))
	if len(users) == 0 {
		return similarity, nil
	}

	workers := c.config.NumWorkers
	if workers > len(users) {
		workers = len(users)
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, uid := range users {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			neighbors := c.neighbors(uid, users, vectors, norms)
			mu.Lock()
			similarity[uid] = neighbors
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return similarity, nil
}

func (c *Collaborative) neighbors(uid int64, users []int64, vectors map[int64]map[int64]float64, norms map[int64]float64) map[int64]float64 {
	out := make(map[int64]float64)
	for _, other := range users {
		if other == uid {
			continue
		}
		sim := c.cosine(vectors[uid], vectors[other], norms[uid], norms[other])
		if sim > c.config.SimilarityThreshold {
			out[other] = sim
		}
	}
	return out
}

// cosine returns 0 when the pair shares fewer than MinCommonRatings movies.
func (c *Collaborative) cosine(a, b map[int64]float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}

	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	var dot float64
	common := 0
	for movieID, ra := range small {
		if rb, ok := large[movieID]; ok {
			dot += ra * rb
			common++
		}
	}
	if common < c.config.MinCommonRatings {
		return 0
	}
	return dot / (normA * normB)
}

func vectorNorm(vec map[int64]float64) float64 {
	var sum float64
	for _, r := range vec {
		sum += r * r
	}
	return math.Sqrt(sum)
}

// Recommend predicts ratings for movies the user has not rated. Scores are
// predicted star ratings in [0.5, 5].
func (c *Collaborative) Recommend(ctx context.Context, profile *recommend.Profile, limit int) ([]recommend.ScoredMovie, error) {
	c.acquirePredictLock()
	defer c.releasePredictLock()

	if !c.trained || limit <= 0 {
		return nil, nil
	}

	neighbors, ok := c.similarity[profile.UserID]
	if !ok || len(neighbors) == 0 {
		return nil, nil
	}

	weighted := make(map[int64]float64)
	weights := make(map[int64]float64)
	for neighborID, sim := range neighbors {
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		for movieID, rating := range c.userVectors[neighborID] {
			if _, rated := profile.Ratings[movieID]; rated {
				continue
			}
			weighted[movieID] += rating * sim
			weights[movieID] += math.Abs(sim)
		}
	}

	items := make([]recommend.ScoredMovie, 0, len(weighted))
	for movieID, sum := range weighted {
		w := weights[movieID]
		if w <= 0 {
			continue
		}
		if _, known := c.movies.byID[movieID]; !known {
			continue
		}
		predicted := sum / w
		items = append(items, recommend.ScoredMovie{
			MovieID:  movieID,
			Score:    predicted,
			Reason:   fmt.Sprintf("Recommended by users with similar tastes (score: %.2f)", predicted),
			Source:   recommend.AlgorithmCollaborative,
			GenreIDs: c.movies.genres(movieID),
		})
	}

	sortScored(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Similarity returns the trained similarity between two users.
func (c *Collaborative) Similarity(a, b int64) float64 {
	c.acquirePredictLock()
	defer c.releasePredictLock()
	return c.similarity[a][b]
}

// UserCount returns the number of users with at least one neighbor entry.
func (c *Collaborative) UserCount() int {
	c.acquirePredictLock()
	defer c.releasePredictLock()
	return len(c.similarity)
}
