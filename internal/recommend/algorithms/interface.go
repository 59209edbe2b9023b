// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package algorithms implements the recommendation algorithms registered with
// the hybrid engine.
//
//   - Collaborative: user-based collaborative filtering on star ratings
//   - ContentBased: weighted genre affinity
//   - Popularity: popular, well rated fallback
//
// # Thread Safety
//
// All algorithms are safe for concurrent use. Training acquires an exclusive
// lock while prediction uses a shared lock.
package algorithms

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/reelmatch/internal/recommend"
)

// BaseAlgorithm provides common functionality for all algorithms.
type BaseAlgorithm struct {
	name          string
	trained       bool
	version       int
	lastTrainedAt time.Time
	mu            sync.RWMutex
}

// NewBaseAlgorithm creates a new base algorithm with the given name.
func NewBaseAlgorithm(name string) BaseAlgorithm {
	return BaseAlgorithm{name: name}
}

// Name returns the algorithm identifier.
func (b *BaseAlgorithm) Name() string {
	return b.name
}

// IsTrained returns whether the model has been trained.
func (b *BaseAlgorithm) IsTrained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trained
}

// Version returns the model version.
func (b *BaseAlgorithm) Version() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// LastTrainedAt returns when the model was last trained.
func (b *BaseAlgorithm) LastTrainedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastTrainedAt
}

// markTrained updates the trained state.
// Must be called while holding the training lock.
func (b *BaseAlgorithm) markTrained() {
	b.trained = true
	b.version++
	b.lastTrainedAt = time.Now()
}

func (b *BaseAlgorithm) acquireTrainLock()   { b.mu.Lock() }
func (b *BaseAlgorithm) releaseTrainLock()   { b.mu.Unlock() }
func (b *BaseAlgorithm) acquirePredictLock() { b.mu.RLock() }
func (b *BaseAlgorithm) releasePredictLock() { b.mu.RUnlock() }

// catalog is the trained movie feature table shared by the algorithms.
type catalog struct {
	byID map[int64]recommend.MovieFeatures

	// ranked is ordered by popularity, then vote average, both descending,
	// then ID ascending.
	ranked []recommend.MovieFeatures
}

func newCatalog(movies []recommend.MovieFeatures) catalog {
	c := catalog{
		byID:   make(map[int64]recommend.MovieFeatures, len(movies)),
		ranked: make([]recommend.MovieFeatures, len(movies)),
	}
	copy(c.ranked, movies)
	for _, m := range movies {
		c.byID[m.ID] = m
	}
	sort.SliceStable(c.ranked, func(i, j int) bool {
		a, b := c.ranked[i], c.ranked[j]
		if a.Popularity != b.Popularity {
			return a.Popularity > b.Popularity
		}
		if a.VoteAverage != b.VoteAverage {
			return a.VoteAverage > b.VoteAverage
		}
		return a.ID < b.ID
	})
	return c
}

func (c *catalog) genres(movieID int64) []int {
	return c.byID[movieID].GenreIDs
}

// sortScored orders by score descending with movie ID as tiebreak.
func sortScored(items []recommend.ScoredMovie) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].MovieID < items[j].MovieID
	})
}

// ContextCancelled checks if the context has been canceled.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Ensure all algorithms implement the interface.
var (
	_ recommend.Algorithm = (*Collaborative)(nil)
	_ recommend.Algorithm = (*ContentBased)(nil)
	_ recommend.Algorithm = (*Popularity)(nil)
)
