// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package reranking implements post-processing for recommendation diversity.
package reranking

import (
	"context"
	"math"

	"github.com/tomtom215/reelmatch/internal/recommend"
)

// maxRerankSize bounds the selection loop; k is also bounded by len(items).
const maxRerankSize = 1000

// MMR implements Maximal Marginal Relevance reranking over genre overlap.
//
//	MMR = argmax[lambda * score(i) - (1-lambda) * max(sim(i, s)) for s in selected]
//
// sim is the Jaccard similarity of the two movies' genre ID sets.
//
// Reference:
// Carbonell, J., & Goldstein, J. (1998). "The Use of MMR, Diversity-Based
// Reranking for Reordering Documents and Producing Summaries." SIGIR 1998.
type MMR struct {
	lambda float64
}

// NewMMR creates a new MMR reranker. lambda is clamped to [0, 1].
func NewMMR(lambda float64) *MMR {
	return &MMR{lambda: math.Max(0, math.Min(1, lambda))}
}

// Name returns the reranker identifier.
func (m *MMR) Name() string {
	return "mmr"
}

// Rerank greedily selects up to k items.
func (m *MMR) Rerank(ctx context.Context, items []recommend.ScoredMovie, k int) []recommend.ScoredMovie {
	if len(items) == 0 || k <= 0 {
		return items
	}
	if k > maxRerankSize {
		k = maxRerankSize
	}
	if k > len(items) {
		k = len(items)
	}
	if m.lambda >= 1.0 {
		return items[:k]
	}

	sets := make([]map[int]struct{}, len(items))
	for i, it := range items {
		sets[i] = toSet(it.GenreIDs)
	}

	selected := make([]recommend.ScoredMovie, 0, k)
	chosen := make([]int, 0, k)
	used := make([]bool, len(items))

	for len(selected) < k {
		if ctx.Err() != nil {
			break
		}
		bestIdx := -1
		bestMMR := math.Inf(-1)

		for i, it := range items {
			if used[i] {
				continue
			}
			maxSim := 0.0
			for _, j := range chosen {
				if sim := jaccard(sets[i], sets[j]); sim > maxSim {
					maxSim = sim
				}
			}
			score := m.lambda*it.Score - (1-m.lambda)*maxSim
			if score > bestMMR {
				bestMMR = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}

		used[bestIdx] = true
		chosen = append(chosen, bestIdx)
		selected = append(selected, items[bestIdx])
	}

	return selected
}

func toSet(ids []int) map[int]struct{} {
	s := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func jaccard(a, b map[int]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for g := range a {
		if _, ok := b[g]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

var _ recommend.Reranker = (*MMR)(nil)
