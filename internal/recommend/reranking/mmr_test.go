// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package reranking

import (
	"context"
	"testing"

	"github.com/tomtom215/reelmatch/internal/recommend"
)

func ids(items []recommend.ScoredMovie) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.MovieID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMMR_Rerank(t *testing.T) {
	items := []recommend.ScoredMovie{
		{MovieID: 1, Score: 1.0, GenreIDs: []int{28}},
		{MovieID: 2, Score: 0.95, GenreIDs: []int{28}},
		{MovieID: 3, Score: 0.9, GenreIDs: []int{35}},
	}

	tests := []struct {
		name   string
		lambda float64
		k      int
		want   []int64
	}{
		{"diversity pushes the duplicate genre down", 0.5, 3, []int64{1, 3, 2}},
		{"pure relevance keeps order", 1.0, 3, []int64{1, 2, 3}},
		{"k truncates", 0.5, 2, []int64{1, 3}},
		{"k above length", 0.5, 10, []int64{1, 3, 2}},
		{"lambda clamped", 7, 2, []int64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(NewMMR(tt.lambda).Rerank(context.Background(), items, tt.k))
			if !equalIDs(got, tt.want) {
				t.Errorf("Rerank() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMMR_EdgeCases(t *testing.T) {
	m := NewMMR(0.7)
	if m.Name() != "mmr" {
		t.Errorf("Name() = %q", m.Name())
	}
	if got := m.Rerank(context.Background(), nil, 5); len(got) != 0 {
		t.Errorf("nil items = %v", got)
	}
	items := []recommend.ScoredMovie{{MovieID: 1}}
	if got := m.Rerank(context.Background(), items, 0); len(got) != 1 {
		t.Errorf("k=0 should return the input, got %v", got)
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		a, b []int
		want float64
	}{
		{nil, nil, 0},
		{[]int{1, 2}, []int{2, 3}, 1.0 / 3.0},
		{[]int{1}, []int{1}, 1},
		{[]int{1}, []int{2}, 0},
	}
	for _, tt := range tests {
		if got := jaccard(toSet(tt.a), toSet(tt.b)); got != tt.want {
			t.Errorf("jaccard(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
