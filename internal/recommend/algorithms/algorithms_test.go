// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package algorithms

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/tomtom215/reelmatch/internal/recommend"
)

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func rate(user, movie int64, v float64) recommend.Rating {
	return recommend.Rating{UserID: user, MovieID: movie, Value: v}
}

func collaborativeFixture() *recommend.TrainingData {
	var ratings []recommend.Rating
	for m := int64(1); m <= 5; m++ {
		ratings = append(ratings, rate(1, m, 5), rate(2, m, 5))
	}
	ratings = append(ratings, rate(2, 6, 4))

	// User 3 has too few ratings.
	for m := int64(1); m <= 3; m++ {
		ratings = append(ratings, rate(3, m, 5))
	}
	ratings = append(ratings, rate(3, 7, 5))

	// User 4 shares only four movies with user 1.
	for m := int64(1); m <= 4; m++ {
		ratings = append(ratings, rate(4, m, 5))
	}
	ratings = append(ratings, rate(4, 8, 5))

	movies := make([]recommend.MovieFeatures, 0, 8)
	for id := int64(1); id <= 8; id++ {
		movies = append(movies, recommend.MovieFeatures{ID: id, GenreIDs: []int{28}})
	}
	return &recommend.TrainingData{Ratings: ratings, Movies: movies}
}

func TestCollaborative_Similarity(t *testing.T) {
	c := NewCollaborative(DefaultCollaborativeConfig())
	if err := c.Train(context.Background(), collaborativeFixture()); err != nil {
		t.Fatalf("Train: %v", err)
	}

	// dot over common movies, norms over full vectors.
	want := 125 / (math.Sqrt(125) * math.Sqrt(141))
	if got := c.Similarity(1, 2); !approxEqual(got, want) {
		t.Errorf("Similarity(1,2) = %v, want %v", got, want)
	}
	if got := c.Similarity(2, 1); !approxEqual(got, want) {
		t.Errorf("Similarity(2,1) = %v, want %v", got, want)
	}
	if got := c.Similarity(1, 3); got != 0 {
		t.Errorf("Similarity(1,3) = %v, want 0 (user 3 has 4 ratings)", got)
	}
	if got := c.Similarity(1, 4); got != 0 {
		t.Errorf("Similarity(1,4) = %v, want 0 (4 common movies)", got)
	}
	if !c.IsTrained() || c.Version() != 1 {
		t.Errorf("trained = %v version = %d", c.IsTrained(), c.Version())
	}
}

func TestCollaborative_Recommend(t *testing.T) {
	c := NewCollaborative(DefaultCollaborativeConfig())
	data := collaborativeFixture()
	if err := c.Train(context.Background(), data); err != nil {
		t.Fatal(err)
	}

	ratings := map[int64]float64{1: 5, 2: 5, 3: 5, 4: 5, 5: 5}
	profile := recommend.NewProfile(1, nil, ratings, nil)

	items, err := c.Recommend(context.Background(), profile, 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1: %+v", len(items), items)
	}
	got := items[0]
	if got.MovieID != 6 || !approxEqual(got.Score, 4.0) {
		t.Errorf("item = %+v, want movie 6 score 4.0", got)
	}
	if got.Reason != "Recommended by users with similar tastes (score: 4.00)" {
		t.Errorf("Reason = %q", got.Reason)
	}
	if got.Source != recommend.AlgorithmCollaborative {
		t.Errorf("Source = %q", got.Source)
	}
}

func TestCollaborative_UnknownUser(t *testing.T) {
	c := NewCollaborative(DefaultCollaborativeConfig())
	if items, _ := c.Recommend(context.Background(), recommend.NewProfile(1, nil, nil, nil), 5); items != nil {
		t.Error("untrained model should return nil")
	}
	_ = c.Train(context.Background(), collaborativeFixture())
	items, err := c.Recommend(context.Background(), recommend.NewProfile(99, nil, nil, nil), 5)
	if err != nil || len(items) != 0 {
		t.Errorf("unknown user = %v, %v; want no items", items, err)
	}
}

func TestCollaborative_Cancelled(t *testing.T) {
	c := NewCollaborative(DefaultCollaborativeConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Train(ctx, collaborativeFixture()); err == nil {
		t.Error("Train with cancelled context should fail")
	}
	if c.IsTrained() {
		t.Error("cancelled training should not mark trained")
	}
}

func TestCollaborative_ComputeMatrix(t *testing.T) {
	users := make([]int64, 0, 40)
	vectors := make(map[int64]map[int64]float64)
	norms := make(map[int64]float64)
	for u := int64(1); u <= 40; u++ {
		users = append(users, u)
		vec := map[int64]float64{}
		for m := int64(1); m <= 6; m++ {
			vec[m] = float64((u+m)%5 + 1)
		}
		vectors[u] = vec
		norms[u] = vectorNorm(vec)
	}

	serialCfg := DefaultCollaborativeConfig()
	serialCfg.NumWorkers = 1
	serial, err := NewCollaborative(serialCfg).computeMatrix(context.Background(), users, vectors, norms)
	if err != nil {
		t.Fatalf("computeMatrix(1 worker) error = %v", err)
	}

	parallelCfg := DefaultCollaborativeConfig()
	parallelCfg.NumWorkers = 8
	parallel, err := NewCollaborative(parallelCfg).computeMatrix(context.Background(), users, vectors, norms)
	if err != nil {
		t.Fatalf("computeMatrix(8 workers) error = %v", err)
	}

	if len(parallel) != len(users) {
		t.Fatalf("len(matrix) = %d, want %d", len(parallel), len(users))
	}
	for _, u := range users {
		if len(parallel[u]) != len(serial[u]) {
			t.Errorf("user %d: %d neighbours, want %d", u, len(parallel[u]), len(serial[u]))
			continue
		}
		for other, sim := range serial[u] {
			if !approxEqual(parallel[u][other], sim) {
				t.Errorf("sim(%d,%d) = %v, want %v", u, other, parallel[u][other], sim)
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewCollaborative(parallelCfg).computeMatrix(ctx, users, vectors, norms); !errors.Is(err, context.Canceled) {
		t.Errorf("computeMatrix(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestNewCollaborative_Defaults(t *testing.T) {
	c := NewCollaborative(CollaborativeConfig{SimilarityThreshold: -1})
	d := DefaultCollaborativeConfig()
	if c.config != d {
		t.Errorf("config = %+v, want %+v", c.config, d)
	}
}

func contentFixture() *recommend.TrainingData {
	return &recommend.TrainingData{Movies: []recommend.MovieFeatures{
		{ID: 1, GenreIDs: []int{28}, Popularity: 50, VoteAverage: 8},
		{ID: 2, GenreIDs: []int{35}, Popularity: 90, VoteAverage: 7},
		{ID: 3, GenreIDs: []int{28, 35}, Popularity: 20, VoteAverage: 6},
		{ID: 4, GenreIDs: []int{28}, Popularity: 70, VoteAverage: 7},
		{ID: 5, GenreIDs: []int{35}, Popularity: 10, VoteAverage: 5},
	}}
}

func TestContentBased_PreferredGenres(t *testing.T) {
	c := NewContentBased()
	if err := c.Train(context.Background(), contentFixture()); err != nil {
		t.Fatal(err)
	}

	profile := recommend.NewProfile(1, []string{"Action"}, nil, []int64{4})
	items, err := c.Recommend(context.Background(), profile, 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	want := []struct {
		id    int64
		score float64
	}{
		{1, 0.86}, // 1.0 * (0.6 + 0.2*0.5 + 0.2*0.8)
		{3, 0.76}, // 1.0 * (0.6 + 0.2*0.2 + 0.2*0.6)
	}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d: %+v", len(items), len(want), items)
	}
	for i, w := range want {
		if items[i].MovieID != w.id || !approxEqual(items[i].Score, w.score) {
			t.Errorf("item %d = %+v, want movie %d score %v", i, items[i], w.id, w.score)
		}
		if items[i].Reason != "Similar to your preferred genres: Action" {
			t.Errorf("Reason = %q", items[i].Reason)
		}
	}
}

func TestContentBased_RatedGenresEnrichProfile(t *testing.T) {
	c := NewContentBased()
	_ = c.Train(context.Background(), contentFixture())

	// Movie 5 (Comedy) rated 5 stars adds Comedy at weight 0.8.
	profile := recommend.NewProfile(1, []string{"Action"}, map[int64]float64{5: 5}, []int64{4})
	items, err := c.Recommend(context.Background(), profile, 10)
	if err != nil {
		t.Fatal(err)
	}

	var movie3 *recommend.ScoredMovie
	for i := range items {
		if items[i].MovieID == 2 || items[i].MovieID == 5 {
			t.Errorf("movie %d should not be a candidate", items[i].MovieID)
		}
		if items[i].MovieID == 3 {
			movie3 = &items[i]
		}
	}
	if movie3 == nil {
		t.Fatal("movie 3 missing")
	}
	want := (1.0*1.0 + 0.8*0.8) / 1.8 * 0.76
	if !approxEqual(movie3.Score, want) {
		t.Errorf("movie 3 score = %v, want %v", movie3.Score, want)
	}
}

func TestContentBased_NoPreferences(t *testing.T) {
	c := NewContentBased()
	_ = c.Train(context.Background(), contentFixture())

	items, err := c.Recommend(context.Background(), recommend.NewProfile(1, nil, map[int64]float64{1: 5}, nil), 10)
	if err != nil || len(items) != 0 {
		t.Errorf("no preferred genres = %v, %v; want nothing", items, err)
	}
	items, _ = c.Recommend(context.Background(), recommend.NewProfile(1, []string{"Unknown"}, nil, nil), 10)
	if len(items) != 0 {
		t.Errorf("unknown genre names = %v; want nothing", items)
	}
}

func TestContentBased_CandidatePoolBound(t *testing.T) {
	movies := make([]recommend.MovieFeatures, 0, 20)
	for i := int64(1); i <= 20; i++ {
		movies = append(movies, recommend.MovieFeatures{ID: i, GenreIDs: []int{28}, Popularity: float64(100 - i), VoteAverage: 7})
	}
	c := NewContentBased()
	_ = c.Train(context.Background(), &recommend.TrainingData{Movies: movies})

	items, _ := c.Recommend(context.Background(), recommend.NewProfile(1, []string{"Action"}, nil, nil), 2)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].MovieID != 1 || items[1].MovieID != 2 {
		t.Errorf("items = %d, %d; want 1, 2", items[0].MovieID, items[1].MovieID)
	}
}

func TestContentSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		profile map[int]float64
		movie   recommend.MovieFeatures
		want    float64
	}{
		{"no genres", map[int]float64{28: 1}, recommend.MovieFeatures{}, 0},
		{"no overlap", map[int]float64{28: 1}, recommend.MovieFeatures{GenreIDs: []int{35}}, 0},
		{"capped at 1", map[int]float64{28: 2}, recommend.MovieFeatures{GenreIDs: []int{28}, Popularity: 500, VoteAverage: 10}, 1},
		{"default weight", map[int]float64{16: 1}, recommend.MovieFeatures{GenreIDs: []int{16}}, 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentSimilarity(tt.profile, tt.movie); math.Abs(got-tt.want) > epsilon {
				t.Errorf("ContentSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenreLookups(t *testing.T) {
	if GenreWeight(28) != 1.0 || GenreWeight(27) != 0.7 || GenreWeight(16) != DefaultGenreWeight {
		t.Error("unexpected genre weights")
	}
	ids := GenreIDsForNames([]string{"Science Fiction", "Nope", "Western"})
	if len(ids) != 2 || ids[0] != 878 || ids[1] != 37 {
		t.Errorf("GenreIDsForNames = %v, want [878 37]", ids)
	}
}

func TestPopularity(t *testing.T) {
	p := NewPopularity(DefaultPopularityConfig())
	data := &recommend.TrainingData{Movies: []recommend.MovieFeatures{
		{ID: 1, Popularity: 120, VoteAverage: 7.5, VoteCount: 500},
		{ID: 2, Popularity: 50, VoteAverage: 6.5, VoteCount: 200},
		{ID: 3, Popularity: 5, VoteAverage: 9, VoteCount: 500},
		{ID: 4, Popularity: 80, VoteAverage: 6.0, VoteCount: 500},
		{ID: 5, Popularity: 80, VoteAverage: 8, VoteCount: 100},
	}}
	if err := p.Train(context.Background(), data); err != nil {
		t.Fatal(err)
	}

	items, err := p.Recommend(context.Background(), recommend.NewProfile(1, nil, nil, nil), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 eligible: %+v", len(items), items)
	}
	if items[0].MovieID != 1 || !approxEqual(items[0].Score, 0.9) {
		t.Errorf("first = %+v, want movie 1 score 0.9", items[0])
	}
	if items[1].MovieID != 2 || !approxEqual(items[1].Score, 0.56) {
		t.Errorf("second = %+v, want movie 2 score 0.56", items[1])
	}
	if items[0].Reason != PopularityReason {
		t.Errorf("Reason = %q", items[0].Reason)
	}

	excluded, _ := p.Recommend(context.Background(), recommend.NewProfile(1, nil, map[int64]float64{1: 3}, nil), 10)
	if len(excluded) != 1 || excluded[0].MovieID != 2 {
		t.Errorf("with movie 1 rated = %+v, want only movie 2", excluded)
	}

	limited, _ := p.Recommend(context.Background(), nil, 1)
	if len(limited) != 1 {
		t.Errorf("limit 1 returned %d items", len(limited))
	}
}
