// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package recommend

import (
	"context"
	"time"
)

// Algorithm names used for registration, weights and score sources.
const (
	AlgorithmCollaborative = "collaborative"
	AlgorithmContent       = "content"
	AlgorithmPopularity    = "popularity"
)

// Rating is one explicit star rating used for training.
type Rating struct {
	UserID  int64   `json:"user_id"`
	MovieID int64   `json:"movie_id"`
	Value   float64 `json:"rating"`
}

// MovieFeatures is the catalog metadata the algorithms score on.
type MovieFeatures struct {
	ID          int64   `json:"id"`
	GenreIDs    []int   `json:"genre_ids"`
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
}

// TrainingData is the full snapshot handed to Algorithm.Train.
type TrainingData struct {
	Ratings []Rating
	Movies  []MovieFeatures
}

// Profile is the per-request view of a user.
type Profile struct {
	UserID int64

	// PreferredGenres holds genre names as stored in user preferences.
	PreferredGenres []string

	// Ratings maps movie ID to the user's star rating.
	Ratings map[int64]float64

	// Favorites holds favourite movie IDs.
	Favorites map[int64]struct{}

	// Excluded is the union of Favorites and rated movies; nothing in it is
	// ever recommended.
	Excluded map[int64]struct{}
}

// NewProfile builds a profile and derives Excluded from ratings and favorites.
func NewProfile(userID int64, genres []string, ratings map[int64]float64, favorites []int64) *Profile {
	p := &Profile{
		UserID:          userID,
		PreferredGenres: genres,
		Ratings:         ratings,
		Favorites:       make(map[int64]struct{}, len(favorites)),
		Excluded:        make(map[int64]struct{}, len(favorites)+len(ratings)),
	}
	if p.Ratings == nil {
		p.Ratings = make(map[int64]float64)
	}
	for _, id := range favorites {
		p.Favorites[id] = struct{}{}
		p.Excluded[id] = struct{}{}
	}
	for id := range p.Ratings {
		p.Excluded[id] = struct{}{}
	}
	return p
}

// IsExcluded reports whether movieID has already been rated or favourited.
func (p *Profile) IsExcluded(movieID int64) bool {
	_, ok := p.Excluded[movieID]
	return ok
}

// ScoredMovie is one recommendation candidate.
type ScoredMovie struct {
	MovieID int64   `json:"movie_id"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason"`

	// Source is the algorithm that first produced the movie.
	Source string `json:"source"`

	// GenreIDs is carried for diversity reranking.
	GenreIDs []int `json:"genre_ids,omitempty"`
}

// Request asks the engine for recommendations.
type Request struct {
	UserID int64 `json:"user_id"`

	// Limit defaults to Config.DefaultLimit and is capped at Config.MaxLimit.
	Limit int `json:"limit,omitempty"`

	RequestID string `json:"request_id,omitempty"`
}

// Response is the ordered engine output.
type Response struct {
	Items    []ScoredMovie    `json:"items"`
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata carries diagnostics for one response.
type ResponseMetadata struct {
	RequestID      string    `json:"request_id"`
	UserID         int64     `json:"user_id"`
	Algorithm      string    `json:"algorithm"`
	AlgorithmsUsed []string  `json:"algorithms_used"`
	Fallback       bool      `json:"fallback"`
	Cached         bool      `json:"cached"`
	LatencyMS      int64     `json:"latency_ms"`
	ModelVersion   int       `json:"model_version"`
	TrainedAt      time.Time `json:"trained_at"`
	Timestamp      time.Time `json:"timestamp"`
}

// Algorithm is implemented by every recommendation algorithm.
type Algorithm interface {
	// Name returns the identifier used for weights (see Algorithm* constants).
	Name() string

	// Train fits the model on a full data snapshot.
	Train(ctx context.Context, data *TrainingData) error

	// Recommend returns up to limit movies for the profile, best first.
	// Scores are unweighted; the engine applies algorithm weights.
	Recommend(ctx context.Context, profile *Profile, limit int) ([]ScoredMovie, error)

	IsTrained() bool
	Version() int
	LastTrainedAt() time.Time
}

// Reranker reorders a ranked list for a secondary objective.
type Reranker interface {
	Name() string

	// Rerank returns up to k items from a list sorted by relevance.
	Rerank(ctx context.Context, items []ScoredMovie, k int) []ScoredMovie
}

// DataProvider loads engine inputs. Implemented by the database layer.
type DataProvider interface {
	// LoadTrainingData returns every rating and the movie feature table.
	LoadTrainingData(ctx context.Context) (*TrainingData, error)

	// LoadProfile returns a user's preferences, ratings and favourites.
	LoadProfile(ctx context.Context, userID int64) (*Profile, error)
}

// TrainingStatus reports the state of the last training run.
type TrainingStatus struct {
	IsTraining             bool      `json:"is_training"`
	LastTrainedAt          time.Time `json:"last_trained_at"`
	LastTrainingDurationMS int64     `json:"last_training_duration_ms"`
	LastError              string    `json:"last_error,omitempty"`
	RatingCount            int       `json:"rating_count"`
	MovieCount             int       `json:"movie_count"`
	UserCount              int       `json:"user_count"`
	ModelVersion           int       `json:"model_version"`
}

// AlgorithmStatus describes one registered algorithm.
type AlgorithmStatus struct {
	Name          string    `json:"name"`
	Weight        float64   `json:"weight"`
	Trained       bool      `json:"trained"`
	Version       int       `json:"version"`
	LastTrainedAt time.Time `json:"last_trained_at"`
}

// Status is the engine snapshot exposed by the status endpoint.
type Status struct {
	Training     TrainingStatus    `json:"training"`
	Algorithms   []AlgorithmStatus `json:"algorithms"`
	Rerankers    []string          `json:"rerankers"`
	RequestCount int64             `json:"request_count"`
	CacheHits    int64             `json:"cache_hits"`
	CacheMisses  int64             `json:"cache_misses"`
	ErrorCount   int64             `json:"error_count"`
}
