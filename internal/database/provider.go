// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/reelmatch/internal/recommend"
)

// RecommendationDataProvider adapts DB to recommend.DataProvider.
type RecommendationDataProvider struct {
	db *DB
}

// NewRecommendationDataProvider creates a provider backed by db.
func NewRecommendationDataProvider(db *DB) *RecommendationDataProvider {
	return &RecommendationDataProvider{db: db}
}

// LoadTrainingData returns every rating and the movie feature table.
func (p *RecommendationDataProvider) LoadTrainingData(ctx context.Context) (*recommend.TrainingData, error) {
	ratings, err := p.db.AllRatings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	movies, err := p.db.ListMoviesForRecommendation(ctx)
	if err != nil {
		return nil, fmt.Errorf("load movies: %w", err)
	}

	data := &recommend.TrainingData{
		Ratings: make([]recommend.Rating, len(ratings)),
		Movies:  movies,
	}
	for i, r := range ratings {
		data.Ratings[i] = recommend.Rating{UserID: r.UserID, MovieID: r.MovieID, Value: r.Rating}
	}
	return data, nil
}

// LoadProfile returns the user's preferred genres, ratings and favourites.
func (p *RecommendationDataProvider) LoadProfile(ctx context.Context, userID int64) (*recommend.Profile, error) {
	user, err := p.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}

	rows, err := p.db.conn.QueryContext(ctx, `SELECT movie_id, rating FROM ratings WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("load ratings for user %d: %w", userID, err)
	}
	defer closeWithLog(rows, "rows")

	ratings := make(map[int64]float64)
	for rows.Next() {
		var (
			movieID int64
			value   float64
		)
		if err := rows.Scan(&movieID, &value); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings[movieID] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}

	favorites, err := p.db.FavoriteMovieIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load favorites for user %d: %w", userID, err)
	}

	return recommend.NewProfile(userID, user.Preferences.Genres, ratings, favorites), nil
}

var _ recommend.DataProvider = (*RecommendationDataProvider)(nil)
