// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package catalog

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/models"
)

// AddFavorite marks a catalog movie as a favorite of the user.
func (s *Service) AddFavorite(ctx context.Context, userID, movieID int64) (*models.Favorite, error) {
	movie, err := s.requireMovie(ctx, movieID)
	if err != nil {
		return nil, err
	}

	fav, err := s.store.AddFavorite(ctx, userID, movieID)
	if err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, ErrAlreadyFavorite
		}
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	fav.Movie = movie

	s.afterActivity(ctx, &models.Interaction{
		UserID:  userID,
		MovieID: movieID,
		Type:    models.InteractionFavorite,
	})
	return fav, nil
}

// RemoveFavorite deletes one of the user's favorites by favorite ID.
func (s *Service) RemoveFavorite(ctx context.Context, userID, favoriteID int64) error {
	movieID, err := s.store.RemoveFavorite(ctx, userID, favoriteID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return ErrFavoriteNotFound
		}
		return fmt.Errorf("remove favorite: %w", err)
	}
	s.invalidate(ctx, userID)
	logging.Ctx(ctx).Debug().Int64("user_id", userID).Int64("movie_id", movieID).Msg("Favorite removed")
	return nil
}

// ListFavorites returns the user's favorites, newest first.
func (s *Service) ListFavorites(ctx context.Context, userID int64) ([]models.Favorite, error) {
	favs, err := s.store.ListFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	if favs == nil {
		favs = []models.Favorite{}
	}
	return favs, nil
}

// Rate creates or updates the user's rating of a movie. created reports
// whether a new rating was stored.
func (s *Service) Rate(ctx context.Context, userID, movieID int64, value float64, review string) (*models.Rating, bool, error) {
	if err := models.ValidateRating(value); err != nil {
		return nil, false, err
	}
	if utf8.RuneCountInString(review) > models.MaxReviewLength {
		return nil, false, ErrReviewTooLong
	}
	movie, err := s.requireMovie(ctx, movieID)
	if err != nil {
		return nil, false, err
	}

	rating, created, err := s.store.UpsertRating(ctx, userID, movieID, value, review)
	if err != nil {
		return nil, false, fmt.Errorf("upsert rating: %w", err)
	}
	rating.Movie = movie

	v := value
	s.afterActivity(ctx, &models.Interaction{
		UserID:   userID,
		MovieID:  movieID,
		Type:     models.InteractionRating,
		Value:    &v,
		Metadata: map[string]any{"created": created},
	})
	return rating, created, nil
}

// ListRatings returns the user's ratings, most recently updated first.
func (s *Service) ListRatings(ctx context.Context, userID int64) ([]models.Rating, error) {
	ratings, err := s.store.ListRatingsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	if ratings == nil {
		ratings = []models.Rating{}
	}
	return ratings, nil
}

func (s *Service) requireMovie(ctx context.Context, movieID int64) (*models.Movie, error) {
	movie, err := s.store.GetMovieByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("lookup movie: %w", err)
	}
	return movie, nil
}

// afterActivity records and publishes the interaction, then drops the user's
// cached recommendations. Failures are logged only.
func (s *Service) afterActivity(ctx context.Context, in *models.Interaction) {
	logger := logging.Ctx(ctx)
	in.CreatedAt = s.now().UTC()

	if id, err := s.store.CreateInteraction(ctx, in); err != nil {
		logger.Warn().Err(err).Int64("user_id", in.UserID).Str("type", string(in.Type)).Msg("Failed to record interaction")
	} else {
		in.ID = id
	}

	if s.publisher != nil {
		if err := s.publisher.PublishInteraction(ctx, in); err != nil {
			logger.Warn().Err(err).Int64("user_id", in.UserID).Msg("Failed to publish interaction event")
		}
	}
	s.invalidate(ctx, in.UserID)
}

func (s *Service) invalidate(ctx context.Context, userID int64) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateUser(ctx, userID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Msg("Failed to invalidate recommendations")
	}
}
