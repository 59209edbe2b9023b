// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package recommend implements the hybrid movie recommendation engine and the
// service that serves it over the catalog.
//
// # Architecture
//
// The Engine combines three algorithm families registered by name:
//
//   - collaborative: user-based collaborative filtering over star ratings,
//     cosine similarity on full rating vectors
//   - content: genre affinity built from preferred genres and highly rated
//     movies, weighted per genre
//   - popularity: popular, well rated movies the user has not touched
//
// A request runs collaborative (when the user has enough ratings) and
// content in parallel, each asked for half the limit, scales their scores by
// the configured weights and fills any shortfall from popularity. Results
// are deduplicated by movie, keeping the highest score and the first reason,
// optionally diversified with MMR and truncated to the limit.
//
// # Data
//
// The engine reads through the DataProvider interface, implemented by the
// database package, so this package does not import storage. Training loads
// every rating and the movie feature table; profiles are loaded per request.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), logger)
//	engine.SetDataProvider(database.NewRecommendationDataProvider(db))
//	engine.RegisterAlgorithm(algorithms.NewCollaborative(algorithms.DefaultCollaborativeConfig()))
//	engine.RegisterAlgorithm(algorithms.NewContentBased())
//	engine.RegisterAlgorithm(algorithms.NewPopularity())
//
//	if err := engine.Train(ctx); err != nil { ... }
//	resp, err := engine.Recommend(ctx, recommend.Request{UserID: 42, Limit: 20})
//
// # Thread Safety
//
// The engine is safe for concurrent use. Training holds an exclusive lock
// taken with TryLock, so overlapping Train calls return ErrTrainingInProgress
// instead of queueing.
package recommend
