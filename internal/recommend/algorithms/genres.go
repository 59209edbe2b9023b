// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package algorithms

// DefaultGenreWeight applies to genres missing from GenreWeights.
const DefaultGenreWeight = 0.5

// GenreWeights scales each TMDb genre's contribution to content similarity.
var GenreWeights = map[int]float64{
	28: 1.0, 12: 1.0, 10752: 1.0, // Action, Adventure, War
	18: 0.9, 10749: 0.9, // Drama, Romance
	35: 0.8, 10751: 0.8, // Comedy, Family
	53: 0.9, 27: 0.7, // Thriller, Horror
	878: 1.0, 14: 1.0, // Science Fiction, Fantasy
	99: 0.6, 10770: 0.5, // Documentary, TV Movie
}

// GenreIDs maps TMDb genre names, as stored in user preferences, to IDs.
var GenreIDs = map[string]int{
	"Action":          28,
	"Adventure":       12,
	"Animation":       16,
	"Comedy":          35,
	"Crime":           80,
	"Documentary":     99,
	"Drama":           18,
	"Family":          10751,
	"Fantasy":         14,
	"History":         36,
	"Horror":          27,
	"Music":           10402,
	"Mystery":         9648,
	"Romance":         10749,
	"Science Fiction": 878,
	"TV Movie":        10770,
	"Thriller":        53,
	"War":             10752,
	"Western":         37,
}

// GenreWeight returns the weight for a genre ID.
func GenreWeight(id int) float64 {
	if w, ok := GenreWeights[id]; ok {
		return w
	}
	return DefaultGenreWeight
}

// GenreIDsForNames maps names to IDs, dropping unknown names.
func GenreIDsForNames(names []string) []int {
	ids := make([]int, 0, len(names))
	for _, n := range names {
		if id, ok := GenreIDs[n]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
