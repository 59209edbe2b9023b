// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package tmdb

// MovieResult is a movie as it appears in TMDb list responses.
type MovieResult struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	Adult            bool    `json:"adult"`
	OriginalLanguage string  `json:"original_language"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	GenreIDs         []int   `json:"genre_ids"`
}

// MovieList is a paged list response.
type MovieList struct {
	Page         int           `json:"page"`
	Results      []MovieResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// Genre is one entry of the genre list.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreList is the /genre/movie/list response.
type GenreList struct {
	Genres []Genre `json:"genres"`
}

// CastMember is one credited actor.
type CastMember struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

// CrewMember is one credited crew member.
type CrewMember struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// Credits is appended to details with append_to_response=credits.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// Video is a trailer or clip.
type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// Videos is appended to details with append_to_response=videos.
type Videos struct {
	Results []Video `json:"results"`
}

// MovieDetails is the /movie/{id} response. Genres are objects here rather
// than the genre_ids of list results.
type MovieDetails struct {
	ID               int64    `json:"id"`
	IMDbID           string   `json:"imdb_id"`
	Title            string   `json:"title"`
	OriginalTitle    string   `json:"original_title"`
	Overview         string   `json:"overview"`
	Tagline          string   `json:"tagline"`
	ReleaseDate      string   `json:"release_date"`
	PosterPath       string   `json:"poster_path"`
	BackdropPath     string   `json:"backdrop_path"`
	Adult            bool     `json:"adult"`
	OriginalLanguage string   `json:"original_language"`
	Popularity       float64  `json:"popularity"`
	VoteAverage      float64  `json:"vote_average"`
	VoteCount        int      `json:"vote_count"`
	Runtime          int      `json:"runtime"`
	Status           string   `json:"status"`
	Budget           int64    `json:"budget"`
	Revenue          int64    `json:"revenue"`
	Homepage         string   `json:"homepage"`
	Genres           []Genre  `json:"genres"`
	Credits          *Credits `json:"credits,omitempty"`
	Videos           *Videos  `json:"videos,omitempty"`
}

// AsResult flattens details into the list form used for catalog upserts.
func (d *MovieDetails) AsResult() MovieResult {
	ids := make([]int, len(d.Genres))
	for i, g := range d.Genres {
		ids[i] = g.ID
	}
	return MovieResult{
		ID:               d.ID,
		Title:            d.Title,
		OriginalTitle:    d.OriginalTitle,
		Overview:         d.Overview,
		ReleaseDate:      d.ReleaseDate,
		PosterPath:       d.PosterPath,
		BackdropPath:     d.BackdropPath,
		Adult:            d.Adult,
		OriginalLanguage: d.OriginalLanguage,
		Popularity:       d.Popularity,
		VoteAverage:      d.VoteAverage,
		VoteCount:        d.VoteCount,
		GenreIDs:         ids,
	}
}
