// Package tmdb provides a client for The Movie Database API.
package tmdb

import "strconv"

// MovieResult is one entry of a movie search.
type MovieResult struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"` // "2024-03-01"
}

// TVResult is one entry of a TV search.
type TVResult struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	FirstAirDate string `json:"first_air_date"`
}

type searchResponse[T any] struct {
	Page         int `json:"page"`
	TotalResults int `json:"total_results"`
	Results      []T `json:"results"`
}

// Movie represents TMDB movie metadata.
type Movie struct {
	ID          int64   `json:"id"`
	IMDBID      string  `json:"imdb_id,omitempty"` // e.g., "tt0133093"
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	Runtime     int     `json:"runtime"` // minutes
	Genres      []Genre `json:"genres"`
}

// Year extracts the year from ReleaseDate.
func (m *Movie) Year() int {
	return yearOf(m.ReleaseDate)
}

// TV represents TMDB series metadata.
type TV struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   string  `json:"poster_path"`
	Genres       []Genre `json:"genres"`
}

// Year extracts the year from FirstAirDate.
func (t *TV) Year() int {
	return yearOf(t.FirstAirDate)
}

// Genre represents a movie or series genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreNames flattens genres to their names.
func GenreNames(genres []Genre) []string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Name)
	}
	return names
}

// ExternalIDs are the cross-reference ids TMDB knows for a title.
type ExternalIDs struct {
	ID     int64  `json:"id"`
	IMDBID string `json:"imdb_id"`
	TVDBID int64  `json:"tvdb_id,omitempty"`
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
