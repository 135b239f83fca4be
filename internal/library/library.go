// Package library is the catalog store: titles, episodes and the files that back them.
package library

import (
	"time"
)

// Kind distinguishes movies from series.
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindMovie || k == KindSeries
}

// Title is a movie or series keyed by its external id (e.g. "tt1375666").
type Title struct {
	ID        string
	Kind      Kind
	Name      string
	Year      *int // nil when unknown
	PosterURL string
	Genres    []string
	AddedAt   time.Time
}

// Episode is one (season, episode) slot of a series.
type Episode struct {
	ID       int64
	SeriesID string
	Season   int
	Episode  int
	AddedAt  time.Time
}

// File is a playable file on disk. Exactly one of MovieID and EpisodeID is set.
type File struct {
	ID         int64
	Path       string
	MovieID    *string
	EpisodeID  *int64
	Resolution string // empty when unknown
	SizeBytes  int64
	AddedAt    time.Time
}

// NewMovieFile builds a file owned by a movie.
func NewMovieFile(path, movieID, resolution string, size int64) (*File, error) {
	f := &File{Path: path, MovieID: &movieID, Resolution: resolution, SizeBytes: size}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// NewEpisodeFile builds a file owned by an episode.
func NewEpisodeFile(path string, episodeID int64, resolution string, size int64) (*File, error) {
	f := &File{Path: path, EpisodeID: &episodeID, Resolution: resolution, SizeBytes: size}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks the path and the movie/episode ownership rule.
func (f *File) Validate() error {
	if f.Path == "" {
		return ErrInvalidPath
	}
	hasMovie := f.MovieID != nil && *f.MovieID != ""
	hasEpisode := f.EpisodeID != nil
	if hasMovie == hasEpisode {
		return ErrInvalidOwner
	}
	return nil
}

// Kind reports which kind of title owns the file.
func (f *File) Kind() Kind {
	if f.EpisodeID != nil {
		return KindSeries
	}
	return KindMovie
}

// TitleSummary is a title with aggregate file information.
type TitleSummary struct {
	Title
	FileCount  int
	TotalBytes int64
}

// TitleFilter specifies criteria for listing titles.
type TitleFilter struct {
	Kind  *Kind
	Limit int // 0 = no limit
}

// EpisodeFilter specifies criteria for listing episodes.
type EpisodeFilter struct {
	SeriesID *string
	Season   *int
}

// FileFilter specifies criteria for listing files.
type FileFilter struct {
	Kind      *Kind
	MovieID   *string
	EpisodeID *int64
}
