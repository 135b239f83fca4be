// Package metadata resolves parsed titles to canonical catalog metadata.
package metadata

import (
	"context"
	"fmt"
)

// Status is the outcome of a lookup.
type Status int

const (
	// StatusFound means the title resolved to a canonical external id.
	StatusFound Status = iota
	// StatusNotFound means the provider has no usable match.
	StatusNotFound
	// StatusUnavailable means the provider could not be reached or failed.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	case StatusUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Meta is canonical metadata for a movie or series.
type Meta struct {
	ID        string   `json:"id"` // IMDb id, e.g. "tt1375666"
	Name      string   `json:"name"`
	Year      int      `json:"year,omitempty"` // 0 when unknown
	PosterURL string   `json:"poster_url"`
	Genres    []string `json:"genres"`
	// Match is how closely the provider title matched the parsed one:
	// high, medium, low or none. Empty when not scored.
	Match string `json:"match,omitempty"`
}

// WeakMatch reports whether the provider title scored low or not at all.
func (m *Meta) WeakMatch() bool {
	return m.Match == "low" || m.Match == "none"
}

// Result is a typed lookup outcome. Meta is set only when Status is StatusFound;
// Err carries the cause of StatusUnavailable.
type Result struct {
	Status Status
	Meta   *Meta
	Err    error
}

// Found wraps meta in a successful result.
func Found(meta *Meta) Result { return Result{Status: StatusFound, Meta: meta} }

// NotFound is the result for a lookup with no usable match.
func NotFound() Result { return Result{Status: StatusNotFound} }

// Unavailable is the result for a failed lookup.
func Unavailable(err error) Result { return Result{Status: StatusUnavailable, Err: err} }

// Resolver maps parsed identities to canonical metadata.
// Implementations make a single attempt per call and never retry.
//
//go:generate mockgen -destination=mocks/mock_resolver.go -package=mocks . Resolver
type Resolver interface {
	ResolveMovie(ctx context.Context, title string, year int) Result
	ResolveSeries(ctx context.Context, title string) Result
}

const posterURLTemplate = "https://images.metahub.space/poster/medium/%s/img"

// PosterURL builds the poster image URL for an external id.
func PosterURL(externalID string) string {
	if externalID == "" {
		return ""
	}
	return fmt.Sprintf(posterURLTemplate, externalID)
}
