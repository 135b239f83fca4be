package stream

import (
	"fmt"
	"log/slog"
	"math"
	"path"
	"strconv"
	"strings"

	"github.com/vmunix/remotefiles/internal/library"
)

// Default provider labels.
const (
	DefaultInternalName = "Remote Files (Internal)"
	DefaultExternalName = "Remote Files (External)"
)

// BehaviorHints are player hints attached to a stream.
type BehaviorHints struct {
	NotWebReady bool   `json:"notWebReady"`
	Confidence  int    `json:"confidence,omitempty"`
	BingeGroup  string `json:"bingeGroup,omitempty"`
}

// Descriptor is one playable stream.
type Descriptor struct {
	Name          string        `json:"name"`
	Title         string        `json:"title"`
	URL           string        `json:"url"`
	Availability  string        `json:"availability,omitempty"`
	BehaviorHints BehaviorHints `json:"behaviorHints"`
}

// FileSource looks up the files backing a movie or episode, in insertion order.
type FileSource interface {
	MovieFiles(movieID string) ([]*library.File, error)
	EpisodeFiles(seriesID string, season, episode int) ([]*library.File, error)
}

// Endpoint is the public base URL and provider label for one trust level.
type Endpoint struct {
	BaseURL string
	Name    string
}

// Config configures URL building.
type Config struct {
	MediaRoot string // internal mount point stripped from file paths, e.g. "/media"
	Internal  Endpoint
	External  Endpoint
}

// Resolver builds stream descriptors from catalog files.
// It only reads the store and is safe for concurrent use.
type Resolver struct {
	files FileSource
	gate  *Gate
	cfg   Config
	log   *slog.Logger
}

// NewResolver creates a stream resolver.
func NewResolver(files FileSource, gate *Gate, cfg Config, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Internal.Name == "" {
		cfg.Internal.Name = DefaultInternalName
	}
	if cfg.External.Name == "" {
		cfg.External.Name = DefaultExternalName
	}
	cfg.MediaRoot = strings.TrimSuffix(cfg.MediaRoot, "/")
	cfg.Internal.BaseURL = strings.TrimSuffix(cfg.Internal.BaseURL, "/")
	cfg.External.BaseURL = strings.TrimSuffix(cfg.External.BaseURL, "/")
	return &Resolver{
		files: files,
		gate:  gate,
		cfg:   cfg,
		log:   log.With("component", "stream"),
	}
}

func (r *Resolver) endpoint(trust Trust) Endpoint {
	if trust == TrustExternal {
		return r.cfg.External
	}
	return r.cfg.Internal
}

// MovieStreams returns the streams for a movie. An unauthorized request gets
// an empty list, never an error.
func (r *Resolver) MovieStreams(movieID string, trust Trust, token string) ([]Descriptor, error) {
	if !r.gate.Allow(trust, token) {
		r.log.Debug("stream request denied", "id", movieID, "trust", trust.String())
		return []Descriptor{}, nil
	}
	files, err := r.files.MovieFiles(movieID)
	if err != nil {
		return nil, fmt.Errorf("movie files %s: %w", movieID, err)
	}

	ep := r.endpoint(trust)
	out := make([]Descriptor, 0, len(files))
	for _, f := range files {
		d := r.describe(ep, f)
		d.Availability = "local"
		d.BehaviorHints.Confidence = 1
		out = append(out, d)
	}
	return out, nil
}

// EpisodeStreams returns the streams for one episode of a series. All episodes
// of a series share a binge group.
func (r *Resolver) EpisodeStreams(seriesID string, season, episode int, trust Trust, token string) ([]Descriptor, error) {
	if !r.gate.Allow(trust, token) {
		r.log.Debug("stream request denied", "id", seriesID, "trust", trust.String())
		return []Descriptor{}, nil
	}
	files, err := r.files.EpisodeFiles(seriesID, season, episode)
	if err != nil {
		return nil, fmt.Errorf("episode files %s:%d:%d: %w", seriesID, season, episode, err)
	}

	ep := r.endpoint(trust)
	out := make([]Descriptor, 0, len(files))
	for _, f := range files {
		d := r.describe(ep, f)
		d.BehaviorHints.BingeGroup = seriesID
		out = append(out, d)
	}
	return out, nil
}

func (r *Resolver) describe(ep Endpoint, f *library.File) Descriptor {
	return Descriptor{
		Name:  strings.TrimSpace(ep.Name + " " + f.Resolution),
		Title: fmt.Sprintf("%s\n💾 %s GB", path.Base(f.Path), formatGiB(f.SizeBytes)),
		URL:   ep.BaseURL + EncodePath(r.relative(f.Path)),
	}
}

// relative strips the media root from p, keeping the leading slash.
func (r *Resolver) relative(p string) string {
	if r.cfg.MediaRoot != "" && strings.HasPrefix(p, r.cfg.MediaRoot+"/") {
		return p[len(r.cfg.MediaRoot):]
	}
	return p
}

func formatGiB(size int64) string {
	gib := float64(size) / (1 << 30)
	return strconv.FormatFloat(math.Round(gib*10)/10, 'f', 1, 64)
}

// EncodePath percent-encodes each segment of p, keeping the separators.
func EncodePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = escapeSegment(s)
	}
	return strings.Join(segments, "/")
}

const upperhex = "0123456789ABCDEF"

// escapeSegment escapes every byte outside the RFC 3986 unreserved set,
// sub-delimiters included.
func escapeSegment(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}

// ParseEpisodeID splits "<seriesId>:<season>:<episode>". ok is false when the
// id is malformed or the numbers are not non-negative integers.
func ParseEpisodeID(id string) (seriesID string, season, episode int, ok bool) {
	parts := strings.Split(id, ":")
	if len(parts) != 3 || parts[0] == "" {
		return "", 0, 0, false
	}
	season, err := strconv.Atoi(parts[1])
	if err != nil || season < 0 {
		return "", 0, 0, false
	}
	episode, err = strconv.Atoi(parts[2])
	if err != nil || episode < 0 {
		return "", 0, 0, false
	}
	return parts[0], season, episode, true
}
