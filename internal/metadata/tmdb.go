package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vmunix/remotefiles/internal/tmdb"
	"github.com/vmunix/remotefiles/pkg/medianame"
)

// DefaultCacheTTL is how long a successful lookup is reused.
const DefaultCacheTTL = 7 * 24 * time.Hour

// Cache key prefixes
const (
	keyPrefixMovie  = "tmdb:movie:"
	keyPrefixSeries = "tmdb:series:"
)

// TMDBClient is the subset of the TMDB API used for resolution.
type TMDBClient interface {
	SearchMovie(ctx context.Context, query string, year int) ([]tmdb.MovieResult, error)
	SearchTV(ctx context.Context, query string) ([]tmdb.TVResult, error)
	GetMovie(ctx context.Context, tmdbID int64) (*tmdb.Movie, error)
	GetTV(ctx context.Context, tmdbID int64) (*tmdb.TV, error)
	MovieExternalIDs(ctx context.Context, tmdbID int64) (*tmdb.ExternalIDs, error)
	TVExternalIDs(ctx context.Context, tmdbID int64) (*tmdb.ExternalIDs, error)
}

// TMDBResolver resolves titles through TMDB: search, take the first result,
// fetch details and external ids, and key the result by IMDb id.
// Only found results are cached; misses and failures are retried on the next scan.
type TMDBResolver struct {
	client TMDBClient
	cache  *Cache // may be nil
	ttl    time.Duration
	log    *slog.Logger
}

// NewTMDBResolver creates a resolver. A nil cache disables caching.
func NewTMDBResolver(client TMDBClient, cache *Cache, ttl time.Duration, log *slog.Logger) *TMDBResolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &TMDBResolver{
		client: client,
		cache:  cache,
		ttl:    ttl,
		log:    log.With("component", "tmdb-resolver"),
	}
}

var _ Resolver = (*TMDBResolver)(nil)

func movieKey(title string, year int) string {
	return fmt.Sprintf("%s%s:%d", keyPrefixMovie, strings.ToLower(title), year)
}

func seriesKey(title string) string {
	return keyPrefixSeries + strings.ToLower(title)
}

// ResolveMovie resolves a movie by title and year. A zero year searches all years.
func (r *TMDBResolver) ResolveMovie(ctx context.Context, title string, year int) Result {
	key := movieKey(title, year)
	if meta, ok := r.cached(ctx, key); ok {
		r.log.Debug("cache hit", "title", title, "year", year, "id", meta.ID)
		return Found(meta)
	}

	results, err := r.client.SearchMovie(ctx, medianame.SearchQuery(title), year)
	if err != nil {
		return r.failed(err, "title", title, "year", year)
	}
	if len(results) == 0 {
		r.log.Info("no search results", "title", title, "year", year)
		return NotFound()
	}

	first := results[0]
	match := r.scoreMatch(title, first.Title, first.ID)

	details, err := r.client.GetMovie(ctx, first.ID)
	if err != nil {
		return r.failed(err, "title", title, "tmdb_id", first.ID)
	}
	ids, err := r.client.MovieExternalIDs(ctx, first.ID)
	if err != nil {
		return r.failed(err, "title", title, "tmdb_id", first.ID)
	}
	if ids.IMDBID == "" {
		r.log.Info("match has no IMDb id", "title", title, "tmdb_id", first.ID)
		return NotFound()
	}

	meta := &Meta{
		ID:        ids.IMDBID,
		Name:      firstNonEmpty(details.Title, first.Title, title),
		Year:      details.Year(),
		PosterURL: PosterURL(ids.IMDBID),
		Genres:    tmdb.GenreNames(details.Genres),
		Match:     match,
	}
	r.store(ctx, key, meta)
	return Found(meta)
}

// ResolveSeries resolves a series by directory name.
func (r *TMDBResolver) ResolveSeries(ctx context.Context, title string) Result {
	key := seriesKey(title)
	if meta, ok := r.cached(ctx, key); ok {
		r.log.Debug("cache hit", "title", title, "id", meta.ID)
		return Found(meta)
	}

	results, err := r.client.SearchTV(ctx, medianame.SearchQuery(title))
	if err != nil {
		return r.failed(err, "title", title)
	}
	if len(results) == 0 {
		r.log.Info("no search results", "title", title)
		return NotFound()
	}

	first := results[0]
	match := r.scoreMatch(title, first.Name, first.ID)

	details, err := r.client.GetTV(ctx, first.ID)
	if err != nil {
		return r.failed(err, "title", title, "tmdb_id", first.ID)
	}
	ids, err := r.client.TVExternalIDs(ctx, first.ID)
	if err != nil {
		return r.failed(err, "title", title, "tmdb_id", first.ID)
	}
	if ids.IMDBID == "" {
		r.log.Info("match has no IMDb id", "title", title, "tmdb_id", first.ID)
		return NotFound()
	}

	meta := &Meta{
		ID:        ids.IMDBID,
		Name:      firstNonEmpty(details.Name, first.Name, title),
		PosterURL: PosterURL(ids.IMDBID),
		Genres:    tmdb.GenreNames(details.Genres),
		Match:     match,
	}
	r.store(ctx, key, meta)
	return Found(meta)
}

func (r *TMDBResolver) cached(ctx context.Context, key string) (*Meta, bool) {
	if r.cache == nil {
		return nil, false
	}
	var meta Meta
	ok, err := r.cache.Lookup(ctx, key, &meta)
	if err != nil {
		r.log.Warn("cache lookup failed", "key", key, "error", err)
		return nil, false
	}
	if !ok || meta.ID == "" {
		return nil, false
	}
	return &meta, true
}

func (r *TMDBResolver) store(ctx context.Context, key string, meta *Meta) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Store(ctx, key, meta, r.ttl); err != nil {
		r.log.Warn("failed to cache lookup", "key", key, "error", err)
	}
}

// failed records a transport or status failure. Any failure, including a 404
// on a detail call, is unavailable rather than a miss.
func (r *TMDBResolver) failed(err error, attrs ...any) Result {
	r.log.Warn("lookup failed", append(attrs, "not_found", errors.Is(err, tmdb.ErrNotFound), "error", err)...)
	return Unavailable(err)
}

// scoreMatch rates how closely the first search result matches the parsed
// title and returns the confidence label. The first result is always taken;
// a weak match is only flagged.
func (r *TMDBResolver) scoreMatch(parsed, candidate string, tmdbID int64) string {
	m := medianame.MatchTitle(parsed, candidate)
	if m.Confidence <= medianame.ConfidenceLow {
		r.log.Warn("weak title match", "title", parsed, "candidate", candidate, "tmdb_id", tmdbID,
			"score", m.Score, "confidence", m.Confidence.String())
	} else {
		r.log.Debug("title match", "title", parsed, "candidate", candidate, "tmdb_id", tmdbID,
			"confidence", m.Confidence.String())
	}
	return m.Confidence.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
