// Package scanner keeps the catalog in sync with the movie and series trees on disk.
//
// A pass walks one tree, parses and resolves every candidate, then reconciles
// the store in a single transaction: upsert everything that resolved, then
// delete files of that kind whose paths were not seen. Titles and episodes
// are never removed by an incremental pass; only a rebuild drops them, and
// only for a kind whose root is present.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vmunix/remotefiles/internal/events"
	"github.com/vmunix/remotefiles/internal/library"
	"github.com/vmunix/remotefiles/internal/metadata"
	"github.com/vmunix/remotefiles/pkg/medianame"
)

// ErrScanInProgress is returned when a pass for the same kind is already running.
var ErrScanInProgress = errors.New("scan already in progress")

// Mode is the kind of scan invocation.
type Mode string

const (
	ModeIncremental Mode = "incremental"
	ModeRebuild     Mode = "rebuild"
)

// Config holds the scanner settings.
type Config struct {
	MoviesRoot  string
	SeriesRoot  string
	EpisodeMode medianame.Mode
}

// Report describes the outcome of one pass over one kind.
type Report struct {
	Kind         library.Kind  `json:"kind"`
	ScanID       string        `json:"scan_id"`
	Mode         Mode          `json:"mode"`
	Skipped      bool          `json:"skipped"`
	SkipReason   string        `json:"skip_reason,omitempty"`
	Seen         int           `json:"seen"`
	Unrecognized int           `json:"unrecognized"`
	Unresolved   int           `json:"unresolved"`
	Upserted     int           `json:"upserted"`
	Deleted      int           `json:"deleted"`
	WeakMatches  int           `json:"weak_matches"` // titles whose provider match scored low
	Duration     time.Duration `json:"duration_ns"`
}

// Summary groups the per-kind reports of one invocation.
type Summary struct {
	Mode   Mode    `json:"mode"`
	Movies *Report `json:"movies"`
	Series *Report `json:"series"`
}

// Scanner runs synchronization passes. Passes of different kinds may run
// concurrently; a second pass for a busy kind fails with ErrScanInProgress.
type Scanner struct {
	store    *library.Store
	resolver metadata.Resolver
	bus      *events.Bus // may be nil
	cfg      Config
	log      *slog.Logger

	movieMu  sync.Mutex
	seriesMu sync.Mutex
}

// New creates a scanner.
func New(store *library.Store, resolver metadata.Resolver, bus *events.Bus, cfg Config, log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	if cfg.EpisodeMode == "" {
		cfg.EpisodeMode = medianame.ModeLenient
	}
	return &Scanner{
		store:    store,
		resolver: resolver,
		bus:      bus,
		cfg:      cfg,
		log:      log.With("component", "scanner"),
	}
}

// plannedFile is a candidate that parsed and resolved during the walk.
type plannedFile struct {
	path       string
	size       int64
	resolution string
	meta       *metadata.Meta
	season     int // series only
	episode    int // series only
}

// plan is the result of walking one tree, applied later in one transaction.
type plan struct {
	kind    library.Kind
	files   []plannedFile
	seen    map[string]struct{}
	report  *Report
	started time.Time
	log     *slog.Logger
}

func (s *Scanner) newPlan(kind library.Kind, mode Mode) *plan {
	id := uuid.NewString()
	return &plan{
		kind:    kind,
		seen:    make(map[string]struct{}),
		report:  &Report{Kind: kind, ScanID: id, Mode: mode},
		started: time.Now(),
		log:     s.log.With("kind", string(kind), "scan_id", id, "mode", string(mode)),
	}
}

func (p *plan) add(f plannedFile) {
	p.files = append(p.files, f)
	p.seen[f.path] = struct{}{}
}

func (s *Scanner) root(kind library.Kind) string {
	if kind == library.KindMovie {
		return s.cfg.MoviesRoot
	}
	return s.cfg.SeriesRoot
}

func (s *Scanner) mutex(kind library.Kind) *sync.Mutex {
	if kind == library.KindMovie {
		return &s.movieMu
	}
	return &s.seriesMu
}

// lock takes the locks for all kinds or none of them.
func (s *Scanner) lock(kinds ...library.Kind) (func(), error) {
	var held []*sync.Mutex
	release := func() {
		for _, mu := range held {
			mu.Unlock()
		}
	}
	for _, kind := range kinds {
		mu := s.mutex(kind)
		if !mu.TryLock() {
			release()
			return nil, fmt.Errorf("%s: %w", kind, ErrScanInProgress)
		}
		held = append(held, mu)
	}
	return release, nil
}

// ScanMovies runs an incremental pass over the movies root.
func (s *Scanner) ScanMovies(ctx context.Context) (*Report, error) {
	unlock, err := s.lock(library.KindMovie)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.runPass(ctx, library.KindMovie)
}

// ScanSeries runs an incremental pass over the series root.
func (s *Scanner) ScanSeries(ctx context.Context) (*Report, error) {
	unlock, err := s.lock(library.KindSeries)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.runPass(ctx, library.KindSeries)
}

// RunIncremental scans movies and series concurrently. A missing root skips
// that kind without deleting anything and is not an error.
func (s *Scanner) RunIncremental(ctx context.Context) (*Summary, error) {
	unlock, err := s.lock(library.KindMovie, library.KindSeries)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sum := &Summary{Mode: ModeIncremental}
	var g errgroup.Group
	g.Go(func() error {
		r, err := s.runPass(ctx, library.KindMovie)
		sum.Movies = r
		return err
	})
	g.Go(func() error {
		r, err := s.runPass(ctx, library.KindSeries)
		sum.Series = r
		return err
	})
	if err := g.Wait(); err != nil {
		return sum, err
	}
	return sum, nil
}

// RunRebuild walks both trees, then clears and repopulates every kind whose
// root exists in one transaction. A kind with a missing root is skipped and
// keeps its rows. If a walk fails or is cancelled, nothing is cleared.
func (s *Scanner) RunRebuild(ctx context.Context) (*Summary, error) {
	unlock, err := s.lock(library.KindMovie, library.KindSeries)
	if err != nil {
		return nil, err
	}
	defer unlock()

	plans := []*plan{
		s.newPlan(library.KindMovie, ModeRebuild),
		s.newPlan(library.KindSeries, ModeRebuild),
	}
	sum := &Summary{Mode: ModeRebuild, Movies: plans[0].report, Series: plans[1].report}
	for _, p := range plans {
		s.started(ctx, p)
	}

	missing := make([]bool, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range plans {
		g.Go(func() error {
			err := s.walk(gctx, p)
			if errors.Is(err, ErrRootMissing) {
				missing[i] = true
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		for _, p := range plans {
			s.failed(ctx, p, err)
		}
		return sum, fmt.Errorf("rebuild: %w", err)
	}

	var live []*plan
	for i, p := range plans {
		if missing[i] {
			s.skipped(ctx, p, "root missing")
			continue
		}
		live = append(live, p)
	}
	if len(live) == 0 {
		return sum, nil
	}

	added := make(map[*plan][]*library.Title)
	err = s.store.WithTx(func(tx *library.Tx) error {
		for _, p := range live {
			if err := tx.ResetKind(p.kind); err != nil {
				return err
			}
		}
		for _, p := range live {
			a, err := s.apply(tx, p)
			if err != nil {
				return err
			}
			added[p] = a
		}
		return nil
	})
	if err != nil {
		for _, p := range live {
			s.failed(ctx, p, err)
		}
		return sum, fmt.Errorf("rebuild: %w", err)
	}

	for _, p := range live {
		s.completed(ctx, p, added[p])
	}
	return sum, nil
}

// runPass walks one tree and reconciles it. The caller holds the kind's lock.
func (s *Scanner) runPass(ctx context.Context, kind library.Kind) (*Report, error) {
	p := s.newPlan(kind, ModeIncremental)
	s.started(ctx, p)

	walkErr := s.walk(ctx, p)
	switch {
	case errors.Is(walkErr, ErrRootMissing):
		s.skipped(ctx, p, "root missing")
		return p.report, nil
	case walkErr != nil && ctx.Err() == nil:
		s.failed(ctx, p, walkErr)
		return p.report, fmt.Errorf("scan %s: %w", kind, walkErr)
	}

	// A cancelled walk keeps what it resolved but never deletes.
	deleteStale := walkErr == nil
	var added []*library.Title
	var deleted []string
	err := s.store.WithTx(func(tx *library.Tx) error {
		var err error
		if added, err = s.apply(tx, p); err != nil {
			return err
		}
		if !deleteStale {
			return nil
		}
		if len(p.seen) == 0 {
			p.log.Warn("no files resolved, skipping stale deletion")
			return nil
		}
		deleted, err = tx.DeleteStaleFiles(kind, p.seen)
		return err
	})
	if err != nil {
		s.failed(ctx, p, err)
		return p.report, fmt.Errorf("scan %s: reconcile: %w", kind, err)
	}
	for _, path := range deleted {
		p.log.Info("removed stale file", "path", path)
	}
	p.report.Deleted = len(deleted)

	if walkErr != nil {
		p.log.Warn("scan interrupted, stale deletion skipped", "upserted", p.report.Upserted, "error", walkErr)
		s.failed(ctx, p, walkErr)
		return p.report, walkErr
	}
	s.completed(ctx, p, added)
	return p.report, nil
}

// walk fills p from its tree. It reports cancellation even when the last
// lookup swallowed it as an unavailable result.
func (s *Scanner) walk(ctx context.Context, p *plan) error {
	var err error
	if p.kind == library.KindMovie {
		err = s.walkMovies(ctx, p)
	} else {
		err = s.walkSeries(ctx, p)
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Scanner) walkMovies(ctx context.Context, p *plan) error {
	candidates, err := CrawlMovies(s.cfg.MoviesRoot)
	if err != nil {
		return err
	}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		parsed, ok := medianame.ParseMovie(c.Name)
		if !ok {
			p.log.Info("skipping unrecognized movie filename", "path", c.Path)
			p.report.Unrecognized++
			continue
		}

		res := s.resolver.ResolveMovie(ctx, parsed.Title, parsed.Year)
		if res.Status != metadata.StatusFound {
			p.log.Warn("movie lookup failed", "path", c.Path, "title", parsed.Title, "year", parsed.Year,
				"status", res.Status.String(), "error", res.Err)
			p.report.Unresolved++
			continue
		}

		p.add(plannedFile{path: c.Path, size: c.Size, resolution: parsed.Resolution, meta: res.Meta})
	}
	return nil
}

func (s *Scanner) walkSeries(ctx context.Context, p *plan) error {
	candidates, err := CrawlSeries(s.cfg.SeriesRoot)
	if err != nil {
		return err
	}

	// One lookup per series directory per pass.
	lookups := make(map[string]metadata.Result)
	badSeasons := make(map[string]bool)

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}

		season, ok := medianame.ParseSeasonDir(c.SeasonDir)
		if !ok {
			seasonKey := c.SeriesDir + "/" + c.SeasonDir
			if !badSeasons[seasonKey] {
				p.log.Info("skipping unrecognized season folder", "title", c.SeriesDir, "season_dir", c.SeasonDir)
				badSeasons[seasonKey] = true
			}
			p.report.Unrecognized++
			continue
		}

		parsed, ok := medianame.ParseEpisode(c.Name, s.cfg.EpisodeMode)
		if !ok {
			p.log.Info("skipping unrecognized episode filename", "path", c.Path)
			p.report.Unrecognized++
			continue
		}
		if parsed.Season != season {
			p.log.Warn("season mismatch, using folder season", "path", c.Path,
				"folder_season", season, "file_season", parsed.Season)
		}

		res, ok := lookups[c.SeriesDir]
		if !ok {
			res = s.resolver.ResolveSeries(ctx, c.SeriesDir)
			lookups[c.SeriesDir] = res
			if res.Status != metadata.StatusFound {
				p.log.Warn("series lookup failed", "title", c.SeriesDir,
					"status", res.Status.String(), "error", res.Err)
			}
		}
		if res.Status != metadata.StatusFound {
			p.report.Unresolved++
			continue
		}

		p.add(plannedFile{
			path:       c.Path,
			size:       c.Size,
			resolution: parsed.Resolution,
			meta:       res.Meta,
			season:     season,
			episode:    parsed.Episode,
		})
	}
	return nil
}

// apply writes the planned titles, episodes and files. It returns the titles
// that did not exist before.
func (s *Scanner) apply(tx *library.Tx, p *plan) ([]*library.Title, error) {
	var added []*library.Title
	known := make(map[string]bool)

	for _, f := range p.files {
		if !known[f.meta.ID] {
			title := titleFromMeta(p.kind, f.meta)
			created, err := tx.AddTitleIfAbsent(title)
			if err != nil {
				return nil, fmt.Errorf("add title %s: %w", f.meta.ID, err)
			}
			if created {
				p.log.Info("added title", "title", title.Name, "id", title.ID, "match", f.meta.Match)
				added = append(added, title)
			}
			if f.meta.WeakMatch() {
				p.report.WeakMatches++
			}
			known[f.meta.ID] = true
		}

		var file *library.File
		var err error
		if p.kind == library.KindMovie {
			file, err = library.NewMovieFile(f.path, f.meta.ID, f.resolution, f.size)
		} else {
			var ep *library.Episode
			ep, _, err = tx.FindOrCreateEpisode(f.meta.ID, f.season, f.episode)
			if err != nil {
				return nil, fmt.Errorf("episode %s S%02dE%02d: %w", f.meta.ID, f.season, f.episode, err)
			}
			file, err = library.NewEpisodeFile(f.path, ep.ID, f.resolution, f.size)
		}
		if err != nil {
			return nil, fmt.Errorf("file %s: %w", f.path, err)
		}
		if err := tx.UpsertFile(file); err != nil {
			return nil, fmt.Errorf("upsert file %s: %w", f.path, err)
		}
		p.log.Debug("upserted file", "path", f.path, "title", f.meta.Name)
		p.report.Upserted++
	}
	p.report.Seen = len(p.seen)
	return added, nil
}

func titleFromMeta(kind library.Kind, m *metadata.Meta) *library.Title {
	t := &library.Title{
		ID:        m.ID,
		Kind:      kind,
		Name:      m.Name,
		PosterURL: m.PosterURL,
		Genres:    m.Genres,
	}
	if kind == library.KindMovie && m.Year > 0 {
		year := m.Year
		t.Year = &year
	}
	return t
}

func (s *Scanner) started(ctx context.Context, p *plan) {
	root := s.root(p.kind)
	p.log.Info("scan started", "root", root)
	s.publish(ctx, &events.ScanStarted{
		BaseEvent: events.NewBaseEvent(events.EventScanStarted, events.EntityScan, p.report.ScanID),
		Kind:      string(p.kind),
		Mode:      string(p.report.Mode),
		Root:      root,
	})
}

func (s *Scanner) completed(ctx context.Context, p *plan, added []*library.Title) {
	r := p.report
	r.Duration = time.Since(p.started)
	p.log.Info("scan complete", "seen", r.Seen, "unrecognized", r.Unrecognized,
		"unresolved", r.Unresolved, "upserted", r.Upserted, "deleted", r.Deleted,
		"weak_matches", r.WeakMatches, "duration_ms", r.Duration.Milliseconds())

	matches := make(map[string]string)
	for _, f := range p.files {
		matches[f.meta.ID] = f.meta.Match
	}
	for _, t := range added {
		e := &events.TitleAdded{
			BaseEvent: events.NewBaseEvent(events.EventTitleAdded, events.EntityTitle, t.ID),
			Kind:      string(t.Kind),
			Name:      t.Name,
			Match:     matches[t.ID],
		}
		if t.Year != nil {
			e.Year = *t.Year
		}
		s.publish(ctx, e)
	}
	s.publish(ctx, &events.ScanCompleted{
		BaseEvent:    events.NewBaseEvent(events.EventScanCompleted, events.EntityScan, r.ScanID),
		Kind:         string(r.Kind),
		Mode:         string(r.Mode),
		Seen:         r.Seen,
		Unrecognized: r.Unrecognized,
		Unresolved:   r.Unresolved,
		Upserted:     r.Upserted,
		Deleted:      r.Deleted,
		WeakMatches:  r.WeakMatches,
		Duration:     r.Duration,
	})
}

func (s *Scanner) skipped(ctx context.Context, p *plan, reason string) {
	p.log.Warn("library root missing, skipping pass", "root", s.root(p.kind))
	p.report.Skipped = true
	p.report.SkipReason = reason
	p.report.Duration = time.Since(p.started)
	s.publish(ctx, &events.ScanSkipped{
		BaseEvent: events.NewBaseEvent(events.EventScanSkipped, events.EntityScan, p.report.ScanID),
		Kind:      string(p.kind),
		Mode:      string(p.report.Mode),
		Reason:    reason,
	})
}

func (s *Scanner) failed(ctx context.Context, p *plan, err error) {
	p.report.Duration = time.Since(p.started)
	p.log.Error("scan failed", "error", err)
	s.publish(ctx, &events.ScanFailed{
		BaseEvent: events.NewBaseEvent(events.EventScanFailed, events.EntityScan, p.report.ScanID),
		Kind:      string(p.kind),
		Mode:      string(p.report.Mode),
		Error:     err.Error(),
	})
}

// publish runs outside any store transaction; the event log shares the connection.
func (s *Scanner) publish(ctx context.Context, e events.Event) {
	if err := s.bus.Publish(context.WithoutCancel(ctx), e); err != nil {
		s.log.Warn("failed to publish event", "type", e.EventType(), "error", err)
	}
}
