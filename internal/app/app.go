// Package app assembles the catalog, resolver, scanner and stream components
// from a loaded configuration. Both the daemon and the CLI build on it.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/vmunix/remotefiles/internal/config"
	"github.com/vmunix/remotefiles/internal/events"
	"github.com/vmunix/remotefiles/internal/library"
	"github.com/vmunix/remotefiles/internal/metadata"
	"github.com/vmunix/remotefiles/internal/migrations"
	"github.com/vmunix/remotefiles/internal/scanner"
	"github.com/vmunix/remotefiles/internal/stream"
	"github.com/vmunix/remotefiles/internal/tmdb"
	"github.com/vmunix/remotefiles/pkg/medianame"
)

// App holds the wired components. Close releases the database.
type App struct {
	Config   *config.Config
	DB       *sql.DB
	Library  *library.Store
	Cache    *metadata.Cache
	Resolver metadata.Resolver
	EventLog *events.EventLog
	Bus      *events.Bus
	Scanner  *scanner.Scanner
	Gate     *stream.Gate
	Streams  *stream.Resolver
}

// ParseLogLevel maps a config log level to a slog level, defaulting to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates the text logger used by the daemon and CLI.
func NewLogger(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLogLevel(level),
	}))
}

// New opens the database and wires every component.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	mode, err := medianame.ParseMode(cfg.Libraries.EpisodeMatch)
	if err != nil {
		return nil, fmt.Errorf("libraries.episode_match: %w", err)
	}

	db, err := migrations.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		DB:       db,
		Library:  library.NewStore(db),
		Cache:    metadata.NewCache(db),
		EventLog: events.NewEventLog(db),
	}
	a.Bus = events.NewBus(a.EventLog, logger)

	var opts []tmdb.Option
	if cfg.TMDB.BaseURL != "" {
		opts = append(opts, tmdb.WithBaseURL(cfg.TMDB.BaseURL))
	}
	if cfg.TMDB.Timeout > 0 {
		opts = append(opts, tmdb.WithTimeout(cfg.TMDB.Timeout))
	}
	a.Resolver = metadata.NewTMDBResolver(tmdb.NewClient(cfg.TMDB.APIKey, opts...), a.Cache, cfg.TMDB.CacheTTL, logger)

	a.Scanner = scanner.New(a.Library, a.Resolver, a.Bus, scanner.Config{
		MoviesRoot:  cfg.Libraries.MoviesRoot(),
		SeriesRoot:  cfg.Libraries.SeriesRoot(),
		EpisodeMode: mode,
	}, logger)

	a.Gate = stream.NewGate(stream.ParseTokens(cfg.Streams.Tokens))
	a.Streams = stream.NewResolver(a.Library, a.Gate, stream.Config{
		MediaRoot: cfg.Libraries.MediaRoot,
		Internal:  stream.Endpoint{BaseURL: cfg.Streams.InternalBaseURL, Name: cfg.Streams.InternalName},
		External:  stream.Endpoint{BaseURL: cfg.Streams.ExternalBaseURL, Name: cfg.Streams.ExternalName},
	}, logger)

	return a, nil
}

// Close shuts down the event bus and the database.
func (a *App) Close() error {
	_ = a.Bus.Close()
	return a.DB.Close()
}
