// Package server runs the long-lived daemon components: the HTTP listener,
// the startup scan and periodic pruning of the metadata cache and event log.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/remotefiles/internal/scanner"
)

// Defaults for zero Config fields.
const (
	DefaultMaintenanceInterval = 6 * time.Hour
	DefaultShutdownTimeout     = 30 * time.Second
)

// Config for the daemon runner.
type Config struct {
	Addr                string
	ScanOnStartup       bool
	MaintenanceInterval time.Duration
	EventRetention      time.Duration // 0 keeps events forever
	ShutdownTimeout     time.Duration
}

// IncrementalScanner runs an incremental scan of both trees.
type IncrementalScanner interface {
	RunIncremental(ctx context.Context) (*scanner.Summary, error)
}

// CachePruner drops expired metadata cache entries.
type CachePruner interface {
	Prune(ctx context.Context) (int64, error)
}

// EventPruner drops events older than a retention window.
type EventPruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Runner manages the daemon components.
type Runner struct {
	handler http.Handler
	scanner IncrementalScanner // may be nil
	cache   CachePruner        // may be nil
	events  EventPruner        // may be nil
	config  Config
	logger  *slog.Logger
}

// NewRunner creates a new runner.
func NewRunner(handler http.Handler, scan IncrementalScanner, cache CachePruner, eventLog EventPruner, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaintenanceInterval <= 0 {
		cfg.MaintenanceInterval = DefaultMaintenanceInterval
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	return &Runner{
		handler: handler,
		scanner: scan,
		cache:   cache,
		events:  eventLog,
		config:  cfg,
		logger:  logger.With("component", "runner"),
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", r.config.Addr, err)
	}
	return r.Serve(ctx, ln)
}

// Serve starts all components on ln.
// It blocks until the context is canceled or a component fails.
func (r *Runner) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           r.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.logger.Info("http listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), r.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		r.logger.Info("http stopped")
		return nil
	})

	if r.config.ScanOnStartup && r.scanner != nil {
		g.Go(func() error {
			r.startupScan(gctx)
			return nil
		})
	}

	g.Go(func() error {
		r.maintain(gctx)
		return nil
	})

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return err
}

// startupScan failures are logged; the server keeps serving the last catalog.
func (r *Runner) startupScan(ctx context.Context) {
	r.logger.Info("startup scan started")
	sum, err := r.scanner.RunIncremental(ctx)
	if err != nil {
		if ctx.Err() != nil {
			r.logger.Info("startup scan interrupted")
			return
		}
		r.logger.Error("startup scan failed", "error", err)
		return
	}
	attrs := []any{}
	if sum.Movies != nil {
		attrs = append(attrs, "movies_seen", sum.Movies.Seen, "movies_deleted", sum.Movies.Deleted)
	}
	if sum.Series != nil {
		attrs = append(attrs, "series_seen", sum.Series.Seen, "series_deleted", sum.Series.Deleted)
	}
	r.logger.Info("startup scan finished", attrs...)
}

func (r *Runner) maintain(ctx context.Context) {
	ticker := time.NewTicker(r.config.MaintenanceInterval)
	defer ticker.Stop()

	r.prune(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.prune(ctx)
		}
	}
}

func (r *Runner) prune(ctx context.Context) {
	if r.cache != nil {
		n, err := r.cache.Prune(ctx)
		if err != nil {
			r.logger.Warn("prune metadata cache failed", "error", err)
		} else if n > 0 {
			r.logger.Debug("pruned metadata cache", "removed", n)
		}
	}
	if r.events != nil && r.config.EventRetention > 0 {
		n, err := r.events.Prune(ctx, r.config.EventRetention)
		if err != nil {
			r.logger.Warn("prune events failed", "error", err)
		} else if n > 0 {
			r.logger.Debug("pruned events", "removed", n, "retention", r.config.EventRetention.String())
		}
	}
}
