package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/vmunix/remotefiles/internal/api/stremio"
	"github.com/vmunix/remotefiles/internal/app"
	"github.com/vmunix/remotefiles/internal/config"
	"github.com/vmunix/remotefiles/internal/server"
)

func runServer(configPath string) error {
	configPath, err := config.Resolve(configPath)
	if err != nil {
		return err
	}

	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Create logger
	logger := app.NewLogger(cfg.Server.LogLevel)
	for _, w := range cfg.Validate().Warnings() {
		logger.Warn("config", "key", w.Key, "message", w.Message)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	// === HTTP ===
	api, err := stremio.New(stremio.ServerDeps{
		Titles:   a.Library,
		Streams:  a.Streams,
		Gate:     a.Gate,
		Scanner:  a.Scanner,
		EventLog: a.EventLog,
		Events:   a.Bus,
	}, stremio.Config{AdminToken: cfg.Admin.Token}, logger)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	logger.Info("server starting",
		"addr", addr,
		"config", configPath,
		"database", cfg.Database.Path,
		"movies_root", cfg.Libraries.MoviesRoot(),
		"series_root", cfg.Libraries.SeriesRoot(),
		"stream_tokens", a.Gate.Len(),
		"admin", cfg.Admin.Token != "",
		"log_level", cfg.Server.LogLevel,
	)

	runner := server.NewRunner(api.Handler(), a.Scanner, a.Cache, a.EventLog, server.Config{
		Addr:           addr,
		ScanOnStartup:  cfg.Scan.ShouldScanOnStartup(),
		EventRetention: cfg.Scan.EventRetention,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
