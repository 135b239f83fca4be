package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/remotefiles/internal/config"
	"github.com/vmunix/remotefiles/internal/stream"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	media := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(media, "movies"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(media, "series"), 0o755))

	cfg := &config.Config{}
	cfg.Database.Path = filepath.Join(t.TempDir(), "catalog.db")
	cfg.Libraries = config.LibrariesConfig{MediaRoot: media, Movies: "movies", Series: "series", EpisodeMatch: "strict"}
	cfg.TMDB.APIKey = "key"
	cfg.Streams = config.StreamsConfig{
		InternalBaseURL: "http://lan:8080/",
		ExternalBaseURL: "https://media.example.com",
		Tokens:          "a, b",
	}
	return cfg
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.FileExists(t, cfg.Database.Path)
	assert.Equal(t, 2, a.Gate.Len())
	assert.True(t, a.Gate.Allow(stream.TrustExternal, "b"))

	// Empty trees scan cleanly end to end.
	sum, err := a.Scanner.RunIncremental(context.Background())
	require.NoError(t, err)
	assert.False(t, sum.Movies.Skipped)
	assert.False(t, sum.Series.Skipped)

	raw, err := a.EventLog.Recent(context.Background(), 10, "scan.")
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestNew_BadEpisodeMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Libraries.EpisodeMatch = "fuzzy"

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "episode_match")
}
