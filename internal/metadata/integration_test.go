//go:build integration

package metadata

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/remotefiles/internal/tmdb"
)

func TestTMDB_Integration(t *testing.T) {
	apiKey := os.Getenv("TMDB_API_KEY")
	if apiKey == "" {
		t.Skip("TMDB_API_KEY not set")
	}

	client := tmdb.NewClient(apiKey)
	resolver := NewTMDBResolver(client, NewCache(setupTestDB(t)), 0, testLogger())
	ctx := context.Background()

	movie := resolver.ResolveMovie(ctx, "Inception", 2010)
	require.Equal(t, StatusFound, movie.Status, "err: %v", movie.Err)
	assert.Equal(t, "tt1375666", movie.Meta.ID)
	assert.NotEmpty(t, movie.Meta.Genres)

	series := resolver.ResolveSeries(ctx, "Breaking Bad")
	require.Equal(t, StatusFound, series.Status, "err: %v", series.Err)
	assert.Equal(t, "tt0903747", series.Meta.ID)

	// Served from the cache the second time.
	again := resolver.ResolveSeries(ctx, "Breaking Bad")
	require.Equal(t, StatusFound, again.Status)
	assert.Equal(t, series.Meta, again.Meta)
}
