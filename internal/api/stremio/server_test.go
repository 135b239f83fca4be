package stremio

import (
	"context"
	"encoding/json"
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/remotefiles/internal/events"
	"github.com/vmunix/remotefiles/internal/library"
	"github.com/vmunix/remotefiles/internal/migrations"
	"github.com/vmunix/remotefiles/internal/scanner"
	"github.com/vmunix/remotefiles/internal/stream"
)

const (
	testAdminToken  = "admin-secret"
	testStreamToken = "stream-secret"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeScanner struct {
	calls atomic.Int32
	sum   *scanner.Summary
	err   error
}

func (f *fakeScanner) RunIncremental(context.Context) (*scanner.Summary, error) {
	f.calls.Add(1)
	return f.sum, f.err
}

func (f *fakeScanner) RunRebuild(context.Context) (*scanner.Summary, error) {
	f.calls.Add(1)
	return f.sum, f.err
}

type testEnv struct {
	store    *library.Store
	eventLog *events.EventLog
	bus      *events.Bus
	scanner  *fakeScanner
	handler  http.Handler
}

func setupTestEnv(t *testing.T, adminToken string) *testEnv {
	t.Helper()
	db, err := migrations.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		store:    library.NewStore(db),
		eventLog: events.NewEventLog(db),
		scanner:  &fakeScanner{sum: &scanner.Summary{Mode: scanner.ModeIncremental}},
	}
	env.bus = events.NewBus(env.eventLog, testLogger())
	t.Cleanup(func() { _ = env.bus.Close() })
	gate := stream.NewGate([]string{testStreamToken})
	resolver := stream.NewResolver(env.store, gate, stream.Config{
		MediaRoot: "/media",
		Internal:  stream.Endpoint{BaseURL: "http://lan:8080"},
		External:  stream.Endpoint{BaseURL: "https://media.example.com"},
	}, testLogger())

	srv, err := New(ServerDeps{
		Titles:   env.store,
		Streams:  resolver,
		Gate:     gate,
		Scanner:  env.scanner,
		EventLog: env.eventLog,
		Events:   env.bus,
	}, Config{AdminToken: adminToken}, testLogger())
	require.NoError(t, err)
	env.handler = srv.Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (e *testEnv) addMovie(t *testing.T, id, name, path string) {
	t.Helper()
	_, err := e.store.AddTitleIfAbsent(&library.Title{ID: id, Kind: library.KindMovie, Name: name, Genres: []string{"Drama"}})
	require.NoError(t, err)
	f, err := library.NewMovieFile(path, id, "1080p", 1<<30)
	require.NoError(t, err)
	require.NoError(t, e.store.UpsertFile(f))
}

func (e *testEnv) addEpisode(t *testing.T, seriesID, name string, season, episode int, path string) {
	t.Helper()
	_, err := e.store.AddTitleIfAbsent(&library.Title{ID: seriesID, Kind: library.KindSeries, Name: name})
	require.NoError(t, err)
	ep, _, err := e.store.FindOrCreateEpisode(seriesID, season, episode)
	require.NoError(t, err)
	f, err := library.NewEpisodeFile(path, ep.ID, "720p", 1<<29)
	require.NoError(t, err)
	require.NoError(t, e.store.UpsertFile(f))
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(ServerDeps{}, Config{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title lister is required")
}

func TestManifest_Internal(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)

	w := env.do(t, http.MethodGet, "/internal/manifest.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	m := decode[manifestResponse](t, w)
	assert.Equal(t, "org.remote-files.internal", m.ID)
	assert.Equal(t, Version, m.Version)
	assert.Equal(t, []string{"movie", "series"}, m.Types)
	require.Len(t, m.Catalogs, 2)
	assert.Equal(t, "remote-files", m.Catalogs[0].ID)
	assert.True(t, m.BehaviorHints.Configurable)
}

func TestManifest_ExternalHasNoCatalogs(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)

	w := env.do(t, http.MethodGet, "/external/manifest.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"catalogs":[]`)

	m := decode[manifestResponse](t, w)
	assert.Equal(t, "org.remote-files.external", m.ID)
}

func TestManifest_UnknownPrefix(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)

	w := env.do(t, http.MethodGet, "/public/manifest.json", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalog_SortedByName(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)
	env.addMovie(t, "tt0000002", "Zodiac", "/media/movies/Zodiac (2007).mkv")
	env.addMovie(t, "tt0000001", "Alien", "/media/movies/Alien (1979).mkv")
	env.addEpisode(t, "tt0000003", "Andor", 1, 1, "/media/series/Andor/Season 1/S01E01.mkv")

	w := env.do(t, http.MethodGet, "/internal/catalog/movie/remote-files.json", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[catalogResponse](t, w)
	require.Len(t, resp.Metas, 2)
	assert.Equal(t, "Alien", resp.Metas[0].Name)
	assert.Equal(t, "Zodiac", resp.Metas[1].Name)
	assert.Equal(t, "movie", resp.Metas[0].Type)
	assert.Equal(t, []string{"Drama"}, resp.Metas[0].Genres)
}

func TestCatalog_EmptyGenresEncodeAsArray(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)
	env.addEpisode(t, "tt0000003", "Andor", 1, 1, "/media/series/Andor/Season 1/S01E01.mkv")

	w := env.do(t, http.MethodGet, "/external/catalog/series/remote-files.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"genres":[]`)
}

func TestCatalog_Unknown(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)

	tests := []string{
		"/internal/catalog/anime/remote-files.json",
		"/internal/catalog/movie/other.json",
		"/internal/catalog/movie/remote-files",
	}
	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			w := env.do(t, http.MethodGet, target, nil)
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}
}

func TestMovieStreams_Internal(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)
	env.addMovie(t, "tt1375666", "Inception", "/media/movies/Inception (2010).mkv")

	w := env.do(t, http.MethodGet, "/internal/stream/movie/tt1375666.json", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[streamsResponse](t, w)
	require.Len(t, resp.Streams, 1)
	assert.Equal(t, "http://lan:8080/movies/Inception%20%282010%29.mkv", resp.Streams[0].URL)
	assert.Equal(t, "Remote Files (Internal) 1080p", resp.Streams[0].Name)
}

func TestMovieStreams_ExternalToken(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)
	env.addMovie(t, "tt1375666", "Inception", "/media/movies/Inception (2010).mkv")

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"no token", "", 0},
		{"wrong token", "?token=nope", 0},
		{"valid token", "?token=" + testStreamToken, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/external/stream/movie/tt1375666.json"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.NotContains(t, w.Body.String(), `"streams":null`)

			resp := decode[streamsResponse](t, w)
			assert.Len(t, resp.Streams, tt.want)
			for _, s := range resp.Streams {
				assert.Equal(t, "https://media.example.com/movies/Inception%20%282010%29.mkv", s.URL)
			}
		})
	}
}

func TestSeriesStreams(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)
	env.addEpisode(t, "tt0944947", "Game of Thrones", 1, 2, "/media/series/GoT/Season 1/S01E02.mkv")

	w := env.do(t, http.MethodGet, "/internal/stream/series/tt0944947:1:2.json", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[streamsResponse](t, w)
	require.Len(t, resp.Streams, 1)
	assert.Equal(t, "tt0944947", resp.Streams[0].BehaviorHints.BingeGroup)
	assert.Equal(t, "http://lan:8080/series/GoT/Season%201/S01E02.mkv", resp.Streams[0].URL)
}

func TestSeriesStreams_MalformedID(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)

	for _, id := range []string{"tt0944947", "tt0944947:x:2", "tt0944947:1:2:3", ":1:2"} {
		t.Run(id, func(t *testing.T) {
			w := env.do(t, http.MethodGet, fmt.Sprintf("/internal/stream/series/%s.json", id), nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"streams":[]}`, w.Body.String())
		})
	}
}

func TestAuth(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodGet, "/auth?token="+testStreamToken, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/auth?token=nope", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/auth", nil).Code)
}

func TestAdminScan_Auth(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)

	tests := []struct {
		name   string
		header http.Header
		want   int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"not bearer", http.Header{"Authorization": {"Basic abc"}}, http.StatusUnauthorized},
		{"wrong", bearer("nope"), http.StatusForbidden},
		{"valid", bearer(testAdminToken), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/admin/scan", tt.header)
			assert.Equal(t, tt.want, w.Code)
		})
	}
	assert.Equal(t, int32(1), env.scanner.calls.Load())
}

func TestAdminScan_Response(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)
	env.scanner.sum = &scanner.Summary{
		Mode:   scanner.ModeRebuild,
		Movies: &scanner.Report{Kind: library.KindMovie, Seen: 3, Upserted: 3},
		Series: &scanner.Report{Kind: library.KindSeries, Skipped: true, SkipReason: "root missing"},
	}

	w := env.do(t, http.MethodPost, "/admin/scan/rebuild", bearer(testAdminToken))
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[scanResponse](t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, scanner.ModeRebuild, resp.Mode)
	require.NotNil(t, resp.Movies)
	assert.Equal(t, 3, resp.Movies.Seen)
	require.NotNil(t, resp.Series)
	assert.True(t, resp.Series.Skipped)
}

func TestAdminScan_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"in progress", fmt.Errorf("movie: %w", scanner.ErrScanInProgress), http.StatusConflict},
		{"root missing", fmt.Errorf("rebuild: %w", scanner.ErrRootMissing), http.StatusServiceUnavailable},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t, testAdminToken)
			env.scanner.err = tt.err

			w := env.do(t, http.MethodPost, "/admin/scan", bearer(testAdminToken))
			assert.Equal(t, tt.want, w.Code)

			resp := decode[errorResponse](t, w)
			assert.Contains(t, resp.Error, tt.err.Error())
		})
	}
}

func TestAdminScan_DisabledWithoutToken(t *testing.T) {
	env := setupTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/admin/scan", bearer(""))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, env.scanner.calls.Load())
}

func TestAdminScan_MethodNotAllowed(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)

	w := env.do(t, http.MethodGet, "/admin/scan", bearer(testAdminToken))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestScanHistory(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)
	ctx := context.Background()

	_, err := env.eventLog.Append(ctx, &events.ScanStarted{
		BaseEvent: events.NewBaseEvent(events.EventScanStarted, events.EntityScan, "scan-1"),
		Kind:      "movie",
		Mode:      "incremental",
	})
	require.NoError(t, err)
	_, err = env.eventLog.Append(ctx, &events.TitleAdded{
		BaseEvent: events.NewBaseEvent(events.EventTitleAdded, events.EntityTitle, "tt1"),
		Kind:      "movie",
		Name:      "Alien",
	})
	require.NoError(t, err)
	_, err = env.eventLog.Append(ctx, &events.ScanCompleted{
		BaseEvent: events.NewBaseEvent(events.EventScanCompleted, events.EntityScan, "scan-1"),
		Kind:      "movie",
		Mode:      "incremental",
		Seen:      4,
	})
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/admin/scan/history?limit=10", bearer(testAdminToken))
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[scanHistoryResponse](t, w)
	assert.Equal(t, 10, resp.Limit)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, events.EventScanCompleted, resp.Items[0].EventType)
	assert.Equal(t, events.EventScanStarted, resp.Items[1].EventType)
	assert.Equal(t, "scan-1", resp.Items[0].EntityID)
	assert.Contains(t, resp.Items[0].Summary, "incremental movie: seen 4")
	assert.Equal(t, "incremental movie scan of ", resp.Items[1].Summary)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(resp.Items[0].Payload, &payload))
	assert.EqualValues(t, 4, payload["seen"])
}

func TestScanHistory_InvalidLimit(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)

	w := env.do(t, http.MethodGet, "/admin/scan/history?limit=-1", bearer(testAdminToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScanEvents_Stream(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)
	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/admin/scan/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Title events do not match the scan prefix.
	require.NoError(t, env.bus.Publish(ctx, &events.TitleAdded{
		BaseEvent: events.NewBaseEvent(events.EventTitleAdded, events.EntityTitle, "tt1"),
		Kind:      "movie",
		Name:      "Alien",
	}))
	require.NoError(t, env.bus.Publish(ctx, &events.ScanSkipped{
		BaseEvent: events.NewBaseEvent(events.EventScanSkipped, events.EntityScan, "scan-2"),
		Kind:      "series",
		Mode:      "incremental",
		Reason:    "root missing",
	}))

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	assert.Equal(t, "event: scan.skipped", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "data: "))

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &payload))
	assert.Equal(t, "root missing", payload["reason"])
	assert.Equal(t, "series", payload["kind"])
}

func TestScanEvents_RequiresAdmin(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)

	w := env.do(t, http.MethodGet, "/admin/scan/events", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := setupTestEnv(t, testAdminToken)

	w := env.do(t, http.MethodOptions, "/internal/manifest.json", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
