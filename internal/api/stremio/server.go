// Package stremio serves the add-on HTTP surface: manifests, catalogs, stream
// resolution, the forward-auth probe and the admin scan routes.
package stremio

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/vmunix/remotefiles/internal/events"
)

// Version is reported in both manifests.
const Version = "1.1.2"

// Config holds add-on server configuration.
type Config struct {
	AdminToken string // empty disables the admin routes
}

// Server is the add-on HTTP server.
type Server struct {
	deps     ServerDeps
	cfg      Config
	registry *events.Registry
	log      *slog.Logger
}

// New creates an add-on server.
func New(deps ServerDeps, cfg Config, log *slog.Logger) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("stremio server: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	cfg.AdminToken = strings.TrimSpace(cfg.AdminToken)
	return &Server{
		deps:     deps,
		cfg:      cfg,
		registry: events.DefaultRegistry(),
		log:      log.With("component", "stremio"),
	}, nil
}

// RegisterRoutes registers the add-on routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Add-on
	mux.HandleFunc("GET /{trust}/manifest.json", s.withTrust(s.manifest))
	mux.HandleFunc("GET /{trust}/catalog/{type}/{file}", s.withTrust(s.catalog))
	mux.HandleFunc("GET /{trust}/stream/movie/{file}", s.withTrust(s.movieStreams))
	mux.HandleFunc("GET /{trust}/stream/series/{file}", s.withTrust(s.seriesStreams))

	// Forward auth
	mux.HandleFunc("GET /auth", s.auth)

	// Admin
	mux.HandleFunc("POST /admin/scan", s.requireAdmin(s.requireScanner(s.scanIncremental)))
	mux.HandleFunc("POST /admin/scan/rebuild", s.requireAdmin(s.requireScanner(s.scanRebuild)))
	mux.HandleFunc("GET /admin/scan/history", s.requireAdmin(s.requireEventLog(s.scanHistory)))
	mux.HandleFunc("GET /admin/scan/events", s.requireAdmin(s.requireEventSource(s.scanEvents)))
}

// Handler returns the routes wrapped in the CORS and request-logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return logRequests(cors(mux), s.log)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// jsonResource strips the ".json" suffix from a path parameter.
func jsonResource(r *http.Request, name string) (string, bool) {
	return strings.CutSuffix(r.PathValue(name), ".json")
}

// queryInt extracts an optional integer from the query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
