package stremio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vmunix/remotefiles/internal/scanner"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

func (s *Server) scanIncremental(w http.ResponseWriter, r *http.Request) {
	s.runScan(w, r, scanner.ModeIncremental, s.deps.Scanner.RunIncremental)
}

func (s *Server) scanRebuild(w http.ResponseWriter, r *http.Request) {
	s.runScan(w, r, scanner.ModeRebuild, s.deps.Scanner.RunRebuild)
}

func (s *Server) runScan(w http.ResponseWriter, r *http.Request, mode scanner.Mode, run func(context.Context) (*scanner.Summary, error)) {
	// A dropped client must not interrupt a pass halfway.
	sum, err := run(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, scanner.ErrScanInProgress):
		writeError(w, http.StatusConflict, "SCAN_IN_PROGRESS", err.Error())
		return
	case errors.Is(err, scanner.ErrRootMissing):
		writeError(w, http.StatusServiceUnavailable, "ROOT_MISSING", err.Error())
		return
	case err != nil:
		s.log.Error("admin scan failed", "mode", string(mode), "error", err)
		writeError(w, http.StatusInternalServerError, "SCAN_ERROR", err.Error())
		return
	}

	s.log.Info("admin scan finished", "mode", string(mode))
	writeJSON(w, http.StatusOK, scanResponse{
		Status: "ok",
		Mode:   mode,
		Movies: sum.Movies,
		Series: sum.Series,
	})
}

func (s *Server) scanHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultHistoryLimit)
	if limit <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be positive")
		return
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	raw, err := s.deps.EventLog.Recent(r.Context(), limit, "scan.")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}

	resp := scanHistoryResponse{Items: make([]scanEventResponse, len(raw)), Limit: limit}
	for i, e := range raw {
		resp.Items[i] = scanEventResponse{
			ID:         e.ID,
			EventType:  e.EventType,
			EntityID:   e.EntityID,
			Summary:    s.registry.Describe(e),
			Payload:    json.RawMessage(e.Payload),
			OccurredAt: e.OccurredAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// scanEvents streams scan events as server-sent events until the client
// disconnects or the bus closes.
func (s *Server) scanEvents(w http.ResponseWriter, r *http.Request) {
	ch := s.deps.Events.Subscribe("scan.", 64)
	defer s.deps.Events.Unsubscribe(ch)

	rc := http.NewResponseController(w)
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.log.Warn("event stream unsupported", "error", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				s.log.Error("encode event failed", "type", e.EventType(), "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.EventType(), data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
