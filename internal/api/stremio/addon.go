package stremio

import (
	"net/http"

	"github.com/vmunix/remotefiles/internal/library"
	"github.com/vmunix/remotefiles/internal/stream"
)

// catalogID is the single catalog exposed per content type.
const catalogID = "remote-files"

var contentTypes = []string{"movie", "series"}

func (s *Server) manifest(w http.ResponseWriter, _ *http.Request, trust stream.Trust) {
	m := manifestResponse{
		Version:       Version,
		BehaviorHints: manifestHints{Configurable: true},
		Resources: []any{
			"catalog",
			streamResource{Name: "stream", Types: contentTypes, IDPrefixes: []string{"tt"}},
		},
		Types:    contentTypes,
		Catalogs: []catalogRef{},
	}
	switch trust {
	case stream.TrustExternal:
		m.ID = "org.remote-files.external"
		m.Name = "Remote Files (External)"
		m.Description = "Browse and play your own media over the internet using HTTPS"
	default:
		m.ID = "org.remote-files.internal"
		m.Name = "Remote Files (Internal)"
		m.Description = "Browse and play your own media over LAN or VPN"
		m.Catalogs = []catalogRef{
			{Type: "movie", ID: catalogID, Name: "Remote Files"},
			{Type: "series", ID: catalogID, Name: "Remote Files"},
		}
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) catalog(w http.ResponseWriter, r *http.Request, _ stream.Trust) {
	var kind library.Kind
	switch r.PathValue("type") {
	case "movie":
		kind = library.KindMovie
	case "series":
		kind = library.KindSeries
	default:
		writeError(w, http.StatusNotFound, "UNKNOWN_TYPE", "Unknown catalog type")
		return
	}
	if id, ok := jsonResource(r, "file"); !ok || id != catalogID {
		writeError(w, http.StatusNotFound, "UNKNOWN_CATALOG", "Unknown catalog")
		return
	}

	titles, err := s.deps.Titles.ListTitles(library.TitleFilter{Kind: &kind})
	if err != nil {
		s.log.Error("list catalog failed", "kind", string(kind), "error", err)
		writeError(w, http.StatusInternalServerError, "CATALOG_ERROR", err.Error())
		return
	}

	resp := catalogResponse{Metas: make([]metaPreview, 0, len(titles))}
	for _, t := range titles {
		genres := t.Genres
		if genres == nil {
			genres = []string{}
		}
		resp.Metas = append(resp.Metas, metaPreview{
			ID:     t.ID,
			Type:   string(t.Kind),
			Name:   t.Name,
			Poster: t.PosterURL,
			Genres: genres,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) movieStreams(w http.ResponseWriter, r *http.Request, trust stream.Trust) {
	id, ok := jsonResource(r, "file")
	if !ok || id == "" {
		writeJSON(w, http.StatusOK, streamsResponse{Streams: []stream.Descriptor{}})
		return
	}
	streams, err := s.deps.Streams.MovieStreams(id, trust, r.URL.Query().Get("token"))
	if err != nil {
		s.log.Error("resolve movie streams failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "STREAM_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, streamsResponse{Streams: streams})
}

func (s *Server) seriesStreams(w http.ResponseWriter, r *http.Request, trust stream.Trust) {
	id, _ := jsonResource(r, "file")
	seriesID, season, episode, ok := stream.ParseEpisodeID(id)
	if !ok {
		writeJSON(w, http.StatusOK, streamsResponse{Streams: []stream.Descriptor{}})
		return
	}
	streams, err := s.deps.Streams.EpisodeStreams(seriesID, season, episode, trust, r.URL.Query().Get("token"))
	if err != nil {
		s.log.Error("resolve episode streams failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "STREAM_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, streamsResponse{Streams: streams})
}

// auth is the forward-auth probe used by the reverse proxy in front of the
// media server.
func (s *Server) auth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Gate.Valid(r.URL.Query().Get("token")) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.WriteHeader(http.StatusUnauthorized)
}
