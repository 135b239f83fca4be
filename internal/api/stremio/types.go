package stremio

import (
	"encoding/json"

	"github.com/vmunix/remotefiles/internal/scanner"
	"github.com/vmunix/remotefiles/internal/stream"
)

// Manifest types

type manifestHints struct {
	Configurable          bool `json:"configurable"`
	ConfigurationRequired bool `json:"configurationRequired"`
}

type streamResource struct {
	Name       string   `json:"name"`
	Types      []string `json:"types"`
	IDPrefixes []string `json:"idPrefixes"`
}

type catalogRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

type manifestResponse struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Version       string        `json:"version"`
	Description   string        `json:"description"`
	BehaviorHints manifestHints `json:"behaviorHints"`
	Resources     []any         `json:"resources"`
	Types         []string      `json:"types"`
	Catalogs      []catalogRef  `json:"catalogs"`
}

// Catalog types

type metaPreview struct {
	ID     string   `json:"id"`
	Type   string   `json:"type"`
	Name   string   `json:"name"`
	Poster string   `json:"poster,omitempty"`
	Genres []string `json:"genres"`
}

type catalogResponse struct {
	Metas []metaPreview `json:"metas"`
}

// Stream types

type streamsResponse struct {
	Streams []stream.Descriptor `json:"streams"`
}

// Admin types

type scanResponse struct {
	Status string          `json:"status"`
	Mode   scanner.Mode    `json:"mode"`
	Movies *scanner.Report `json:"movies,omitempty"`
	Series *scanner.Report `json:"series,omitempty"`
}

type scanEventResponse struct {
	ID         int64           `json:"id"`
	EventType  string          `json:"event_type"`
	EntityID   string          `json:"entity_id"`
	Summary    string          `json:"summary"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt string          `json:"occurred_at"`
}

type scanHistoryResponse struct {
	Items []scanEventResponse `json:"items"`
	Limit int                 `json:"limit"`
}
