package events

import (
	"encoding/json"
	"fmt"
)

// Summarizer is implemented by events that have a one-line description.
type Summarizer interface {
	Summary() string
}

type decoder func(payload []byte) (Event, error)

// Registry decodes stored payloads back into their concrete event types.
type Registry struct {
	decoders map[string]decoder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]decoder)}
}

// Register associates eventType with the concrete type T.
func Register[T any, PT interface {
	*T
	Event
}](r *Registry, eventType string) {
	r.decoders[eventType] = func(payload []byte) (Event, error) {
		e := PT(new(T))
		if err := json.Unmarshal(payload, e); err != nil {
			return nil, err
		}
		return e, nil
	}
}

// Decode turns a stored event into its concrete type.
func (r *Registry) Decode(raw RawEvent) (Event, error) {
	decode, ok := r.decoders[raw.EventType]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", raw.EventType)
	}
	e, err := decode([]byte(raw.Payload))
	if err != nil {
		return nil, fmt.Errorf("unmarshal event payload: %w", err)
	}
	return e, nil
}

// Describe returns a one-line description of raw. Unknown or undecodable
// events fall back to their entity reference.
func (r *Registry) Describe(raw RawEvent) string {
	fallback := raw.EntityType + "/" + raw.EntityID
	e, err := r.Decode(raw)
	if err != nil {
		return fallback
	}
	if s, ok := e.(Summarizer); ok {
		return s.Summary()
	}
	return fallback
}

// DefaultRegistry returns a registry with every event type in this package.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Scan lifecycle
	Register[ScanStarted](r, EventScanStarted)
	Register[ScanCompleted](r, EventScanCompleted)
	Register[ScanSkipped](r, EventScanSkipped)
	Register[ScanFailed](r, EventScanFailed)

	// Catalog
	Register[TitleAdded](r, EventTitleAdded)

	return r
}
