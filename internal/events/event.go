// Package events records what the synchronizer does. Events are persisted to
// the catalog database and fanned out to in-process subscribers.
package events

import "time"

// Entity types
const (
	EntityScan  = "scan"  // entity id is the pass id
	EntityTitle = "title" // entity id is the IMDb id
)

// Event types. The part before the dot is the subscription prefix.
const (
	EventScanStarted   = "scan.started"
	EventScanCompleted = "scan.completed"
	EventScanSkipped   = "scan.skipped"
	EventScanFailed    = "scan.failed"
	EventTitleAdded    = "title.added"
)

// Event is implemented by every payload the bus carries.
type Event interface {
	EventType() string
	EntityType() string
	EntityID() string
	OccurredAt() time.Time
}

// BaseEvent is embedded by concrete events.
type BaseEvent struct {
	Type      string    `json:"type"`
	Entity    string    `json:"entity_type"`
	ID        string    `json:"entity_id"`
	Timestamp time.Time `json:"occurred_at"`
}

// NewBaseEvent stamps an event with the current UTC time.
func NewBaseEvent(eventType, entityType, entityID string) BaseEvent {
	return BaseEvent{Type: eventType, Entity: entityType, ID: entityID, Timestamp: time.Now().UTC()}
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EntityType() string    { return e.Entity }
func (e BaseEvent) EntityID() string      { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
