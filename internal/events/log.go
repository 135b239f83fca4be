package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultQueryLimit applies when a Filter leaves Limit unset.
const DefaultQueryLimit = 50

// EventLog persists events to the events table.
type EventLog struct {
	db  *sql.DB
	now func() time.Time
}

// NewEventLog creates an event log over db.
func NewEventLog(db *sql.DB) *EventLog {
	return &EventLog{db: db, now: time.Now}
}

// RawEvent is a stored event with its JSON payload undecoded.
type RawEvent struct {
	ID         int64
	EventType  string
	EntityType string
	EntityID   string
	Payload    string
	OccurredAt time.Time
	CreatedAt  time.Time
}

// Filter narrows a Query. Zero fields match everything.
type Filter struct {
	TypePrefix string // e.g. "scan." for every scan event
	EntityType string
	EntityID   string
	Limit      int  // DefaultQueryLimit when <= 0
	Oldest     bool // oldest first; newest first otherwise
}

// Append stores e and returns its row id.
func (l *EventLog) Append(ctx context.Context, e Event) (int64, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return 0, fmt.Errorf("encode %s event: %w", e.EventType(), err)
	}
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO events (event_type, entity_type, entity_id, payload, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		e.EventType(), e.EntityType(), e.EntityID(), string(payload), e.OccurredAt(),
	)
	if err != nil {
		return 0, fmt.Errorf("append %s event: %w", e.EventType(), err)
	}
	return res.LastInsertId()
}

// Query returns the stored events matching f.
func (l *EventLog) Query(ctx context.Context, f Filter) ([]RawEvent, error) {
	var (
		where []string
		args  []any
	)
	if f.TypePrefix != "" {
		where = append(where, "substr(event_type, 1, ?) = ?")
		args = append(args, len(f.TypePrefix), f.TypePrefix)
	}
	if f.EntityType != "" {
		where = append(where, "entity_type = ?")
		args = append(args, f.EntityType)
	}
	if f.EntityID != "" {
		where = append(where, "entity_id = ?")
		args = append(args, f.EntityID)
	}

	var q strings.Builder
	q.WriteString("SELECT id, event_type, entity_type, entity_id, payload, occurred_at, created_at FROM events")
	if len(where) > 0 {
		q.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if f.Oldest {
		q.WriteString(" ORDER BY id ASC")
	} else {
		q.WriteString(" ORDER BY id DESC")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	q.WriteString(" LIMIT ?")
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []RawEvent
	for rows.Next() {
		var e RawEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.EntityType, &e.EntityID, &e.Payload, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Recent returns up to limit events, newest first, whose type starts with typePrefix.
func (l *EventLog) Recent(ctx context.Context, limit int, typePrefix string) ([]RawEvent, error) {
	return l.Query(ctx, Filter{TypePrefix: typePrefix, Limit: limit})
}

// Prune deletes events that occurred more than olderThan ago.
func (l *EventLog) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := l.now().UTC().Add(-olderThan)
	res, err := l.db.ExecContext(ctx, "DELETE FROM events WHERE occurred_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return res.RowsAffected()
}
