package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Decode(t *testing.T) {
	registry := NewRegistry()
	Register[ScanStarted](registry, EventScanStarted)

	raw := RawEvent{
		EventType: EventScanStarted,
		Payload:   `{"type":"scan.started","entity_type":"scan","entity_id":"a1b2","occurred_at":"2024-01-01T00:00:00Z","kind":"movie","mode":"incremental","root":"/media/movies"}`,
	}

	event, err := registry.Decode(raw)
	require.NoError(t, err)

	started, ok := event.(*ScanStarted)
	require.True(t, ok)
	assert.Equal(t, "movie", started.Kind)
	assert.Equal(t, "/media/movies", started.Root)
	assert.Equal(t, "a1b2", started.EntityID())
}

func TestRegistry_DecodeUnknownType(t *testing.T) {
	registry := NewRegistry()

	raw := RawEvent{
		EventType: "unknown.event",
		Payload:   `{}`,
	}

	_, err := registry.Decode(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestRegistry_DecodeInvalidJSON(t *testing.T) {
	registry := NewRegistry()
	Register[ScanStarted](registry, EventScanStarted)

	raw := RawEvent{
		EventType: EventScanStarted,
		Payload:   `{invalid json`,
	}

	_, err := registry.Decode(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal event payload")
}

func TestDefaultRegistry(t *testing.T) {
	registry := DefaultRegistry()

	eventTypes := []string{
		EventScanStarted,
		EventScanCompleted,
		EventScanSkipped,
		EventScanFailed,
		EventTitleAdded,
	}

	for _, eventType := range eventTypes {
		t.Run(eventType, func(t *testing.T) {
			raw := RawEvent{
				EventType: eventType,
				Payload:   `{"type":"` + eventType + `","entity_type":"scan","entity_id":"1","occurred_at":"2024-01-01T00:00:00Z"}`,
			}
			event, err := registry.Decode(raw)
			require.NoError(t, err, "Failed to decode %s", eventType)
			assert.Equal(t, eventType, event.EventType())
		})
	}
}

func TestRegistry_DecodeScanCompleted(t *testing.T) {
	registry := DefaultRegistry()

	raw := RawEvent{
		EventType: EventScanCompleted,
		Payload:   `{"type":"scan.completed","entity_type":"scan","entity_id":"s-9","occurred_at":"2024-01-01T12:00:00Z","kind":"series","mode":"rebuild","seen":12,"unrecognized":2,"unresolved":1,"upserted":12,"deleted":3,"duration_ns":1500000000}`,
	}

	event, err := registry.Decode(raw)
	require.NoError(t, err)

	completed, ok := event.(*ScanCompleted)
	require.True(t, ok)
	assert.Equal(t, "series", completed.Kind)
	assert.Equal(t, "rebuild", completed.Mode)
	assert.Equal(t, 12, completed.Seen)
	assert.Equal(t, 3, completed.Deleted)
	assert.Equal(t, 1500*time.Millisecond, completed.Duration)
}

func TestRegistry_Describe(t *testing.T) {
	registry := DefaultRegistry()

	tests := []struct {
		name string
		raw  RawEvent
		want string
	}{
		{
			name: "completed",
			raw: RawEvent{
				EventType: EventScanCompleted,
				Payload:   `{"kind":"movie","mode":"incremental","seen":4,"upserted":4,"deleted":1,"duration_ns":2000000}`,
			},
			want: "incremental movie: seen 4, upserted 4, deleted 1, unrecognized 0, unresolved 0 (2ms)",
		},
		{
			name: "completed with weak matches",
			raw: RawEvent{
				EventType: EventScanCompleted,
				Payload:   `{"kind":"series","mode":"rebuild","seen":2,"upserted":2,"weak_matches":1,"duration_ns":0}`,
			},
			want: "rebuild series: seen 2, upserted 2, deleted 0, unrecognized 0, unresolved 0, weak matches 1 (0s)",
		},
		{
			name: "skipped",
			raw:  RawEvent{EventType: EventScanSkipped, Payload: `{"kind":"series","mode":"incremental","reason":"root missing"}`},
			want: "incremental series skipped: root missing",
		},
		{
			name: "title with year",
			raw:  RawEvent{EventType: EventTitleAdded, Payload: `{"kind":"movie","name":"Alien","year":1979}`},
			want: "added movie Alien (1979)",
		},
		{
			name: "title with match",
			raw:  RawEvent{EventType: EventTitleAdded, Payload: `{"kind":"series","name":"Andor","match":"low"}`},
			want: "added series Andor, low match",
		},
		{
			name: "unknown falls back to entity",
			raw:  RawEvent{EventType: "other.thing", EntityType: "scan", EntityID: "x1", Payload: `{}`},
			want: "scan/x1",
		},
		{
			name: "bad payload falls back to entity",
			raw:  RawEvent{EventType: EventScanFailed, EntityType: "scan", EntityID: "x2", Payload: `{`},
			want: "scan/x2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, registry.Describe(tt.raw))
		})
	}
}
