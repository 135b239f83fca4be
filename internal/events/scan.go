package events

import (
	"fmt"
	"time"
)

// ScanStarted is emitted when a synchronization pass for one kind begins.
type ScanStarted struct {
	BaseEvent
	Kind string `json:"kind"` // "movie" or "series"
	Mode string `json:"mode"` // "incremental" or "rebuild"
	Root string `json:"root"`
}

// ScanCompleted is emitted after a pass commits.
type ScanCompleted struct {
	BaseEvent
	Kind         string        `json:"kind"`
	Mode         string        `json:"mode"`
	Seen         int           `json:"seen"`
	Unrecognized int           `json:"unrecognized"`
	Unresolved   int           `json:"unresolved"`
	Upserted     int           `json:"upserted"`
	Deleted      int           `json:"deleted"`
	WeakMatches  int           `json:"weak_matches,omitempty"`
	Duration     time.Duration `json:"duration_ns"`
}

// ScanSkipped is emitted when a pass does not run, e.g. the root is missing.
type ScanSkipped struct {
	BaseEvent
	Kind   string `json:"kind"`
	Mode   string `json:"mode"`
	Reason string `json:"reason"`
}

// ScanFailed is emitted when a pass aborts before committing.
type ScanFailed struct {
	BaseEvent
	Kind  string `json:"kind"`
	Mode  string `json:"mode"`
	Error string `json:"error"`
}

// TitleAdded is emitted when a scan creates a new movie or series.
type TitleAdded struct {
	BaseEvent
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Year  int    `json:"year,omitempty"`
	Match string `json:"match,omitempty"` // title match confidence
}

func (e *ScanStarted) Summary() string {
	return fmt.Sprintf("%s %s scan of %s", e.Mode, e.Kind, e.Root)
}

func (e *ScanCompleted) Summary() string {
	s := fmt.Sprintf("%s %s: seen %d, upserted %d, deleted %d, unrecognized %d, unresolved %d",
		e.Mode, e.Kind, e.Seen, e.Upserted, e.Deleted, e.Unrecognized, e.Unresolved)
	if e.WeakMatches > 0 {
		s += fmt.Sprintf(", weak matches %d", e.WeakMatches)
	}
	return s + fmt.Sprintf(" (%s)", e.Duration.Round(time.Millisecond))
}

func (e *ScanSkipped) Summary() string {
	return fmt.Sprintf("%s %s skipped: %s", e.Mode, e.Kind, e.Reason)
}

func (e *ScanFailed) Summary() string {
	return fmt.Sprintf("%s %s failed: %s", e.Mode, e.Kind, e.Error)
}

func (e *TitleAdded) Summary() string {
	s := fmt.Sprintf("added %s %s", e.Kind, e.Name)
	if e.Year > 0 {
		s += fmt.Sprintf(" (%d)", e.Year)
	}
	if e.Match != "" {
		s += ", " + e.Match + " match"
	}
	return s
}
