package stremio

import (
	"context"
	"errors"

	"github.com/vmunix/remotefiles/internal/events"
	"github.com/vmunix/remotefiles/internal/library"
	"github.com/vmunix/remotefiles/internal/scanner"
	"github.com/vmunix/remotefiles/internal/stream"
)

// TitleLister lists catalog titles.
type TitleLister interface {
	ListTitles(f library.TitleFilter) ([]*library.Title, error)
}

// ScanRunner triggers synchronizer passes.
type ScanRunner interface {
	RunIncremental(ctx context.Context) (*scanner.Summary, error)
	RunRebuild(ctx context.Context) (*scanner.Summary, error)
}

// EventHistory reads persisted events.
type EventHistory interface {
	Recent(ctx context.Context, limit int, typePrefix string) ([]events.RawEvent, error)
}

// EventSource streams live events.
type EventSource interface {
	Subscribe(prefix string, bufferSize int) <-chan events.Event
	Unsubscribe(ch <-chan events.Event)
}

// ServerDeps contains all dependencies for the add-on server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type ServerDeps struct {
	// Required dependencies
	Titles  TitleLister
	Streams *stream.Resolver
	Gate    *stream.Gate

	// Optional dependencies (nil if not configured)
	Scanner  ScanRunner
	EventLog EventHistory
	Events   EventSource
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	if d.Titles == nil {
		return errors.New("title lister is required")
	}
	if d.Streams == nil {
		return errors.New("stream resolver is required")
	}
	if d.Gate == nil {
		return errors.New("stream gate is required")
	}
	return nil
}
