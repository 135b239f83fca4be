package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vmunix/remotefiles/internal/events"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent events",
	Args:  cobra.NoArgs,
	RunE:  runEventsCmd,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	eventsCmd.Flags().String("type", "", "Event type prefix, e.g. scan.")
	eventsCmd.Flags().String("scan", "", "Only events of one scan pass, oldest first")
}

// eventJSON is the JSON-friendly representation of a stored event.
type eventJSON struct {
	ID         int64           `json:"id"`
	EventType  string          `json:"event_type"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Summary    string          `json:"summary"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt string          `json:"occurred_at"`
}

func runEventsCmd(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	prefix, _ := cmd.Flags().GetString("type")
	scanID, _ := cmd.Flags().GetString("scan")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	filter := events.Filter{TypePrefix: prefix, Limit: limit}
	if scanID != "" {
		filter.EntityType = events.EntityScan
		filter.EntityID = scanID
		filter.Oldest = true
	}
	raw, err := a.EventLog.Query(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to fetch events: %w", err)
	}

	registry := events.DefaultRegistry()
	if jsonOutput {
		out := make([]eventJSON, len(raw))
		for i, e := range raw {
			out[i] = eventJSON{
				ID:         e.ID,
				EventType:  e.EventType,
				EntityType: e.EntityType,
				EntityID:   e.EntityID,
				Summary:    registry.Describe(e),
				Payload:    json.RawMessage(e.Payload),
				OccurredAt: e.OccurredAt.Format(time.RFC3339),
			}
		}
		return printJSON(cmd.OutOrStdout(), out)
	}
	printEvents(cmd.OutOrStdout(), registry, raw)
	return nil
}

func printEvents(w io.Writer, registry *events.Registry, raw []events.RawEvent) {
	if len(raw) == 0 {
		_, _ = fmt.Fprintln(w, "No events")
		return
	}

	_, _ = fmt.Fprintf(w, "Recent Events (%d):\n\n", len(raw))
	_, _ = fmt.Fprintf(w, "  %-16s %-16s %s\n", "TIME", "TYPE", "DETAIL")
	_, _ = fmt.Fprintln(w, "  "+strings.Repeat("-", 72))
	for _, e := range raw {
		_, _ = fmt.Fprintf(w, "  %-16s %-16s %s\n", humanize.Time(e.OccurredAt), e.EventType, registry.Describe(e))
	}
}
