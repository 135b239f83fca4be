package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vmunix/remotefiles/internal/library"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Inspect the catalog",
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List titles with file counts and sizes",
	Args:  cobra.NoArgs,
	RunE:  runLibraryList,
}

func init() {
	rootCmd.AddCommand(libraryCmd)
	libraryCmd.AddCommand(libraryListCmd)
	libraryListCmd.Flags().String("type", "", "Filter by type (movie|series)")
	libraryListCmd.Flags().IntP("limit", "n", 0, "Maximum titles to show (0 = all)")
}

// titleJSON is the JSON-friendly representation of a title summary.
type titleJSON struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Name       string   `json:"name"`
	Year       int      `json:"year,omitempty"`
	Genres     []string `json:"genres,omitempty"`
	Files      int      `json:"files"`
	TotalBytes int64    `json:"total_bytes"`
}

func parseKind(s string) (*library.Kind, error) {
	if s == "" {
		return nil, nil
	}
	k := library.Kind(s)
	if !k.Valid() {
		return nil, fmt.Errorf("invalid type %q (want movie or series)", s)
	}
	return &k, nil
}

func runLibraryList(cmd *cobra.Command, _ []string) error {
	typ, _ := cmd.Flags().GetString("type")
	limit, _ := cmd.Flags().GetInt("limit")
	kind, err := parseKind(typ)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	titles, err := a.Library.ListTitleSummaries(library.TitleFilter{Kind: kind, Limit: limit})
	if err != nil {
		return err
	}

	if jsonOutput {
		out := make([]titleJSON, len(titles))
		for i, t := range titles {
			out[i] = toTitleJSON(t)
		}
		return printJSON(cmd.OutOrStdout(), out)
	}
	printTitles(cmd.OutOrStdout(), titles)
	return nil
}

func toTitleJSON(t *library.TitleSummary) titleJSON {
	j := titleJSON{
		ID:         t.ID,
		Type:       string(t.Kind),
		Name:       t.Name,
		Genres:     t.Genres,
		Files:      t.FileCount,
		TotalBytes: t.TotalBytes,
	}
	if t.Year != nil {
		j.Year = *t.Year
	}
	return j
}

func printTitles(w io.Writer, titles []*library.TitleSummary) {
	if len(titles) == 0 {
		_, _ = fmt.Fprintln(w, "No titles")
		return
	}

	var total int64
	_, _ = fmt.Fprintf(w, "  %-11s %-7s %-40s %5s %10s\n", "ID", "TYPE", "NAME", "FILES", "SIZE")
	_, _ = fmt.Fprintln(w, "  "+strings.Repeat("-", 77))
	for _, t := range titles {
		name := t.Name
		if t.Year != nil {
			name = fmt.Sprintf("%s (%d)", name, *t.Year)
		}
		_, _ = fmt.Fprintf(w, "  %-11s %-7s %-40s %5d %10s\n",
			t.ID, t.Kind, truncate(name, 40), t.FileCount, humanize.IBytes(uint64(t.TotalBytes)))
		total += t.TotalBytes
	}
	_, _ = fmt.Fprintf(w, "\n  %d titles, %s\n", len(titles), humanize.IBytes(uint64(total)))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
