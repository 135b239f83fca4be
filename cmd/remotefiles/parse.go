package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmunix/remotefiles/pkg/medianame"
)

// ParseResultJSON is the JSON-friendly representation of a parsed name.
type ParseResultJSON struct {
	Input      string `json:"input"`
	Kind       string `json:"kind"`
	Matched    bool   `json:"matched"`
	Title      string `json:"title,omitempty"`
	Year       int    `json:"year,omitempty"`
	Season     int    `json:"season,omitempty"`
	Episode    int    `json:"episode,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	Matcher    string `json:"matcher,omitempty"`
	Query      string `json:"query,omitempty"`
}

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse media names (local, no config needed)",
	Long: `Parse file and folder names the way a scan does.

Examples:
  remotefiles parse movie "Inception (2010) [1080p].mkv"
  remotefiles parse episode --mode strict "S01E02 - Cat's in the Bag.mkv"
  remotefiles parse season "Season 03"`,
}

var parseMovieCmd = &cobra.Command{
	Use:   "movie <name>",
	Short: "Parse a movie filename",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return outputParse(cmd.OutOrStdout(), parseMovie(args[0]))
	},
}

var parseEpisodeCmd = &cobra.Command{
	Use:   "episode <name>",
	Short: "Parse an episode filename",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("mode")
		mode, err := medianame.ParseMode(raw)
		if err != nil {
			return err
		}
		return outputParse(cmd.OutOrStdout(), parseEpisode(args[0], mode))
	},
}

var parseSeasonCmd = &cobra.Command{
	Use:   "season <name>",
	Short: "Parse a season folder name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return outputParse(cmd.OutOrStdout(), parseSeason(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.AddCommand(parseMovieCmd, parseEpisodeCmd, parseSeasonCmd)
	parseEpisodeCmd.Flags().String("mode", string(medianame.ModeLenient), "Episode match mode (strict|lenient)")
}

func parseMovie(name string) ParseResultJSON {
	r := ParseResultJSON{Input: name, Kind: "movie"}
	m, ok := medianame.ParseMovie(name)
	if !ok {
		return r
	}
	r.Matched = true
	r.Title = m.Title
	r.Year = m.Year
	r.Resolution = m.Resolution
	r.Query = medianame.SearchQuery(m.Title)
	return r
}

func parseEpisode(name string, mode medianame.Mode) ParseResultJSON {
	r := ParseResultJSON{Input: name, Kind: "episode"}
	e, ok := medianame.ParseEpisode(name, mode)
	if !ok {
		return r
	}
	r.Matched = true
	r.Title = e.Title
	r.Season = e.Season
	r.Episode = e.Episode
	r.Resolution = e.Resolution
	r.Matcher = e.Matcher
	return r
}

func parseSeason(name string) ParseResultJSON {
	r := ParseResultJSON{Input: name, Kind: "season"}
	if season, ok := medianame.ParseSeasonDir(name); ok {
		r.Matched = true
		r.Season = season
	}
	return r
}

func outputParse(w io.Writer, r ParseResultJSON) error {
	if jsonOutput {
		return printJSON(w, r)
	}
	printHumanReadable(w, r)
	if !r.Matched {
		return fmt.Errorf("%s not recognized: %q", r.Kind, r.Input)
	}
	return nil
}

func printHumanReadable(w io.Writer, r ParseResultJSON) {
	_, _ = fmt.Fprintf(w, "Input:      %s\n", r.Input)
	if !r.Matched {
		_, _ = fmt.Fprintln(w, "Result:     unrecognized")
		return
	}
	if r.Title != "" {
		_, _ = fmt.Fprintf(w, "Title:      %s\n", r.Title)
	}
	if r.Year > 0 {
		_, _ = fmt.Fprintf(w, "Year:       %d\n", r.Year)
	}
	if r.Kind != "movie" {
		_, _ = fmt.Fprintf(w, "Season:     %d\n", r.Season)
	}
	if r.Kind == "episode" {
		_, _ = fmt.Fprintf(w, "Episode:    %d\n", r.Episode)
		_, _ = fmt.Fprintf(w, "Matcher:    %s\n", r.Matcher)
	}
	if r.Resolution != "" {
		_, _ = fmt.Fprintf(w, "Resolution: %s\n", r.Resolution)
	}
	if r.Query != "" {
		_, _ = fmt.Fprintf(w, "Query:      %s\n", r.Query)
	}
}
