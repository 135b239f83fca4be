package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/remotefiles/internal/scanner"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Synchronize the catalog with the media trees",
	Long: `Run a scan directly against the catalog database.

An incremental scan upserts what it finds and removes files that are
gone from disk. A rebuild clears and repopulates each kind whose library
root exists; a kind whose root is missing is skipped and keeps its rows.

Do not run this while remotefilesd is scanning the same database.`,
	Args: cobra.NoArgs,
	RunE: runScanCmd,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Bool("rebuild", false, "Clear the catalog and rescan everything")
}

func runScanCmd(cmd *cobra.Command, _ []string) error {
	rebuild, _ := cmd.Flags().GetBool("rebuild")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := a.Scanner.RunIncremental
	if rebuild {
		run = a.Scanner.RunRebuild
	}
	sum, err := run(ctx)
	if sum != nil {
		if jsonOutput {
			if perr := printJSON(cmd.OutOrStdout(), sum); perr != nil {
				return perr
			}
		} else {
			printSummary(cmd.OutOrStdout(), sum)
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("scan interrupted: %w", context.Cause(ctx))
		}
		return fmt.Errorf("scan: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, sum *scanner.Summary) {
	_, _ = fmt.Fprintf(w, "Scan (%s):\n\n", sum.Mode)
	_, _ = fmt.Fprintf(w, "  %-8s %6s %6s %6s %6s %6s %6s %8s\n", "KIND", "SEEN", "UPSERT", "DELETE", "UNREC", "UNRES", "WEAK", "TIME")
	for _, r := range []*scanner.Report{sum.Movies, sum.Series} {
		if r == nil {
			continue
		}
		if r.Skipped {
			_, _ = fmt.Fprintf(w, "  %-8s skipped: %s\n", r.Kind, r.SkipReason)
			continue
		}
		_, _ = fmt.Fprintf(w, "  %-8s %6d %6d %6d %6d %6d %6d %8s\n",
			r.Kind, r.Seen, r.Upserted, r.Deleted, r.Unrecognized, r.Unresolved, r.WeakMatches,
			r.Duration.Round(time.Millisecond))
	}
}
