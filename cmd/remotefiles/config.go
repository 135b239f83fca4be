package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmunix/remotefiles/internal/config"
	"github.com/vmunix/remotefiles/internal/stream"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configCheckCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Validate configuration file",
	Long:  "Validates config.toml syntax, required fields, and environment variable substitution without starting the server.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigCheck,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration file",
	Long:  "Writes a commented default config.toml. An existing file is never overwritten.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCheckCmd, configInitCmd)
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		p, err := resolveConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Validating %s...\n\n", path)

	cfg, err := config.Load(path)
	if err != nil {
		var configErr *config.ConfigError
		if errors.As(err, &configErr) {
			printConfigErrors(w, configErr)
			return fmt.Errorf("configuration invalid")
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	warnings := cfg.Validate().Warnings()
	printConfigSummary(w, cfg)
	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(w, "\nWarnings:")
		for _, issue := range warnings {
			_, _ = fmt.Fprintf(w, "  - %s: %s\n", issue.Key, issue.Message)
		}
	}
	_, _ = fmt.Fprintln(w, "\nConfiguration valid!")
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath()
	if len(args) > 0 {
		path = args[0]
	}
	if err := config.WriteDefault(path); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func printConfigErrors(w io.Writer, e *config.ConfigError) {
	if len(e.Missing) > 0 {
		_, _ = fmt.Fprintln(w, "Missing environment variables:")
		for _, m := range e.Missing {
			_, _ = fmt.Fprintf(w, "  - %s\n", m)
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(e.Issues) > 0 {
		_, _ = fmt.Fprintln(w, "Validation errors:")
		for _, issue := range e.Issues {
			_, _ = fmt.Fprintf(w, "  - %s: %s\n", issue.Key, issue.Message)
		}
		_, _ = fmt.Fprintln(w)
	}
}

func printConfigSummary(w io.Writer, cfg *config.Config) {
	tokens := len(stream.ParseTokens(cfg.Streams.Tokens))
	admin := "disabled"
	if cfg.Admin.Token != "" {
		admin = "enabled"
	}

	_, _ = fmt.Fprintln(w, "Configuration Summary:")
	_, _ = fmt.Fprintf(w, "  Server:     %s:%d (log: %s)\n", cfg.Server.Host, cfg.Server.Port, cfg.Server.LogLevel)
	_, _ = fmt.Fprintf(w, "  Database:   %s\n", cfg.Database.Path)
	_, _ = fmt.Fprintf(w, "  Movies:     %s\n", cfg.Libraries.MoviesRoot())
	_, _ = fmt.Fprintf(w, "  Series:     %s (%s)\n", cfg.Libraries.SeriesRoot(), cfg.Libraries.EpisodeMatch)
	_, _ = fmt.Fprintf(w, "  Internal:   %s\n", cfg.Streams.InternalBaseURL)
	_, _ = fmt.Fprintf(w, "  External:   %s (%d tokens)\n", cfg.Streams.ExternalBaseURL, tokens)
	_, _ = fmt.Fprintf(w, "  Admin:      %s\n", admin)
	_, _ = fmt.Fprintf(w, "  Startup:    scan=%t\n", cfg.Scan.ShouldScanOnStartup())
}
