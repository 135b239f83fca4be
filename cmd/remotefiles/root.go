package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/remotefiles/internal/app"
	"github.com/vmunix/remotefiles/internal/config"
)

var version = "dev"

var (
	configPath string
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "remotefiles",
	Short: "Manage the remote files media catalog",
	Long: `remotefiles - manage the remote files media catalog

Parse media names, run library scans and inspect the catalog
directly against the database.

Run 'remotefilesd' to start the add-on server.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: discovered)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("remotefiles {{.Version}}\n")
}

// resolveConfigPath returns the --config value or the discovered path.
func resolveConfigPath() (string, error) {
	return config.Resolve(configPath)
}

// openApp loads and validates the config and wires the components.
func openApp() (*app.App, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		logger = app.NewLogger(cfg.Server.LogLevel)
	}
	return app.New(cfg, logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
