package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfigPath names the environment variable that overrides discovery.
const EnvConfigPath = "REMOTEFILES_CONFIG"

// ErrNotFound is returned by Resolve when no candidate file exists.
var ErrNotFound = errors.New("config file not found")

// DefaultPath is where `remotefiles config init` writes by default:
// $XDG_CONFIG_HOME/remotefiles/config.toml, falling back to ~/.config.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "remotefiles", "config.toml")
}

// SearchPaths lists the locations Resolve tries, in order.
func SearchPaths() []string {
	return []string{"config.toml", DefaultPath(), "/etc/remotefiles/config.toml"}
}

// Resolve picks the config file to load. An explicit path wins and is
// returned unchecked; otherwise $REMOTEFILES_CONFIG must name an existing
// file; otherwise the first existing entry of SearchPaths is used.
func Resolve(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s: %w", EnvConfigPath, err)
		}
		return p, nil
	}
	candidates := SearchPaths()
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w (searched %s)", ErrNotFound, strings.Join(candidates, ", "))
}
