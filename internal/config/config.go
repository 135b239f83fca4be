// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Libraries LibrariesConfig `toml:"libraries"`
	TMDB      TMDBConfig      `toml:"tmdb"`
	Streams   StreamsConfig   `toml:"streams"`
	Admin     AdminConfig     `toml:"admin"`
	Scan      ScanConfig      `toml:"scan"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LibrariesConfig locates the media trees. Movies and Series are directory
// names under MediaRoot; absolute values are used as-is.
type LibrariesConfig struct {
	MediaRoot    string `toml:"media_root"`
	Movies       string `toml:"movies"`
	Series       string `toml:"series"`
	EpisodeMatch string `toml:"episode_match"` // "strict" or "lenient"
}

// MoviesRoot returns the absolute movies directory.
func (l LibrariesConfig) MoviesRoot() string { return l.join(l.Movies) }

// SeriesRoot returns the absolute series directory.
func (l LibrariesConfig) SeriesRoot() string { return l.join(l.Series) }

func (l LibrariesConfig) join(dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(l.MediaRoot, dir)
}

type TMDBConfig struct {
	APIKey   string        `toml:"api_key"`
	BaseURL  string        `toml:"base_url"`
	Timeout  time.Duration `toml:"timeout"`
	CacheTTL time.Duration `toml:"cache_ttl"`
}

// StreamsConfig holds the public base URLs and provider labels per trust level.
type StreamsConfig struct {
	InternalBaseURL string `toml:"internal_base_url"`
	ExternalBaseURL string `toml:"external_base_url"`
	InternalName    string `toml:"internal_name"`
	ExternalName    string `toml:"external_name"`
	Tokens          string `toml:"tokens"` // comma-separated; empty denies all external streams
}

type AdminConfig struct {
	Token string `toml:"token"`
}

type ScanConfig struct {
	OnStartup      *bool         `toml:"on_startup"`
	EventRetention time.Duration `toml:"event_retention"`
}

// ShouldScanOnStartup returns whether to scan when the daemon starts.
// Defaults to true if not explicitly set.
func (s ScanConfig) ShouldScanOnStartup() bool {
	if s.OnStartup == nil {
		return true
	}
	return *s.OnStartup
}

// Defaults
const (
	DefaultPort           = 8484
	DefaultMediaRoot      = "/media"
	DefaultEventRetention = 30 * 24 * time.Hour
)

// Load reads, parses, and validates the configuration file.
// Unresolved environment variables and validation errors are returned
// together as a *ConfigError. Warnings do not fail the load.
func Load(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}

	fatal := cfg.Validate().Errors()
	if len(missing) > 0 || len(fatal) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing, Issues: fatal}
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration file, applying
// defaults but skipping validation and unresolved-variable checks.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, _, err := load(path)
	return cfg, err
}

func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, missing, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/remotefiles.db"
	}
	if c.Libraries.MediaRoot == "" {
		c.Libraries.MediaRoot = DefaultMediaRoot
	}
	if c.Libraries.Movies == "" {
		c.Libraries.Movies = "movies"
	}
	if c.Libraries.Series == "" {
		c.Libraries.Series = "series"
	}
	if c.Libraries.EpisodeMatch == "" {
		c.Libraries.EpisodeMatch = "lenient"
	}
	if c.TMDB.Timeout == 0 {
		c.TMDB.Timeout = 10 * time.Second
	}
	if c.TMDB.CacheTTL == 0 {
		c.TMDB.CacheTTL = 7 * 24 * time.Hour
	}
	if c.Streams.InternalName == "" {
		c.Streams.InternalName = "Remote Files (Internal)"
	}
	if c.Streams.ExternalName == "" {
		c.Streams.ExternalName = "Remote Files (External)"
	}
	if c.Scan.EventRetention == 0 {
		c.Scan.EventRetention = DefaultEventRetention
	}
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars replaces environment variable references and returns the
// names (or ":?" messages) of the ones that could not be resolved. Unresolved
// references are left in place.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		name, op, arg := m[1], m[2], m[3]
		value, ok := os.LookupEnv(name)

		switch op {
		case ":-":
			if !ok || value == "" {
				return arg
			}
			return value
		case ":?":
			if !ok || value == "" {
				missing = append(missing, name+": "+strings.TrimSpace(arg))
				return match
			}
			return value
		default:
			if !ok {
				missing = append(missing, name)
				return match
			}
			return value
		}
	})
	return out, missing
}
