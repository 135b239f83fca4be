package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/vmunix/remotefiles/pkg/medianame"
)

// Severity separates fatal issues from advisory ones.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Issue is one validation finding against a config key.
type Issue struct {
	Key      string // dotted TOML key, e.g. "streams.tokens"
	Message  string
	Severity Severity
}

func (i Issue) String() string {
	if i.Severity == SeverityWarning {
		return i.Key + ": warning: " + i.Message
	}
	return i.Key + ": " + i.Message
}

// Issues is the result of Validate.
type Issues []Issue

// Errors returns the fatal issues.
func (is Issues) Errors() Issues { return is.filter(SeverityError) }

// Warnings returns the advisory issues.
func (is Issues) Warnings() Issues { return is.filter(SeverityWarning) }

func (is Issues) filter(s Severity) Issues {
	var out Issues
	for _, i := range is {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// Has reports whether any issue is recorded against key.
func (is Issues) Has(key string) bool {
	for _, i := range is {
		if i.Key == key {
			return true
		}
	}
	return false
}

type validator struct{ issues Issues }

func (v *validator) fail(key, format string, args ...any) {
	v.issues = append(v.issues, Issue{Key: key, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) warn(key, format string, args ...any) {
	v.issues = append(v.issues, Issue{Key: key, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning})
}

func (v *validator) baseURL(key, raw string, required bool) {
	switch {
	case raw == "" && required:
		v.fail(key, "required")
	case raw != "" && !validHTTPURL(raw):
		v.fail(key, "must be an http(s) URL; got %q", raw)
	}
}

// Validate checks the configuration. Warnings do not prevent startup.
func (c *Config) Validate() Issues {
	v := &validator{}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		v.fail("server.port", "must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Server.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		v.fail("server.log_level", "must be one of debug, info, warn, error; got %q", c.Server.LogLevel)
	}

	if _, err := medianame.ParseMode(c.Libraries.EpisodeMatch); err != nil {
		v.fail("libraries.episode_match", "must be strict or lenient; got %q", c.Libraries.EpisodeMatch)
	}
	if _, err := os.Stat(c.Libraries.MoviesRoot()); os.IsNotExist(err) {
		v.warn("libraries.movies", "directory %q does not exist", c.Libraries.MoviesRoot())
	}
	if _, err := os.Stat(c.Libraries.SeriesRoot()); os.IsNotExist(err) {
		v.warn("libraries.series", "directory %q does not exist", c.Libraries.SeriesRoot())
	}

	if c.TMDB.APIKey == "" {
		v.fail("tmdb.api_key", "required")
	}
	v.baseURL("tmdb.base_url", c.TMDB.BaseURL, false)
	if c.TMDB.Timeout < 0 {
		v.fail("tmdb.timeout", "must not be negative")
	}

	v.baseURL("streams.internal_base_url", c.Streams.InternalBaseURL, true)
	v.baseURL("streams.external_base_url", c.Streams.ExternalBaseURL, true)
	if strings.TrimSpace(strings.ReplaceAll(c.Streams.Tokens, ",", "")) == "" {
		v.warn("streams.tokens", "no tokens configured, external streams are disabled")
	}

	if c.Admin.Token == "" {
		v.warn("admin.token", "not set, admin scan endpoints are disabled")
	}
	if c.Scan.EventRetention < 0 {
		v.fail("scan.event_retention", "must not be negative")
	}

	return v.issues
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
