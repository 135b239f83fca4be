package config

import (
	"fmt"
	"strings"
)

// ConfigError is returned by Load when the file parses but cannot be used:
// referenced environment variables are unset or validation found errors.
type ConfigError struct {
	Path    string
	Missing []string // unresolved variables, or "NAME: message" for ${NAME:?message}
	Issues  Issues   // fatal issues only
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "config %s:", e.Path)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, " unset variables [%s]", strings.Join(e.Missing, "; "))
	}
	if len(e.Issues) > 0 {
		if len(e.Missing) > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, " %d invalid:", len(e.Issues))
		for _, i := range e.Issues {
			b.WriteString("\n  " + i.String())
		}
	}
	return b.String()
}
