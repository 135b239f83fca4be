package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{
			name: "missing only",
			err:  &ConfigError{Path: "/etc/remotefiles/config.toml", Missing: []string{"TMDB_KEY", "ADMIN: set it"}},
			want: "config /etc/remotefiles/config.toml: unset variables [TMDB_KEY; ADMIN: set it]",
		},
		{
			name: "issues only",
			err: &ConfigError{Path: "c.toml", Issues: Issues{
				{Key: "server.port", Message: "must be between 1 and 65535, got 0"},
				{Key: "tmdb.api_key", Message: "required"},
			}},
			want: "config c.toml: 2 invalid:\n  server.port: must be between 1 and 65535, got 0\n  tmdb.api_key: required",
		},
		{
			name: "both",
			err: &ConfigError{
				Path:    "c.toml",
				Missing: []string{"TMDB_KEY"},
				Issues:  Issues{{Key: "tmdb.api_key", Message: "required"}},
			},
			want: "config c.toml: unset variables [TMDB_KEY], 1 invalid:\n  tmdb.api_key: required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIssues_Filter(t *testing.T) {
	issues := Issues{
		{Key: "tmdb.api_key", Message: "required"},
		{Key: "admin.token", Message: "not set", Severity: SeverityWarning},
		{Key: "streams.tokens", Message: "none", Severity: SeverityWarning},
	}

	assert.Len(t, issues.Errors(), 1)
	assert.Len(t, issues.Warnings(), 2)
	assert.True(t, issues.Has("admin.token"))
	assert.False(t, issues.Has("server.port"))
	assert.Equal(t, "admin.token: warning: not set", issues[1].String())
	assert.Empty(t, Issues(nil).Errors())
}
