package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/remotefiles/config.toml", DefaultPath())

	t.Setenv("XDG_CONFIG_HOME", "")
	assert.True(t, strings.HasSuffix(DefaultPath(), filepath.Join(".config", "remotefiles", "config.toml")), DefaultPath())
}

// inEmptyDir runs the test from a fresh working directory with discovery
// isolated from the host environment.
func inEmptyDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	return dir
}

func TestResolve_ExplicitWins(t *testing.T) {
	inEmptyDir(t)
	t.Setenv(EnvConfigPath, "/somewhere/else.toml")

	path, err := Resolve("/explicit/config.toml")
	require.NoError(t, err)
	assert.Equal(t, "/explicit/config.toml", path)
}

func TestResolve_Env(t *testing.T) {
	dir := inEmptyDir(t)
	custom := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(custom, []byte("[server]"), 0o644))
	require.NoError(t, os.WriteFile("config.toml", []byte("[server]"), 0o644))
	t.Setenv(EnvConfigPath, custom)

	path, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, custom, path)
}

func TestResolve_EnvMissingFile(t *testing.T) {
	inEmptyDir(t)
	t.Setenv(EnvConfigPath, "/nonexistent/config.toml")

	_, err := Resolve("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvConfigPath)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestResolve_WorkingDirBeforeXDG(t *testing.T) {
	dir := inEmptyDir(t)
	xdg := filepath.Join(dir, "xdg", "remotefiles")
	require.NoError(t, os.MkdirAll(xdg, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "config.toml"), []byte("[server]"), 0o644))

	path, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, "config.toml"), path)

	require.NoError(t, os.WriteFile("config.toml", []byte("[server]"), 0o644))
	path, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "config.toml", path)
}

func TestResolve_SkipsDirectories(t *testing.T) {
	inEmptyDir(t)
	require.NoError(t, os.Mkdir("config.toml", 0o755))

	_, err := Resolve("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_NotFound(t *testing.T) {
	inEmptyDir(t)

	_, err := Resolve("")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "config.toml")
}
