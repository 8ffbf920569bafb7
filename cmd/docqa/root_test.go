package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/docqa/internal/config"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestResolveUsesDefaultsWithoutFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	c := &rootCommander{}
	cmd := c.command()
	require.NoError(t, cmd.ParseFlags(nil))

	cfg, err := c.resolve(cmd, env(nil))
	require.NoError(t, err)
	assert.Equal(t, config.Default().Backend.URL, cfg.Backend.URL)
	assert.Equal(t, "auto", cfg.UI.Style)
}

func TestResolveFlagsOverrideFileAndEnv(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[backend]
url = "http://file:8000"
timeout = "30s"

[ui]
style = "dark"
`), 0o644))

	c := &rootCommander{}
	cmd := c.command()
	require.NoError(t, cmd.ParseFlags([]string{
		"--config", path,
		"--backend", "http://flag:9000",
		"--timeout", "2m",
		"--log-file", "",
		"--no-alt-screen",
	}))

	cfg, err := c.resolve(cmd, env(map[string]string{config.EnvBackendURL: "http://env:8000"}))
	require.NoError(t, err)
	assert.Equal(t, "http://flag:9000", cfg.Backend.URL)
	assert.Equal(t, 2*time.Minute, cfg.Backend.Timeout.Duration)
	assert.Equal(t, "dark", cfg.UI.Style)
	assert.Empty(t, cfg.Log.File)
	assert.True(t, cfg.UI.NoAltScreen)
}

func TestResolveRejectsUnknownStyle(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	c := &rootCommander{}
	cmd := c.command()
	require.NoError(t, cmd.ParseFlags([]string{"--style", "sepia"}))

	_, err := c.resolve(cmd, env(nil))
	assert.Error(t, err)
}
