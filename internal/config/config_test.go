package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("", envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(t.TempDir(), "absent.toml"), envMap(nil))
	require.Error(t, err)
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[backend]
url = "http://qa.internal:9000"
timeout = "90s"

[ui]
style = "notty"
no_alt_screen = true

[log]
debug = true

[watch]
dir = "/srv/inbox"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, "http://qa.internal:9000", cfg.Backend.URL)
	assert.Equal(t, 90*time.Second, cfg.Backend.Timeout.Duration)
	assert.Equal(t, "notty", cfg.UI.Style)
	assert.True(t, cfg.UI.NoAltScreen)
	assert.True(t, cfg.Log.Debug)
	assert.Equal(t, DefaultLogPath(), cfg.Log.File)
	assert.Equal(t, "/srv/inbox", cfg.Watch.Dir)

	cfg, err = Load(path, envMap(map[string]string{EnvBackendURL: "https://override:8443"}))
	require.NoError(t, err)
	assert.Equal(t, "https://override:8443", cfg.Backend.URL)
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\nstyle = \"dark\"\n"), 0o644))

	cfg, err := Load("", envMap(map[string]string{EnvConfigPath: path}))
	require.NoError(t, err)
	assert.Equal(t, "dark", cfg.UI.Style)
	assert.Equal(t, defaultURL, cfg.Backend.URL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty url", func(c *Config) { c.Backend.URL = "" }, true},
		{"bad scheme", func(c *Config) { c.Backend.URL = "ftp://x" }, true},
		{"negative timeout", func(c *Config) { c.Backend.Timeout = Duration{-time.Second} }, true},
		{"unknown style", func(c *Config) { c.UI.Style = "neon" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestDurationRejectsGarbage(t *testing.T) {
	var d Duration
	assert.Error(t, d.UnmarshalText([]byte("soon")))
	require.NoError(t, d.UnmarshalText([]byte(" 2m ")))
	assert.Equal(t, 2*time.Minute, d.Duration)
}
