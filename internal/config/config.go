// Package config resolves docqa settings from defaults, an optional TOML
// file and the environment. Flags are layered on top by the command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	EnvBackendURL = "DOCQA_BACKEND_URL"
	EnvConfigPath = "DOCQA_CONFIG"

	appDir          = "docqa"
	configFileName  = "config.toml"
	logFileName     = "docqa.log"
	defaultURL      = "http://localhost:8000"
	defaultTimeout  = 5 * time.Minute
	defaultStyle    = "auto"
	defaultListener = ":8000"
)

// Styles accepted for answer rendering.
var Styles = []string{"auto", "dark", "light", "notty"}

// Config is the fully resolved client configuration.
type Config struct {
	Backend BackendConfig `toml:"backend"`
	UI      UIConfig      `toml:"ui"`
	Log     LogConfig     `toml:"log"`
	Watch   WatchConfig   `toml:"watch"`
}

type BackendConfig struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
}

type UIConfig struct {
	// Style picks the glamour style used for answers.
	Style       string `toml:"style"`
	NoAltScreen bool   `toml:"no_alt_screen"`
}

type LogConfig struct {
	File  string `toml:"file"`
	Debug bool   `toml:"debug"`
}

// WatchConfig enables uploading files dropped into Dir.
type WatchConfig struct {
	Dir string `toml:"dir"`
}

// StubConfig configures the bundled fake backend.
type StubConfig struct {
	ListenAddr string
	Debug      bool
}

// DefaultStub returns the stub server defaults.
func DefaultStub() StubConfig {
	return StubConfig{ListenAddr: defaultListener}
}

// Duration is a time.Duration that decodes from strings like "90s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend: BackendConfig{URL: defaultURL, Timeout: Duration{defaultTimeout}},
		UI:      UIConfig{Style: defaultStyle},
		Log:     LogConfig{File: DefaultLogPath()},
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, appDir, configFileName)
}

// DefaultLogPath keeps logs out of the terminal the UI draws on.
func DefaultLogPath() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, appDir, logFileName)
}

// Load resolves defaults, then the file at path (or DOCQA_CONFIG, or
// DefaultPath), then the environment. A missing file is only an error when
// it was asked for explicitly.
func Load(path string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()
	explicit := path != ""
	if !explicit {
		if env := getenv(EnvConfigPath); env != "" {
			path = env
			explicit = true
		} else {
			path = DefaultPath()
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("load config %s: %w", path, err)
			}
		}
	}
	if env := strings.TrimSpace(getenv(EnvBackendURL)); env != "" {
		cfg.Backend.URL = env
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the client cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Backend.URL) == "" {
		return errors.New("backend url is required")
	}
	if !strings.HasPrefix(c.Backend.URL, "http://") && !strings.HasPrefix(c.Backend.URL, "https://") {
		return fmt.Errorf("backend url %q must start with http:// or https://", c.Backend.URL)
	}
	if c.Backend.Timeout.Duration < 0 {
		return errors.New("backend timeout cannot be negative")
	}
	for _, style := range Styles {
		if c.UI.Style == style {
			return nil
		}
	}
	return fmt.Errorf("unknown style %q (want one of %s)", c.UI.Style, strings.Join(Styles, ", "))
}
