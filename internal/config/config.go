package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/regenrek/splitdesk/internal/appdirs"
	"github.com/regenrek/splitdesk/internal/atomicfile"
	"github.com/regenrek/splitdesk/internal/identity"
	"github.com/regenrek/splitdesk/internal/logging"
	"github.com/regenrek/splitdesk/internal/runenv"
	"github.com/regenrek/splitdesk/internal/userpath"
)

const (
	DefaultWindowWidth  = 800
	DefaultWindowHeight = 600
	DefaultWindowOffset = 50

	DefaultWatchDebounceMS = 200
	DefaultUpdateInterval  = time.Hour
	DefaultReleaseFeedURL  = "https://api.github.com/repos/regenrek/splitdesk/releases/latest"
)

// Config is the on-disk config.yml.
type Config struct {
	Logging  logging.Config `yaml:"logging,omitempty"`
	Window   WindowConfig   `yaml:"window,omitempty"`
	Handoff  HandoffConfig  `yaml:"handoff,omitempty"`
	Watch    WatchConfig    `yaml:"watch,omitempty"`
	Update   UpdateConfig   `yaml:"update,omitempty"`
	ShellEnv ShellEnvConfig `yaml:"shell_env,omitempty"`
}

// WindowConfig is the geometry used when nothing better is known.
type WindowConfig struct {
	Width  float64 `yaml:"width,omitempty"`
	Height float64 `yaml:"height,omitempty"`
	// Offset shifts each new window down and right of the active one.
	Offset float64 `yaml:"offset,omitempty"`
}

type HandoffConfig struct {
	TimeoutMS int  `yaml:"timeout_ms,omitempty"`
	Disabled  bool `yaml:"disabled,omitempty"`
}

type WatchConfig struct {
	Paths      []string `yaml:"paths,omitempty"`
	DebounceMS int      `yaml:"debounce_ms,omitempty"`
}

type UpdateConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	FeedURL  string `yaml:"feed_url,omitempty"`
	Interval string `yaml:"interval,omitempty"`
}

type ShellEnvConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Command string `yaml:"command,omitempty"`
}

// ApplyDefaults fills zero values in place.
func (c *Config) ApplyDefaults() {
	if c.Window.Width <= 0 {
		c.Window.Width = DefaultWindowWidth
	}
	if c.Window.Height <= 0 {
		c.Window.Height = DefaultWindowHeight
	}
	if c.Window.Offset <= 0 {
		c.Window.Offset = DefaultWindowOffset
	}
	if c.Watch.DebounceMS <= 0 {
		c.Watch.DebounceMS = DefaultWatchDebounceMS
	}
	if strings.TrimSpace(c.Update.FeedURL) == "" {
		c.Update.FeedURL = DefaultReleaseFeedURL
	}
	c.Watch.Paths = userpath.ExpandAll(c.Watch.Paths)
}

// HandoffTimeout prefers the environment override, then the file value.
func (c *Config) HandoffTimeout() time.Duration {
	if os.Getenv(runenv.HandoffTimeoutEnv) == "" && c.Handoff.TimeoutMS > 0 {
		return time.Duration(c.Handoff.TimeoutMS) * time.Millisecond
	}
	return runenv.HandoffTimeout()
}

func (c *Config) WatchDebounce() time.Duration {
	if c.Watch.DebounceMS <= 0 {
		return DefaultWatchDebounceMS * time.Millisecond
	}
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

func (c *Config) UpdateEnabled() bool {
	return c.Update.Enabled == nil || *c.Update.Enabled
}

// UpdateInterval parses update.interval, falling back to one hour.
func (c *Config) UpdateInterval() time.Duration {
	raw := strings.TrimSpace(c.Update.Interval)
	if raw == "" {
		return DefaultUpdateInterval
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < time.Minute {
		return DefaultUpdateInterval
	}
	return d
}

func (c *Config) ShellEnvEnabled() bool {
	return c.ShellEnv.Enabled == nil || *c.ShellEnv.Enabled
}

// LoadConfig reads and parses path. A missing file yields defaults.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if strings.TrimSpace(path) == "" {
		cfg.ApplyDefaults()
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.ApplyDefaults()
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	if _, err := cfg.Logging.Normalize(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// SaveConfig writes cfg to path.
func SaveConfig(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := atomicfile.Save(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %q: %w", path, err)
	}
	return nil
}

const defaultTemplate = `# splitdesk configuration
#
# logging:
#   level: info          # debug | info | warn | error
#   sink: file           # stderr | file | none
# window:
#   width: 800
#   height: 600
#   offset: 50
# handoff:
#   timeout_ms: 500
#   disabled: false      # always start a new instance
# watch:
#   debounce_ms: 200
#   paths: []
# update:
#   enabled: true
#   interval: 1h
# shell_env:
#   enabled: true
#   command: ""          # defaults to "$SHELL --login -c printenv"
{}
`

// EnsureDefault writes a commented template when path does not exist.
func EnsureDefault(path string) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, nil
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config %q: %w", path, err)
	}
	if err := atomicfile.Save(path, []byte(defaultTemplate), 0o644); err != nil {
		return false, fmt.Errorf("write default config %q: %w", path, err)
	}
	return true, nil
}

// DefaultConfigPath returns the config.yml location. SPLITDESK_FRESH_CONFIG
// disables the file entirely and yields "".
func DefaultConfigPath() (string, error) {
	if runenv.FreshConfigEnabled() && runenv.ConfigDir() == "" {
		return "", nil
	}
	dir, err := appdirs.ConfigDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, identity.GlobalConfigFile), nil
}

// WatchTargets lists the settings file, themes dir, keymaps file and plugin
// dirs that should trigger a reload.
func WatchTargets(configPath string, pluginPaths []string, extra []string) []string {
	targets := []string{configPath}
	if dir, err := appdirs.ConfigDirPath(); err == nil {
		targets = append(targets, filepath.Join(dir, identity.ThemesDirName), filepath.Join(dir, identity.KeymapsFile))
	}
	if dir, err := appdirs.DataDirPath(); err == nil {
		targets = append(targets, filepath.Join(dir, identity.PluginsDirName))
	}
	targets = append(targets, pluginPaths...)
	targets = append(targets, extra...)
	return userpath.ExpandAll(targets)
}
