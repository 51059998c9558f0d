// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all eventadmin configuration.
type Config struct {
	API     API     `yaml:"api"`
	Session Session `yaml:"session"`
	Cache   Cache   `yaml:"cache"`
	Log     Log     `yaml:"log"`
}

// API holds remote API connection settings.
type API struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Session holds session persistence settings.
type Session struct {
	File string `yaml:"file"` // Path of the persisted session document.
}

// Cache holds query cache refresh intervals keyed by key class.
// A zero or missing interval means fetch once, never auto-refresh.
type Cache struct {
	Refresh map[string]time.Duration `yaml:"refresh"`
}

// Log holds diagnostic logging settings.
type Log struct {
	Level string `yaml:"level"` // "debug" | "info" | "warn" | "error"
	File  string `yaml:"file"`  // Empty disables logging.
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: API{
			BaseURL: "http://localhost:8000/api",
			Timeout: 15 * time.Second,
		},
		Session: Session{
			File: defaultStatePath("session.json"),
		},
		Cache: Cache{
			Refresh: map[string]time.Duration{
				"events": 4 * time.Minute,
				"event":  4 * time.Minute,
			},
		},
		Log: Log{
			Level: "info",
		},
	}
}

// defaultStatePath returns name under $XDG_STATE_HOME/eventadmin,
// falling back to ~/.local/state/eventadmin.
func defaultStatePath(name string) string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".eventadmin", name)
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "eventadmin", name)
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	return LoadLayered(path)
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("config: api.base_url cannot be empty")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("config: api.timeout must be positive, got %v", c.API.Timeout)
	}
	if c.Session.File == "" {
		return errors.New("config: session.file cannot be empty")
	}
	for class, d := range c.Cache.Refresh {
		if d < 0 {
			return fmt.Errorf("config: cache.refresh.%s must be non-negative, got %v", class, d)
		}
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("config: log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	return nil
}

// envOverrides lists the supported environment variables. Unset variables
// leave their pointer nil so only explicit overrides are applied.
type envOverrides struct {
	BaseURL     *string        `env:"EVENTADMIN_API_URL"`
	Timeout     *time.Duration `env:"EVENTADMIN_TIMEOUT"`
	SessionFile *string        `env:"EVENTADMIN_SESSION_FILE"`
	LogLevel    *string        `env:"EVENTADMIN_LOG_LEVEL"`
	LogFile     *string        `env:"EVENTADMIN_LOG_FILE"`
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: EVENTADMIN_API_URL, EVENTADMIN_TIMEOUT,
// EVENTADMIN_SESSION_FILE, EVENTADMIN_LOG_LEVEL, EVENTADMIN_LOG_FILE.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("config: parsing environment: %w", err)
	}
	if o.BaseURL != nil && *o.BaseURL != "" {
		c.API.BaseURL = *o.BaseURL
	}
	if o.Timeout != nil {
		c.API.Timeout = *o.Timeout
	}
	if o.SessionFile != nil && *o.SessionFile != "" {
		c.Session.File = *o.SessionFile
	}
	if o.LogLevel != nil && *o.LogLevel != "" {
		c.Log.Level = *o.LogLevel
	}
	if o.LogFile != nil {
		c.Log.File = *o.LogFile
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	API     *rawAPI     `yaml:"api"`
	Session *rawSession `yaml:"session"`
	Cache   *rawCache   `yaml:"cache"`
	Log     *rawLog     `yaml:"log"`
}

type rawAPI struct {
	BaseURL *string        `yaml:"base_url"`
	Timeout *time.Duration `yaml:"timeout"`
}

type rawSession struct {
	File *string `yaml:"file"`
}

type rawCache struct {
	Refresh map[string]time.Duration `yaml:"refresh"`
}

type rawLog struct {
	Level *string `yaml:"level"`
	File  *string `yaml:"file"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
// Cache refresh entries merge per key class.
func (c *Config) merge(layer *rawConfig) {
	if layer.API != nil {
		if layer.API.BaseURL != nil {
			c.API.BaseURL = *layer.API.BaseURL
		}
		if layer.API.Timeout != nil {
			c.API.Timeout = *layer.API.Timeout
		}
	}
	if layer.Session != nil && layer.Session.File != nil {
		c.Session.File = *layer.Session.File
	}
	if layer.Cache != nil && len(layer.Cache.Refresh) > 0 {
		refresh := make(map[string]time.Duration, len(c.Cache.Refresh)+len(layer.Cache.Refresh))
		for k, v := range c.Cache.Refresh {
			refresh[k] = v
		}
		for k, v := range layer.Cache.Refresh {
			refresh[k] = v
		}
		c.Cache.Refresh = refresh
	}
	if layer.Log != nil {
		if layer.Log.Level != nil {
			c.Log.Level = *layer.Log.Level
		}
		if layer.Log.File != nil {
			c.Log.File = *layer.Log.File
		}
	}
}
