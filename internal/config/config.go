package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CALCMETRIC_"

// Config holds host settings for the calcmetric tools.
type Config struct {
	Catalog     string      `yaml:"catalog" json:"catalog" env:"CATALOG"`
	LogLevel    string      `yaml:"log_level" json:"log_level" env:"LOG_LEVEL"`
	DefaultStep string      `yaml:"default_step" json:"default_step" env:"DEFAULT_STEP"`
	Readiness   string      `yaml:"readiness" json:"readiness" env:"READINESS"`
	Watch       WatchConfig `yaml:"watch" json:"watch" envPrefix:"WATCH_"`
}

// WatchConfig configures catalog file watching.
type WatchConfig struct {
	Debounce string `yaml:"debounce" json:"debounce" env:"DEBOUNCE"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		Readiness: "warn",
		Watch:     WatchConfig{Debounce: "100ms"},
	}
}

// Load reads path (YAML, or JSON by extension) over the defaults and then
// applies CALCMETRIC_* environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, nil)
}

// LoadWithEnv is Load with an explicit environment; nil uses the process
// environment.
func LoadWithEnv(path string, environ map[string]string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing config json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing config yaml: %w", err)
		}
	}
	return nil
}

// Debounce returns the parsed watch debounce interval.
func (c *Config) Debounce() (time.Duration, error) {
	if c.Watch.Debounce == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, fmt.Errorf("watch.debounce: %w", err)
	}
	return d, nil
}
