// Package config loads application settings from the environment and
// an optional YAML settings file. Environment variables provide the
// baseline; values present in the settings file override them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gobeaver/beaver-kit/config"
	"github.com/goccy/go-yaml"

	"github.com/tobagin/scramble/internal/validate"
)

type Config struct {
	// Symlink handling for input paths
	AllowSymlinks bool `env:"SCRAMBLE_ALLOW_SYMLINKS,default:false" yaml:"allow_symlinks"`

	// Suffix appended to cleaned file names when no output path is given
	OutputSuffix string `env:"SCRAMBLE_OUTPUT_SUFFIX,default:_cleaned" yaml:"output_suffix"`

	// Abuse protections
	RateLimitPerMinute int `env:"SCRAMBLE_RATE_LIMIT_PER_MINUTE,default:20" yaml:"rate_limit_per_minute"`
	MaxConcurrent      int `env:"SCRAMBLE_MAX_CONCURRENT,default:3" yaml:"max_concurrent"`

	// Logging
	LogLevel string `env:"SCRAMBLE_LOG_LEVEL,default:info" yaml:"log_level"`
	LogJSON  bool   `env:"SCRAMBLE_LOG_JSON,default:false" yaml:"log_json"`
}

// Load returns config from the environment, overlaid with the YAML
// settings file at path if one exists. An empty path means environment
// only. A missing file at an explicit path is an error; a missing file
// at the default path is not.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if path == "" {
		return cfg, cfg.validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultPath() {
			return cfg, cfg.validate()
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", filepath.Base(path), err)
	}
	return cfg, cfg.validate()
}

// DefaultPath returns the per-user settings file location. Empty when
// no user config directory can be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "scramble", "settings.yaml")
}

// SymlinkPolicy maps the AllowSymlinks flag onto a validation policy.
func (c *Config) SymlinkPolicy() validate.SymlinkPolicy {
	if c.AllowSymlinks {
		return validate.PolicyResolveSymlinks
	}
	return validate.PolicyRejectSymlinks
}

func (c *Config) validate() error {
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("rate_limit_per_minute must be positive, got %d", c.RateLimitPerMinute)
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("max_concurrent must be positive, got %d", c.MaxConcurrent)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
