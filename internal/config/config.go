// Package config assembles the immutable run configuration for inkwell.
// Values are resolved once at entry from a TOML base file, an optional
// environment overlay, environment variables, and CLI flag overrides,
// then validated before any pipeline work begins.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/inkwell/pkg/store"
)

const (
	BaseConfigFile       = "inkwell.toml"
	OverlayConfigPattern = "inkwell.%s.toml"

	EnvInkwellEnv     = "INKWELL_ENV"
	EnvInkwellVersion = "INKWELL_VERSION"
)

var archiveEnv = &store.ArchiveEnv{
	ContainerName:    "INKWELL_ARCHIVE_CONTAINER_NAME",
	ConnectionString: "INKWELL_ARCHIVE_CONNECTION_STRING",
}

// Config is the root configuration for an inkwell run.
type Config struct {
	Gemini   GeminiConfig        `toml:"gemini"`
	Pipeline PipelineConfig      `toml:"pipeline"`
	Review   ReviewConfig        `toml:"review"`
	Archive  store.ArchiveConfig `toml:"archive"`
	Version  string              `toml:"version"`
}

// Env returns the INKWELL_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvInkwellEnv); env != "" {
		return env
	}
	return "local"
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no inkwell.toml exists, defaults and
// environment variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Gemini.Merge(&overlay.Gemini)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.Review.Merge(&overlay.Review)
	c.Archive.Merge(&overlay.Archive)
}

// Finalize applies defaults, environment variable overrides, and validation
// across all sub-configs. Callers that mutate the config after Load (CLI
// flag overrides) must call Finalize again before use.
func (c *Config) Finalize() error {
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if v := os.Getenv(EnvInkwellVersion); v != "" {
		c.Version = v
	}

	if err := c.Gemini.Finalize(); err != nil {
		return fmt.Errorf("gemini: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.Review.Finalize(); err != nil {
		return fmt.Errorf("review: %w", err)
	}
	if err := c.Archive.Finalize(archiveEnv); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvInkwellEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
