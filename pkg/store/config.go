package store

import (
	"fmt"
	"os"
)

// ArchiveConfig holds Azure Blob archive connection parameters.
// An empty connection string disables archiving.
type ArchiveConfig struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
}

// ArchiveEnv maps archive config fields to environment variable names for override injection.
type ArchiveEnv struct {
	ContainerName    string
	ConnectionString string
}

// Enabled reports whether archiving is configured.
func (c *ArchiveConfig) Enabled() bool {
	return c.ConnectionString != ""
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ArchiveConfig) Finalize(env *ArchiveEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ArchiveConfig) Merge(overlay *ArchiveConfig) {
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
}

func (c *ArchiveConfig) loadDefaults() {
	if c.ContainerName == "" {
		c.ContainerName = "pages"
	}
}

func (c *ArchiveConfig) loadEnv(env *ArchiveEnv) {
	if env.ContainerName != "" {
		if v := os.Getenv(env.ContainerName); v != "" {
			c.ContainerName = v
		}
	}
	if env.ConnectionString != "" {
		if v := os.Getenv(env.ConnectionString); v != "" {
			c.ConnectionString = v
		}
	}
}

func (c *ArchiveConfig) validate() error {
	if c.Enabled() && c.ContainerName == "" {
		return fmt.Errorf("container_name required when archive is configured")
	}
	return nil
}
