package config

import (
	"fmt"
	"os"
	"slices"
)

const (
	EnvGeminiAPIKey          = "INKWELL_GEMINI_API_KEY"
	EnvGeminiAPIKeyFallback  = "GEMINI_API_KEY"
	EnvGeminiImageModel      = "INKWELL_GEMINI_IMAGE_MODEL"
	EnvGeminiReviewModel     = "INKWELL_GEMINI_REVIEW_MODEL"
	EnvGeminiSafetyThreshold = "INKWELL_GEMINI_SAFETY_THRESHOLD"
)

var safetyThresholds = []string{
	"BLOCK_NONE",
	"BLOCK_ONLY_HIGH",
	"BLOCK_MEDIUM_AND_ABOVE",
	"BLOCK_LOW_AND_ABOVE",
}

// GeminiConfig holds Gemini API parameters for generation and review calls.
// The API key is intentionally not required here; commands that never reach
// the API (parse) run without one, and the client constructor enforces it.
type GeminiConfig struct {
	APIKey          string `toml:"api_key"`
	ImageModel      string `toml:"image_model"`
	ReviewModel     string `toml:"review_model"`
	SafetyThreshold string `toml:"safety_threshold"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *GeminiConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *GeminiConfig) Merge(overlay *GeminiConfig) {
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.ImageModel != "" {
		c.ImageModel = overlay.ImageModel
	}
	if overlay.ReviewModel != "" {
		c.ReviewModel = overlay.ReviewModel
	}
	if overlay.SafetyThreshold != "" {
		c.SafetyThreshold = overlay.SafetyThreshold
	}
}

func (c *GeminiConfig) loadDefaults() {
	if c.ImageModel == "" {
		c.ImageModel = "gemini-2.5-flash-image"
	}
	if c.ReviewModel == "" {
		c.ReviewModel = "gemini-2.5-flash"
	}
	if c.SafetyThreshold == "" {
		c.SafetyThreshold = "BLOCK_ONLY_HIGH"
	}
}

func (c *GeminiConfig) loadEnv() {
	if v := os.Getenv(EnvGeminiAPIKey); v != "" {
		c.APIKey = v
	} else if v := os.Getenv(EnvGeminiAPIKeyFallback); v != "" && c.APIKey == "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvGeminiImageModel); v != "" {
		c.ImageModel = v
	}
	if v := os.Getenv(EnvGeminiReviewModel); v != "" {
		c.ReviewModel = v
	}
	if v := os.Getenv(EnvGeminiSafetyThreshold); v != "" {
		c.SafetyThreshold = v
	}
}

func (c *GeminiConfig) validate() error {
	if !slices.Contains(safetyThresholds, c.SafetyThreshold) {
		return fmt.Errorf("invalid safety_threshold %q", c.SafetyThreshold)
	}
	return nil
}
