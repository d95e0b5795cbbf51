package config

import "fmt"

// ReviewConfig holds the acceptance thresholds for generated pages.
// Acceptance is conjunctive: the total and every sub-score must clear
// their thresholds independently.
type ReviewConfig struct {
	// MinTotal is the minimum composite score (0-400).
	MinTotal int `toml:"min_total"`
	// MinLikeness is the minimum character likeness sub-score (0-100).
	MinLikeness int `toml:"min_likeness"`
	// MinContinuity is the minimum visual continuity sub-score (0-100).
	MinContinuity int `toml:"min_continuity"`
	// MinLettering is the minimum lettering sub-score (0-100). In phase 1
	// the same dimension scores the absence of speech bubbles instead.
	MinLettering int `toml:"min_lettering"`
	// MinStory is the minimum story accuracy sub-score (0-100).
	MinStory int `toml:"min_story"`
}

// Finalize applies defaults and validation.
func (c *ReviewConfig) Finalize() error {
	c.loadDefaults()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ReviewConfig) Merge(overlay *ReviewConfig) {
	if overlay.MinTotal != 0 {
		c.MinTotal = overlay.MinTotal
	}
	if overlay.MinLikeness != 0 {
		c.MinLikeness = overlay.MinLikeness
	}
	if overlay.MinContinuity != 0 {
		c.MinContinuity = overlay.MinContinuity
	}
	if overlay.MinLettering != 0 {
		c.MinLettering = overlay.MinLettering
	}
	if overlay.MinStory != 0 {
		c.MinStory = overlay.MinStory
	}
}

func (c *ReviewConfig) loadDefaults() {
	if c.MinTotal == 0 {
		c.MinTotal = 280
	}
	if c.MinLikeness == 0 {
		c.MinLikeness = 70
	}
	if c.MinContinuity == 0 {
		c.MinContinuity = 70
	}
	if c.MinLettering == 0 {
		c.MinLettering = 70
	}
	if c.MinStory == 0 {
		c.MinStory = 70
	}
}

func (c *ReviewConfig) validate() error {
	if c.MinTotal < 0 || c.MinTotal > 400 {
		return fmt.Errorf("min_total must be within 0-400")
	}
	for name, v := range map[string]int{
		"min_likeness":   c.MinLikeness,
		"min_continuity": c.MinContinuity,
		"min_lettering":  c.MinLettering,
		"min_story":      c.MinStory,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s must be within 0-100", name)
		}
	}
	return nil
}
