package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JaimeStill/inkwell/pkg/formatting"
)

// Layout values map to the aspect ratio directive sent with generation calls.
var layouts = map[string]string{
	"portrait":  "2:3",
	"landscape": "3:2",
	"square":    "1:1",
}

// PipelineConfig holds page generation behavior parameters.
type PipelineConfig struct {
	// TwoPhase splits each page into an art pass and a lettering pass.
	TwoPhase bool `toml:"two_phase"`
	// Color requests full-color rendering; monochrome otherwise.
	Color bool `toml:"color"`
	// RetryCount is the maximum generation attempts per page phase.
	RetryCount int `toml:"retry_count"`
	// Layout selects the page aspect ratio: portrait, landscape, or square.
	Layout string `toml:"layout"`
	// NoAutoRefs disables reference image synthesis for unresolved entities.
	NoAutoRefs bool `toml:"no_auto_refs"`
	// Pages restricts the run to a 1-based selector such as "1,3-5". Empty selects all.
	Pages string `toml:"pages"`
	// StartPage skips pages numbered below it. Zero or one starts from the beginning.
	StartPage int `toml:"start_page"`
	// Album exports passed pages to a single PDF after a fully successful run.
	Album bool `toml:"album"`
	// MaxArtifactSize caps accepted artifact size, e.g. "25MB". Oversized
	// generations are rejected before review and consume a retry.
	MaxArtifactSize string `toml:"max_artifact_size"`

	selected         map[int]bool
	maxArtifactBytes int64
}

// AspectRatio returns the generation aspect ratio directive for the layout.
func (c *PipelineConfig) AspectRatio() string {
	return layouts[c.Layout]
}

// MaxArtifactBytes returns the artifact size cap in bytes.
func (c *PipelineConfig) MaxArtifactBytes() int64 {
	return c.maxArtifactBytes
}

// FinalPhase returns the phase whose PASS completes a page.
func (c *PipelineConfig) FinalPhase() int {
	if c.TwoPhase {
		return 2
	}
	return 1
}

// Selected reports whether the 1-based page number is included in this run.
func (c *PipelineConfig) Selected(pageNumber int) bool {
	if pageNumber < c.StartPage {
		return false
	}
	if c.selected == nil {
		return true
	}
	return c.selected[pageNumber]
}

// Finalize applies defaults and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.TwoPhase {
		c.TwoPhase = true
	}
	if overlay.Color {
		c.Color = true
	}
	if overlay.RetryCount != 0 {
		c.RetryCount = overlay.RetryCount
	}
	if overlay.Layout != "" {
		c.Layout = overlay.Layout
	}
	if overlay.NoAutoRefs {
		c.NoAutoRefs = true
	}
	if overlay.Pages != "" {
		c.Pages = overlay.Pages
	}
	if overlay.StartPage != 0 {
		c.StartPage = overlay.StartPage
	}
	if overlay.Album {
		c.Album = true
	}
	if overlay.MaxArtifactSize != "" {
		c.MaxArtifactSize = overlay.MaxArtifactSize
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.RetryCount == 0 {
		c.RetryCount = 3
	}
	if c.Layout == "" {
		c.Layout = "portrait"
	}
	if c.MaxArtifactSize == "" {
		c.MaxArtifactSize = "25MB"
	}
}

func (c *PipelineConfig) validate() error {
	if c.RetryCount < 1 {
		return fmt.Errorf("retry_count must be at least 1")
	}
	if _, ok := layouts[c.Layout]; !ok {
		return fmt.Errorf("invalid layout %q", c.Layout)
	}
	if c.StartPage < 0 {
		return fmt.Errorf("start_page must not be negative")
	}

	maxBytes, err := formatting.ParseBytes(c.MaxArtifactSize)
	if err != nil {
		return fmt.Errorf("invalid max_artifact_size: %w", err)
	}
	if maxBytes < 1 {
		return fmt.Errorf("max_artifact_size must be at least 1 byte")
	}
	c.maxArtifactBytes = maxBytes

	selected, err := parseSelector(c.Pages)
	if err != nil {
		return err
	}
	c.selected = selected

	return nil
}

// parseSelector expands a selector such as "1,3-5" into a page number set.
// An empty selector returns nil, meaning all pages.
func parseSelector(s string) (map[int]bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	selected := map[int]bool{}
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)

		lo, hi, ok := strings.Cut(part, "-")
		from, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || from < 1 {
			return nil, fmt.Errorf("invalid page selector %q", s)
		}

		to := from
		if ok {
			to, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || to < from {
				return nil, fmt.Errorf("invalid page selector %q", s)
			}
		}

		for n := from; n <= to; n++ {
			selected[n] = true
		}
	}

	return selected, nil
}
