package prompts

import (
	"fmt"
	"strings"
)

// fixTemplates map failure-reason keywords to specific corrective
// instructions appended to retry prompts.
var fixTemplates = []struct {
	keywords    []string
	instruction string
}{
	{
		keywords:    []string{"face", "facial", "likeness", "expression"},
		instruction: "Redraw facial features to match the attached character reference exactly: eye shape, nose, jawline, and distinguishing marks.",
	},
	{
		keywords:    []string{"hair", "hairstyle"},
		instruction: "Correct the hairstyle to match the attached character reference: length, parting, and color must be identical.",
	},
	{
		keywords:    []string{"style", "shading", "tone", "palette"},
		instruction: "Match the art style, shading technique, and palette of the previous page artwork and references; do not introduce a new rendering style.",
	},
	{
		keywords:    []string{"letter", "bubble", "balloon", "text", "font", "spelling", "dialogue"},
		instruction: "Fix the lettering: every checklist line must appear verbatim in a clean, legible bubble assigned to the correct speaker, and no stray text may remain.",
	},
	{
		keywords:    []string{"continuity", "costume", "outfit", "background", "environment"},
		instruction: "Restore visual continuity: costumes, props, and environment must match the references and the previous page artwork.",
	},
}

// Correction synthesizes the retry feedback block from the most recent
// review failure: a generic rejection notice plus any keyword-triggered
// specific fixes.
func Correction(reason string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The previous attempt was rejected by quality review: %s\n", strings.TrimSpace(reason))

	lower := strings.ToLower(reason)
	for _, fix := range fixTemplates {
		for _, keyword := range fix.keywords {
			if strings.Contains(lower, keyword) {
				fmt.Fprintf(&b, "- %s\n", fix.instruction)
				break
			}
		}
	}

	b.WriteString("Regenerate the page and resolve every point above without degrading anything that was already correct.")
	return b.String()
}
