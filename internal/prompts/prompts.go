// Package prompts assembles the text prompts and attachment lists sent to
// the generation and review services. Builders are pure: they derive
// everything from their inputs so the exact prompt used by an attempt can
// be persisted for audit and reproduced on resume.
package prompts

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/inkwell/internal/gen"
	"github.com/JaimeStill/inkwell/internal/story"
)

// Reference binds a tag rendered into the prompt to an attached image so
// the model can disambiguate named entities. Attachment order matches tag
// table order.
type Reference struct {
	Tag        string
	Name       string
	Attachment gen.Attachment
}

// PageInput carries everything needed to build one page generation prompt.
type PageInput struct {
	GlobalContext string
	Page          story.Page
	Phase         int
	TwoPhase      bool
	Color         bool
	AspectRatio   string
	// References are entity reference images, in tag order.
	References []Reference
	// Continuity is the previous page's final artwork, when available.
	Continuity *gen.Attachment
	// BaseArt is this page's approved phase 1 artwork, during phase 2.
	BaseArt *gen.Attachment
	// BasePrompt is the stored phase 1 prompt, echoed during phase 2 so
	// the letterer knows what the art pass was asked to draw.
	BasePrompt string
	// Correction is the feedback block synthesized from the last failure.
	Correction string
}

// BuildPage assembles the generation prompt and its ordered attachments
// for a page phase.
func BuildPage(in PageInput) (string, []gen.Attachment) {
	var b strings.Builder
	var attachments []gen.Attachment

	b.WriteString(pageInstructions(in))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Aspect ratio: %s. The output must be exactly one page image.\n", in.AspectRatio)

	if in.GlobalContext != "" {
		b.WriteString("\n## Story context\n\n")
		b.WriteString(in.GlobalContext)
		b.WriteString("\n")
	}

	b.WriteString("\n## Current page\n\n")
	b.WriteString(in.Page.Header)
	b.WriteString("\n\n")
	b.WriteString(in.Page.Content)
	b.WriteString("\n")

	if len(in.References) > 0 || in.Continuity != nil || in.BaseArt != nil {
		b.WriteString("\n## Attached images\n\n")
	}

	for _, ref := range in.References {
		fmt.Fprintf(&b, "- [%s] %s: match this reference exactly\n", ref.Tag, ref.Name)
		attachments = append(attachments, ref.Attachment)
	}

	if in.Continuity != nil {
		b.WriteString("- [PREV] final artwork of the previous page: match its style, palette, and character appearance\n")
		attachments = append(attachments, *in.Continuity)
	}

	if in.BaseArt != nil {
		b.WriteString("- [BASE] approved art pass for THIS page: letter on top of it without altering the art\n")
		attachments = append(attachments, *in.BaseArt)
	}

	if in.BasePrompt != "" {
		b.WriteString("\n## Art pass directive\n\nThe base artwork was generated from the following directive:\n\n")
		b.WriteString(in.BasePrompt)
		b.WriteString("\n")
	}

	if checklist := DialogueChecklist(in.Page.Content); len(checklist) > 0 && letteringPhase(in) {
		b.WriteString("\n## Dialogue checklist\n\nEvery line below must appear in a speech bubble, verbatim and in order:\n\n")
		for i, line := range checklist {
			fmt.Fprintf(&b, "%d. %q\n", i+1, line)
		}
	}

	if in.Correction != "" {
		b.WriteString("\n## Correction\n\n")
		b.WriteString(in.Correction)
		b.WriteString("\n")
	}

	return b.String(), attachments
}

// ReviewInput carries everything needed to build one review prompt.
type ReviewInput struct {
	GlobalContext string
	Page          story.Page
	Phase         int
	TwoPhase      bool
	// References names the attached reference images, in attachment order
	// after the candidate.
	References []Reference
	// HasContinuity marks that the previous page's artwork is attached
	// last, after the tagged references.
	HasContinuity bool
}

// BuildReview assembles the review prompt. The reviewer receives the
// candidate image first, then the references in tag order.
func BuildReview(in ReviewInput) string {
	rubric := reviewLetteringRubric
	if in.TwoPhase && in.Phase == 1 {
		rubric = reviewNoBubblesRubric
	}

	var b strings.Builder
	fmt.Fprintf(&b, reviewInstructions, rubric)
	b.WriteString("\n\n## Reference table\n\n")

	for i, ref := range in.References {
		fmt.Fprintf(&b, "%d. %s\n", i+2, ref.Name)
	}
	if in.HasContinuity {
		fmt.Fprintf(&b, "%d. final artwork of the previous page\n", len(in.References)+2)
	}

	if in.GlobalContext != "" {
		b.WriteString("\n## Story context\n\n")
		b.WriteString(in.GlobalContext)
		b.WriteString("\n")
	}

	b.WriteString("\n## Page script\n\n")
	b.WriteString(in.Page.Header)
	b.WriteString("\n\n")
	b.WriteString(in.Page.Content)
	b.WriteString("\n")

	if checklist := DialogueChecklist(in.Page.Content); len(checklist) > 0 {
		b.WriteString("\n## Dialogue checklist\n\n")
		for i, line := range checklist {
			fmt.Fprintf(&b, "%d. %q\n", i+1, line)
		}
	}

	return b.String()
}

// BuildReferenceBaseline assembles the prompt for a monochrome entity
// reference sheet.
func BuildReferenceBaseline(name, description string) string {
	var b strings.Builder
	b.WriteString(baselineReferenceInstructions)
	fmt.Fprintf(&b, "\n\n## Subject\n\n%s\n\n%s\n", name, description)
	return b.String()
}

// BuildReferenceColor assembles the prompt for the colorized variant of a
// baseline reference sheet. The baseline image is attached by the caller.
func BuildReferenceColor(name, description string) string {
	var b strings.Builder
	b.WriteString(colorReferenceInstructions)
	fmt.Fprintf(&b, "\n\n## Subject\n\n%s\n\n%s\n", name, description)
	return b.String()
}

func pageInstructions(in PageInput) string {
	var instructions string
	switch {
	case in.TwoPhase && in.Phase == 1:
		instructions = artPhaseInstructions
	case in.TwoPhase && in.Phase == 2:
		instructions = letteringPhaseInstructions
	default:
		instructions = combinedInstructions
	}

	directive := monochromeDirective
	if in.Color {
		directive = colorDirective
	}

	return instructions + "\n\n" + directive
}

// letteringPhase reports whether the prompt must carry the dialogue
// checklist: phase 2 in two-phase mode, or the single combined phase.
func letteringPhase(in PageInput) bool {
	return !in.TwoPhase || in.Phase == 2
}
