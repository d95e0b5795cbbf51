// Package gen defines the external generation and review service contracts
// consumed by the pipeline, plus their Gemini implementation. The pipeline
// depends only on the interfaces so tests substitute in-memory fakes.
package gen

import "context"

// Attachment is a binary image sent alongside a prompt.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Request carries one generation call.
type Request struct {
	Prompt      string
	Attachments []Attachment
	AspectRatio string
}

// Artifact is the binary result of a generation call, with any
// accompanying model commentary.
type Artifact struct {
	MIMEType string
	Data     []byte
	Text     string
}

// Generator synthesizes a single image from a prompt and attachments.
type Generator interface {
	// Generate returns the generated artifact, or ErrNoImage when the
	// model produced no image output.
	Generate(ctx context.Context, req Request) (*Artifact, error)
}

// ReviewRequest carries one quality review call. References follow the
// same order as the tag table rendered into the prompt.
type ReviewRequest struct {
	Prompt     string
	Candidate  Attachment
	References []Attachment
}

// Review is the scored outcome of a quality review. Sub-scores are 0-100,
// Total is 0-400. Pass is the reviewer's own verdict and is advisory only:
// the pipeline recomputes acceptance from its configured thresholds.
// Malformed marks a response that could not be parsed; all scores are zero.
type Review struct {
	Likeness   int
	Continuity int
	Lettering  int
	Story      int
	Total      int
	Reason     string
	Pass       bool
	Malformed  bool
}

// Reviewer scores a candidate artifact against references and story context.
type Reviewer interface {
	Review(ctx context.Context, req ReviewRequest) (*Review, error)
}
