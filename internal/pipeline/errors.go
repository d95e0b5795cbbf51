package pipeline

import "errors"

var (
	ErrRetriesExhausted = errors.New("retry budget exhausted")
	ErrArtifactSave     = errors.New("failed to save artifact")
	ErrStoryNotFound    = errors.New("story document not found")
)
