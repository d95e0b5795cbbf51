// Package pipeline drives quality-gated page generation: for every page of
// a parsed story it generates candidate artwork, submits it for scored
// review, retries with corrective feedback on rejection, and records each
// transition in the durable page ledger so an interrupted run resumes
// exactly where it stopped.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/inkwell/internal/album"
	"github.com/JaimeStill/inkwell/internal/config"
	"github.com/JaimeStill/inkwell/internal/gen"
	"github.com/JaimeStill/inkwell/internal/prompts"
	"github.com/JaimeStill/inkwell/internal/refs"
	"github.com/JaimeStill/inkwell/internal/story"
	"github.com/JaimeStill/inkwell/pkg/formatting"
	"github.com/JaimeStill/inkwell/pkg/store"
)

// AlbumKey is the workspace key of the exported page album.
const AlbumKey = "album.pdf"

// Run executes the pipeline against the story document at storyKey. The
// returned result always lists the artifacts produced or confirmed before
// any terminating failure.
func Run(ctx context.Context, rt *Runtime, storyKey string) *Result {
	logger := rt.Logger.With("system", "pipeline", "run", uuid.NewString())

	source, err := rt.Store.ReadBinary(storyKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = fmt.Errorf("%w: %s", ErrStoryNotFound, storyKey)
		}
		return abort(nil, err)
	}

	st, err := story.Parse(source)
	if err != nil {
		return abort(nil, fmt.Errorf("parse story: %w", err))
	}

	logger.Info("story parsed",
		"key", storyKey,
		"pages", len(st.Pages),
		"entities", len(st.Entities),
	)

	resolver := refs.NewResolver(rt.Store, rt.Generator, storyKey, !rt.Config.Pipeline.NoAutoRefs, rt.Logger)
	resolved, err := resolver.ResolveAll(ctx, st.Entities)
	if err != nil {
		return abort(nil, fmt.Errorf("resolve references: %w", err))
	}

	r := &run{rt: rt, logger: logger, story: st}
	r.tagReferences(resolved)

	return r.execute(ctx)
}

// run is the mutable state of one pipeline execution.
type run struct {
	rt     *Runtime
	logger *slog.Logger
	story  *story.Story

	references []prompts.Reference
	files      []string
	keys       []string
}

// tagReferences assigns stable prompt tags (REF1, REF2, ...) in resolution
// order so generation and review prompts name the same attachments.
func (r *run) tagReferences(resolved []*refs.Reference) {
	for i, ref := range resolved {
		r.references = append(r.references, prompts.Reference{
			Tag:        fmt.Sprintf("REF%d", i+1),
			Name:       ref.Name,
			Attachment: ref.Attachment(),
		})
	}
}

func (r *run) execute(ctx context.Context) *Result {
	cfg := &r.rt.Config.Pipeline
	var continuity *gen.Attachment

	for _, page := range r.story.Pages {
		if err := ctx.Err(); err != nil {
			return abort(r, err)
		}

		logger := r.logger.With("page", page.Title)

		if !cfg.Selected(page.Number) {
			// A skipped page still feeds continuity into its successor
			// when a completed artifact exists from an earlier run.
			continuity = r.storedFinal(page)
			logger.Debug("page not selected, skipping")
			continue
		}

		if art := r.completedFinal(page); art != nil {
			logger.Info("page already complete, skipping", "artifact", finalKey(page))
			r.record(page)
			continuity = art
			continue
		}

		art, err := r.runPage(ctx, logger, page, continuity)
		if err != nil {
			return abort(r, err)
		}

		r.record(page)
		r.archive(ctx, logger, finalKey(page), art)
		continuity = art
	}

	result := &Result{
		Success:        true,
		Message:        fmt.Sprintf("completed %d of %d pages", len(r.files), len(r.story.Pages)),
		GeneratedFiles: r.files,
	}

	r.exportAlbum(ctx, result)
	return result
}

// runPage drives one page through its phases, starting from the first
// phase not yet passed. Returns the final artifact for continuity.
func (r *run) runPage(ctx context.Context, logger *slog.Logger, page story.Page, continuity *gen.Attachment) (*gen.Attachment, error) {
	cfg := &r.rt.Config.Pipeline
	finalPhase := cfg.FinalPhase()

	startPhase := 1
	var baseArt *gen.Attachment
	var basePrompt string

	if cfg.TwoPhase {
		if entry := r.rt.Memory.Entry(page.Title); entry != nil && entry.Phase1.Passed {
			baseArt = r.loadAttachment(entry.Phase1.ArtifactKey)
			if baseArt != nil {
				startPhase = 2
				basePrompt, _ = r.rt.Store.ReadText(entry.Phase1.PromptRef)
				logger.Info("resuming from approved art pass", "artifact", entry.Phase1.ArtifactKey)
			} else {
				logger.Warn("approved art pass missing from disk, regenerating", "artifact", entry.Phase1.ArtifactKey)
			}
		}
	}

	var final *gen.Attachment
	for phase := startPhase; phase <= finalPhase; phase++ {
		artifact, promptText, err := r.executePhase(ctx, logger, phaseInput{
			page:       page,
			phase:      phase,
			continuity: continuity,
			baseArt:    baseArt,
			basePrompt: basePrompt,
		})
		if err != nil {
			return nil, err
		}

		att := &gen.Attachment{MIMEType: artifactMIME(artifact), Data: artifact.Data}
		if cfg.TwoPhase && phase == 1 {
			baseArt = att
			basePrompt = promptText
		}
		final = att
	}

	return final, nil
}

// phaseInput carries the per-phase generation context.
type phaseInput struct {
	page       story.Page
	phase      int
	continuity *gen.Attachment
	baseArt    *gen.Attachment
	basePrompt string
}

// executePhase runs the generate-review-retry loop for one page phase.
// Acceptance is conjunctive over the configured thresholds; every failed
// attempt feeds a corrective block into the next prompt. The retry budget
// is per phase, and exhausting it aborts the run.
func (r *run) executePhase(ctx context.Context, logger *slog.Logger, in phaseInput) (*gen.Artifact, string, error) {
	cfg := r.rt.Config
	logger = logger.With("phase", in.phase)

	candidateKey := finalKey(in.page)
	if cfg.Pipeline.TwoPhase && in.phase == 1 {
		candidateKey = lineartKey(in.page)
	}

	var correction string
	lastReason := "no attempts made"

	for attempt := 1; attempt <= cfg.Pipeline.RetryCount; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		promptText, attachments := prompts.BuildPage(prompts.PageInput{
			GlobalContext: r.story.GlobalContext,
			Page:          in.page,
			Phase:         in.phase,
			TwoPhase:      cfg.Pipeline.TwoPhase,
			Color:         cfg.Pipeline.Color,
			AspectRatio:   cfg.Pipeline.AspectRatio(),
			References:    r.references,
			Continuity:    in.continuity,
			BaseArt:       in.baseArt,
			BasePrompt:    in.basePrompt,
			Correction:    correction,
		})

		promptRef := promptKey(in.page, in.phase, attempt)
		if err := r.rt.Store.WriteText(promptRef, promptText); err != nil {
			logger.Warn("prompt audit write failed", "key", promptRef, "error", err)
		}

		logger.Info("generating", "attempt", attempt, "prompt", promptRef)

		artifact, err := r.rt.Generator.Generate(ctx, gen.Request{
			Prompt:      promptText,
			Attachments: attachments,
			AspectRatio: cfg.Pipeline.AspectRatio(),
		})
		if err != nil {
			if gen.Fatal(err) || ctx.Err() != nil {
				return nil, "", err
			}

			lastReason = fmt.Sprintf("generation failed: %v", err)
			if recErr := r.rt.Memory.RecordFailure(in.page.Title, in.phase, lastReason, ""); recErr != nil {
				return nil, "", recErr
			}
			correction = prompts.Correction(lastReason)
			logger.Warn("generation failed", "attempt", attempt, "error", err)
			continue
		}

		if size := int64(len(artifact.Data)); size > cfg.Pipeline.MaxArtifactBytes() {
			lastReason = fmt.Sprintf(
				"generated artifact is %s, exceeding the %s cap",
				formatting.FormatBytes(size, 1), cfg.Pipeline.MaxArtifactSize,
			)
			if recErr := r.rt.Memory.RecordFailure(in.page.Title, in.phase, lastReason, ""); recErr != nil {
				return nil, "", recErr
			}
			correction = prompts.Correction(lastReason)
			logger.Warn("artifact exceeds size cap", "attempt", attempt, "size", size)
			continue
		}

		if err := r.rt.Store.WriteBinary(candidateKey, artifact.Data); err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrArtifactSave, err)
		}

		review, err := r.review(ctx, in, artifact)
		if err != nil {
			if gen.Fatal(err) || ctx.Err() != nil {
				return nil, "", err
			}

			lastReason = fmt.Sprintf("review failed: %v", err)
			failedKey := ""
			r.discard(logger, in, candidateKey, attempt, &failedKey)
			if recErr := r.rt.Memory.RecordFailure(in.page.Title, in.phase, lastReason, failedKey); recErr != nil {
				return nil, "", recErr
			}
			correction = prompts.Correction(lastReason)
			logger.Warn("review failed", "attempt", attempt, "error", err)
			continue
		}

		passed := accept(&cfg.Review, review)
		if review.Malformed {
			// An unparseable verdict never consumes the retry budget on
			// its own merits: the candidate is accepted with zero scores
			// and the incident is left in the audit log.
			passed = true
			logger.Warn("review response unparseable, accepting by default",
				"attempt", attempt,
				"artifact", candidateKey,
			)
			if recErr := r.rt.Memory.RecordFailure(in.page.Title, in.phase, review.Reason+"; accepted by default", candidateKey); recErr != nil {
				return nil, "", recErr
			}
		}

		logger.Info("reviewed",
			"attempt", attempt,
			"pass", passed,
			"likeness", review.Likeness,
			"continuity", review.Continuity,
			"lettering", review.Lettering,
			"story", review.Story,
			"total", review.Total,
		)

		if passed {
			if err := r.rt.Memory.RecordPass(in.page.Title, in.phase, candidateKey, promptRef); err != nil {
				return nil, "", err
			}
			r.retireLineart(logger, in)
			return artifact, promptText, nil
		}

		lastReason = review.Reason
		if lastReason == "" {
			lastReason = "scores below acceptance thresholds"
		}

		failedKey := ""
		r.discard(logger, in, candidateKey, attempt, &failedKey)
		if recErr := r.rt.Memory.RecordFailure(in.page.Title, in.phase, lastReason, failedKey); recErr != nil {
			return nil, "", recErr
		}
		correction = prompts.Correction(lastReason)
	}

	return nil, "", fmt.Errorf(
		"%w: page %q phase %d after %d attempts: %s",
		ErrRetriesExhausted, in.page.Title, in.phase, cfg.Pipeline.RetryCount, lastReason,
	)
}

func (r *run) review(ctx context.Context, in phaseInput, artifact *gen.Artifact) (*gen.Review, error) {
	reviewPrompt := prompts.BuildReview(prompts.ReviewInput{
		GlobalContext: r.story.GlobalContext,
		Page:          in.page,
		Phase:         in.phase,
		TwoPhase:      r.rt.Config.Pipeline.TwoPhase,
		References:    r.references,
		HasContinuity: in.continuity != nil,
	})

	referenceImages := make([]gen.Attachment, 0, len(r.references)+1)
	for _, ref := range r.references {
		referenceImages = append(referenceImages, ref.Attachment)
	}
	if in.continuity != nil {
		referenceImages = append(referenceImages, *in.continuity)
	}

	return r.rt.Reviewer.Review(ctx, gen.ReviewRequest{
		Prompt:     reviewPrompt,
		Candidate:  gen.Attachment{MIMEType: artifactMIME(artifact), Data: artifact.Data},
		References: referenceImages,
	})
}

// discard disposes of a rejected candidate. Lettering rejections in
// two-phase mode are preserved under a rejected key for diagnosis; every
// other rejection is deleted so no unapproved artifact survives under a
// final key. When failedKey is non-nil it receives the preserved key.
func (r *run) discard(logger *slog.Logger, in phaseInput, candidateKey string, attempt int, failedKey *string) {
	if r.rt.Config.Pipeline.TwoPhase && in.phase == 2 {
		preserved := rejectedKey(in.page, in.phase, attempt)
		if err := r.rt.Store.Rename(candidateKey, preserved); err != nil {
			logger.Warn("failed to preserve rejected artifact", "key", candidateKey, "error", err)
			return
		}
		if failedKey != nil {
			*failedKey = preserved
		}
		return
	}

	if err := r.rt.Store.Delete(candidateKey); err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.Warn("failed to delete rejected artifact", "key", candidateKey, "error", err)
	}
}

// retireLineart removes the intermediate art pass once the lettered page
// has passed; the final artifact supersedes it.
func (r *run) retireLineart(logger *slog.Logger, in phaseInput) {
	if !r.rt.Config.Pipeline.TwoPhase || in.phase != 2 {
		return
	}

	key := lineartKey(in.page)
	if err := r.rt.Store.Delete(key); err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.Warn("failed to retire art pass artifact", "key", key, "error", err)
	}
}

// accept applies conjunctive gating: the total and every sub-score must
// clear their configured thresholds. The reviewer's own verdict is advisory.
func accept(cfg *config.ReviewConfig, review *gen.Review) bool {
	return review.Total >= cfg.MinTotal &&
		review.Likeness >= cfg.MinLikeness &&
		review.Continuity >= cfg.MinContinuity &&
		review.Lettering >= cfg.MinLettering &&
		review.Story >= cfg.MinStory
}

// completedFinal returns the final artifact of a page whose terminal phase
// already passed, or nil when the page still needs work. A passed ledger
// entry whose artifact vanished from disk forces regeneration.
func (r *run) completedFinal(page story.Page) *gen.Attachment {
	entry := r.rt.Memory.Entry(page.Title)
	if entry == nil {
		return nil
	}

	status := entry.Phase(r.rt.Config.Pipeline.FinalPhase())
	if !status.Passed {
		return nil
	}

	att := r.loadAttachment(status.ArtifactKey)
	if att == nil {
		r.logger.Warn("completed artifact missing from disk, regenerating",
			"page", page.Title,
			"artifact", status.ArtifactKey,
		)
	}
	return att
}

// storedFinal is completedFinal without the regeneration warning, used for
// pages outside the selection whose artifacts only matter for continuity.
func (r *run) storedFinal(page story.Page) *gen.Attachment {
	entry := r.rt.Memory.Entry(page.Title)
	if entry == nil {
		return nil
	}

	status := entry.Phase(r.rt.Config.Pipeline.FinalPhase())
	if !status.Passed {
		return nil
	}
	return r.loadAttachment(status.ArtifactKey)
}

func (r *run) loadAttachment(key string) *gen.Attachment {
	if key == "" {
		return nil
	}

	data, err := r.rt.Store.ReadBinary(key)
	if err != nil {
		return nil
	}
	return &gen.Attachment{MIMEType: "image/png", Data: data}
}

func (r *run) record(page story.Page) {
	key := finalKey(page)
	r.keys = append(r.keys, key)
	r.files = append(r.files, r.rt.Store.Path(key))
}

func (r *run) archive(ctx context.Context, logger *slog.Logger, key string, art *gen.Attachment) {
	if r.rt.Archive == nil || art == nil {
		return
	}

	if err := r.rt.Archive.Upload(ctx, key, art.Data, art.MIMEType); err != nil {
		logger.Warn("archive upload failed", "key", key, "error", err)
		return
	}
	logger.Info("artifact archived", "key", key)
}

// exportAlbum binds the run's pages into a single PDF after a fully
// successful run. Export failure degrades the run report without failing it.
func (r *run) exportAlbum(ctx context.Context, result *Result) {
	if !r.rt.Config.Pipeline.Album || len(r.keys) == 0 {
		return
	}

	if err := album.Export(r.rt.Store, r.keys, AlbumKey, r.logger); err != nil {
		r.logger.Warn("album export failed", "error", err)
		return
	}

	result.GeneratedFiles = append(result.GeneratedFiles, r.rt.Store.Path(AlbumKey))
	result.Message += fmt.Sprintf("; album exported to %s", AlbumKey)

	if r.rt.Archive != nil {
		data, err := r.rt.Store.ReadBinary(AlbumKey)
		if err != nil {
			r.logger.Warn("album archive read failed", "error", err)
			return
		}
		if err := r.rt.Archive.Upload(ctx, AlbumKey, data, "application/pdf"); err != nil {
			r.logger.Warn("album archive upload failed", "error", err)
		}
	}
}

func artifactMIME(artifact *gen.Artifact) string {
	if artifact.MIMEType != "" {
		return artifact.MIMEType
	}
	return "image/png"
}

func abort(r *run, err error) *Result {
	result := &Result{
		Message: err.Error(),
		Err:     err,
	}
	if r != nil {
		result.Message = fmt.Sprintf("completed %d of %d pages: %v", len(r.files), len(r.story.Pages), err)
		result.GeneratedFiles = r.files
	}
	return result
}
