// Package refs resolves named story entities to reference images in the
// workspace, synthesizing missing references when auto-generation is
// enabled. Loaded images are cached per run keyed by workspace key so a
// reference used on every page is read once.
package refs

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/inkwell/internal/gen"
	"github.com/JaimeStill/inkwell/internal/prompts"
	"github.com/JaimeStill/inkwell/internal/story"
	"github.com/JaimeStill/inkwell/pkg/formatting"
	"github.com/JaimeStill/inkwell/pkg/store"
)

const referenceMIME = "image/png"

// Reference is a resolved entity reference image.
type Reference struct {
	Name     string
	Key      string
	MIMEType string
	Data     []byte
}

// Attachment converts the reference for a generation or review call.
func (r *Reference) Attachment() gen.Attachment {
	return gen.Attachment{MIMEType: r.MIMEType, Data: r.Data}
}

// embeddedLinkRe matches a markdown image link inside an entity description.
var embeddedLinkRe = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)\)`)

// Resolver resolves entities against the workspace and the generation
// service. It owns the run's reference cache; nothing here is global.
type Resolver struct {
	store     store.System
	generator gen.Generator
	logger    *slog.Logger
	cache     *Cache
	auto      bool
	storyKey  string
}

// NewResolver creates a resolver for one run. storyKey is the source
// document key used for idempotent link rewriting after auto-generation;
// auto enables reference synthesis for unresolved entities.
func NewResolver(st store.System, generator gen.Generator, storyKey string, auto bool, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:     st,
		generator: generator,
		logger:    logger.With("system", "refs"),
		cache:     NewCache(),
		auto:      auto,
		storyKey:  storyKey,
	}
}

// ResolveAll resolves every entity, loading pre-existing reference images
// in parallel (read-only) and synthesizing missing ones sequentially.
// Resolution failures are logged and skipped: a missing reference degrades
// output consistency but never blocks the run. Only fatal generation
// errors (authentication, quota) propagate.
func (r *Resolver) ResolveAll(ctx context.Context, entities []story.Entity) ([]*Reference, error) {
	keys := make([]string, len(entities))

	g, gctx := errgroup.WithContext(ctx)
	for i, entity := range entities {
		key, ok := r.existingKey(entity)
		if !ok {
			continue
		}
		keys[i] = key

		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if _, err := r.load(key, entity.Name); err != nil {
				r.logger.Warn("reference load failed", "entity", entity.Name, "key", key, "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load references: %w", err)
	}

	var resolved []*Reference
	for i, entity := range entities {
		if keys[i] != "" {
			ref, err := r.load(keys[i], entity.Name)
			if err != nil {
				r.logger.Warn("reference unresolved", "entity", entity.Name, "error", err)
				continue
			}
			resolved = append(resolved, ref)
			continue
		}

		ref, err := r.synthesize(ctx, entity)
		if err != nil {
			if gen.Fatal(err) {
				return nil, err
			}
			r.logger.Warn("reference unresolved", "entity", entity.Name, "error", err)
			continue
		}
		if ref == nil {
			r.logger.Info("reference omitted", "entity", entity.Name)
			continue
		}
		resolved = append(resolved, ref)
	}

	return resolved, nil
}

// existingKey returns the workspace key of an already-present reference:
// an embedded image link in the description, or the deterministic
// slug-based artifact path.
func (r *Resolver) existingKey(entity story.Entity) (string, bool) {
	if m := embeddedLinkRe.FindStringSubmatch(entity.Description); m != nil {
		if r.store.Exists(m[1]) {
			return m[1], true
		}
	}

	key := colorKey(entity.Name)
	if r.store.Exists(key) {
		return key, true
	}

	return "", false
}

// synthesize generates the monochrome baseline and its colorized variant
// for an unresolved entity. Both variants are always produced so later
// runs stay consistent regardless of which one they need. Returns nil
// when auto-generation is disabled.
func (r *Resolver) synthesize(ctx context.Context, entity story.Entity) (*Reference, error) {
	if !r.auto {
		return nil, nil
	}

	baseline, err := r.generator.Generate(ctx, gen.Request{
		Prompt:      prompts.BuildReferenceBaseline(entity.Name, entity.Description),
		AspectRatio: "1:1",
	})
	if err != nil {
		return nil, fmt.Errorf("baseline reference for %s: %w", entity.Name, err)
	}

	baseKey := baselineKey(entity.Name)
	if err := r.store.WriteBinary(baseKey, baseline.Data); err != nil {
		return nil, fmt.Errorf("save baseline reference: %w", err)
	}

	r.logger.Info("baseline reference generated", "entity", entity.Name, "key", baseKey)

	colored, err := r.generator.Generate(ctx, gen.Request{
		Prompt:      prompts.BuildReferenceColor(entity.Name, entity.Description),
		Attachments: []gen.Attachment{{MIMEType: baseline.MIMEType, Data: baseline.Data}},
		AspectRatio: "1:1",
	})
	if err != nil {
		if gen.Fatal(err) {
			return nil, err
		}
		// The baseline alone still anchors likeness.
		r.logger.Warn("colorized reference failed, using baseline", "entity", entity.Name, "error", err)
		return r.finish(entity, baseKey)
	}

	key := colorKey(entity.Name)
	if err := r.store.WriteBinary(key, colored.Data); err != nil {
		return nil, fmt.Errorf("save colorized reference: %w", err)
	}

	r.logger.Info("colorized reference generated", "entity", entity.Name, "key", key)
	return r.finish(entity, key)
}

func (r *Resolver) finish(entity story.Entity, key string) (*Reference, error) {
	if err := r.rewriteLink(entity, key); err != nil {
		r.logger.Warn("source link rewrite failed", "entity", entity.Name, "error", err)
	}
	return r.load(key, entity.Name)
}

func (r *Resolver) load(key, name string) (*Reference, error) {
	if ref, ok := r.cache.Get(key); ok {
		return ref, nil
	}

	data, err := r.store.ReadBinary(key)
	if err != nil {
		return nil, err
	}

	ref := &Reference{
		Name:     name,
		Key:      key,
		MIMEType: referenceMIME,
		Data:     data,
	}
	r.cache.Put(ref)

	r.logger.Info(
		"reference loaded",
		"entity", name,
		"key", key,
		"size", formatting.FormatBytes(int64(len(data)), 1),
	)
	return ref, nil
}

func colorKey(name string) string {
	return fmt.Sprintf("refs/%s.png", formatting.Slug(name))
}

func baselineKey(name string) string {
	return fmt.Sprintf("refs/%s-base.png", formatting.Slug(name))
}
