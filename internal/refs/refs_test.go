package refs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/JaimeStill/inkwell/internal/gen"
	"github.com/JaimeStill/inkwell/internal/refs"
	"github.com/JaimeStill/inkwell/internal/story"
	"github.com/JaimeStill/inkwell/pkg/store"
)

type fakeGenerator struct {
	calls []gen.Request
	// errs maps a 1-based call number to a forced error.
	errs map[int]error
}

func (f *fakeGenerator) Generate(_ context.Context, req gen.Request) (*gen.Artifact, error) {
	f.calls = append(f.calls, req)
	if err := f.errs[len(f.calls)]; err != nil {
		return nil, err
	}
	return &gen.Artifact{MIMEType: "image/png", Data: []byte{byte(len(f.calls))}}, nil
}

func newWorkspace(t *testing.T) store.System {
	t.Helper()

	st, err := store.New(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("store.New error: %v", err)
	}
	return st
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const storyDoc = `## Characters

- Captain Mara Voss: weathered pilot

## Page 1

Content.
`

func TestResolveAll(t *testing.T) {
	entity := story.Entity{Name: "Captain Mara Voss", Kind: story.KindCharacter, Description: "weathered pilot"}

	t.Run("resolves the deterministic slug path without generating", func(t *testing.T) {
		st := newWorkspace(t)
		generator := &fakeGenerator{}

		if err := st.WriteBinary("refs/captain-mara-voss.png", []byte{7}); err != nil {
			t.Fatalf("WriteBinary error: %v", err)
		}

		resolver := refs.NewResolver(st, generator, "story.md", true, discard())
		resolved, err := resolver.ResolveAll(context.Background(), []story.Entity{entity})
		if err != nil {
			t.Fatalf("ResolveAll error: %v", err)
		}

		if len(resolved) != 1 || resolved[0].Key != "refs/captain-mara-voss.png" {
			t.Fatalf("resolved = %+v", resolved)
		}
		if len(generator.calls) != 0 {
			t.Errorf("generator called %d times, want 0", len(generator.calls))
		}
	})

	t.Run("embedded link takes precedence", func(t *testing.T) {
		st := newWorkspace(t)
		generator := &fakeGenerator{}

		if err := st.WriteBinary("art/custom-mara.png", []byte{8}); err != nil {
			t.Fatalf("WriteBinary error: %v", err)
		}

		linked := entity
		linked.Description = "weathered pilot ![mara](art/custom-mara.png)"

		resolver := refs.NewResolver(st, generator, "story.md", true, discard())
		resolved, err := resolver.ResolveAll(context.Background(), []story.Entity{linked})
		if err != nil {
			t.Fatalf("ResolveAll error: %v", err)
		}

		if len(resolved) != 1 || resolved[0].Key != "art/custom-mara.png" {
			t.Fatalf("resolved = %+v", resolved)
		}
	})

	t.Run("synthesizes baseline and color variants", func(t *testing.T) {
		st := newWorkspace(t)
		generator := &fakeGenerator{}

		if err := st.WriteText("story.md", storyDoc); err != nil {
			t.Fatalf("WriteText error: %v", err)
		}

		resolver := refs.NewResolver(st, generator, "story.md", true, discard())
		resolved, err := resolver.ResolveAll(context.Background(), []story.Entity{entity})
		if err != nil {
			t.Fatalf("ResolveAll error: %v", err)
		}

		if len(generator.calls) != 2 {
			t.Fatalf("generator called %d times, want 2", len(generator.calls))
		}
		if generator.calls[0].AspectRatio != "1:1" {
			t.Errorf("baseline aspect = %q, want 1:1", generator.calls[0].AspectRatio)
		}
		if len(generator.calls[1].Attachments) != 1 {
			t.Error("colorize call missing baseline attachment")
		}

		if !st.Exists("refs/captain-mara-voss-base.png") {
			t.Error("baseline variant not written")
		}
		if !st.Exists("refs/captain-mara-voss.png") {
			t.Error("color variant not written")
		}
		if len(resolved) != 1 || resolved[0].Key != "refs/captain-mara-voss.png" {
			t.Fatalf("resolved = %+v", resolved)
		}

		text, err := st.ReadText("story.md")
		if err != nil {
			t.Fatalf("ReadText error: %v", err)
		}
		if !strings.Contains(text, "![captain-mara-voss](refs/captain-mara-voss.png)") {
			t.Errorf("definition line not rewritten:\n%s", text)
		}

		// A second pass resolves from disk and leaves the document alone.
		resolver = refs.NewResolver(st, generator, "story.md", true, discard())
		if _, err := resolver.ResolveAll(context.Background(), []story.Entity{entity}); err != nil {
			t.Fatalf("second ResolveAll error: %v", err)
		}
		if len(generator.calls) != 2 {
			t.Errorf("generator called again on second run: %d calls", len(generator.calls))
		}

		again, _ := st.ReadText("story.md")
		if strings.Count(again, "![captain-mara-voss]") != 1 {
			t.Errorf("link rewrite not idempotent:\n%s", again)
		}
	})

	t.Run("colorize failure falls back to the baseline", func(t *testing.T) {
		st := newWorkspace(t)
		generator := &fakeGenerator{errs: map[int]error{2: errors.New("transient")}}

		if err := st.WriteText("story.md", storyDoc); err != nil {
			t.Fatalf("WriteText error: %v", err)
		}

		resolver := refs.NewResolver(st, generator, "story.md", true, discard())
		resolved, err := resolver.ResolveAll(context.Background(), []story.Entity{entity})
		if err != nil {
			t.Fatalf("ResolveAll error: %v", err)
		}

		if len(resolved) != 1 || resolved[0].Key != "refs/captain-mara-voss-base.png" {
			t.Fatalf("resolved = %+v, want baseline fallback", resolved)
		}
	})

	t.Run("disabled auto-generation omits unresolved entities", func(t *testing.T) {
		st := newWorkspace(t)
		generator := &fakeGenerator{}

		resolver := refs.NewResolver(st, generator, "story.md", false, discard())
		resolved, err := resolver.ResolveAll(context.Background(), []story.Entity{entity})
		if err != nil {
			t.Fatalf("ResolveAll error: %v", err)
		}

		if len(resolved) != 0 {
			t.Errorf("resolved = %+v, want none", resolved)
		}
		if len(generator.calls) != 0 {
			t.Errorf("generator called %d times, want 0", len(generator.calls))
		}
	})

	t.Run("fatal generation errors abort resolution", func(t *testing.T) {
		st := newWorkspace(t)
		generator := &fakeGenerator{errs: map[int]error{1: gen.ErrQuotaExceeded}}

		resolver := refs.NewResolver(st, generator, "story.md", true, discard())
		_, err := resolver.ResolveAll(context.Background(), []story.Entity{entity})
		if !errors.Is(err, gen.ErrQuotaExceeded) {
			t.Errorf("error = %v, want ErrQuotaExceeded", err)
		}
	})
}
