package pipeline

import (
	"fmt"

	"github.com/JaimeStill/inkwell/internal/memory"
	"github.com/JaimeStill/inkwell/internal/story"
	"github.com/JaimeStill/inkwell/pkg/formatting"
)

// Artifact key layout within the workspace:
//
//	pages/<slug>.png                      final page artwork
//	pages/<slug>.lineart.png              approved phase 1 art pass
//	pages/<slug>.rejected-p<P>-a<A>.png   preserved rejected lettering attempt
//	.inkwell/prompts/<slug>-p<P>-a<A>.txt exact prompt sent for an attempt

func finalKey(page story.Page) string {
	return fmt.Sprintf("pages/%s.png", formatting.Slug(page.Title))
}

func lineartKey(page story.Page) string {
	return fmt.Sprintf("pages/%s.lineart.png", formatting.Slug(page.Title))
}

func rejectedKey(page story.Page, phase, attempt int) string {
	return fmt.Sprintf("pages/%s.rejected-p%d-a%d.png", formatting.Slug(page.Title), phase, attempt)
}

func promptKey(page story.Page, phase, attempt int) string {
	return fmt.Sprintf("%s/%s-p%d-a%d.txt", memory.PromptDirKey, formatting.Slug(page.Title), phase, attempt)
}
