package prompts_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/inkwell/internal/gen"
	"github.com/JaimeStill/inkwell/internal/prompts"
	"github.com/JaimeStill/inkwell/internal/story"
)

var testPage = story.Page{
	Header:  "## Page 1: The Landing",
	Title:   "Page 1: The Landing",
	Content: "Mara guides the shuttle down.\n\n\"Easy now,\" she whispers.\n\n\"Almost there.\"",
	Number:  1,
}

func refImage(name string) prompts.Reference {
	return prompts.Reference{
		Tag:        "REF1",
		Name:       name,
		Attachment: gen.Attachment{MIMEType: "image/png", Data: []byte{1}},
	}
}

func TestBuildPage(t *testing.T) {
	t.Run("single phase carries the dialogue checklist", func(t *testing.T) {
		prompt, _ := prompts.BuildPage(prompts.PageInput{
			Page:        testPage,
			Phase:       1,
			AspectRatio: "2:3",
		})

		if !strings.Contains(prompt, "Dialogue checklist") {
			t.Error("checklist section missing")
		}
		if !strings.Contains(prompt, `"Easy now,"`) {
			t.Errorf("checklist line missing:\n%s", prompt)
		}
		if !strings.Contains(prompt, "2:3") {
			t.Error("aspect ratio directive missing")
		}
	})

	t.Run("art phase forbids lettering and drops the checklist", func(t *testing.T) {
		prompt, _ := prompts.BuildPage(prompts.PageInput{
			Page:        testPage,
			Phase:       1,
			TwoPhase:    true,
			AspectRatio: "2:3",
		})

		if strings.Contains(prompt, "Dialogue checklist") {
			t.Error("art phase must not carry the checklist")
		}
		if !strings.Contains(strings.ToLower(prompt), "not draw round speech bubbles") {
			t.Errorf("art phase missing bubble prohibition:\n%s", prompt)
		}
	})

	t.Run("lettering phase attaches base art and echoes its directive", func(t *testing.T) {
		base := &gen.Attachment{MIMEType: "image/png", Data: []byte{2}}
		prompt, attachments := prompts.BuildPage(prompts.PageInput{
			Page:        testPage,
			Phase:       2,
			TwoPhase:    true,
			AspectRatio: "2:3",
			BaseArt:     base,
			BasePrompt:  "draw the shuttle descending",
		})

		if !strings.Contains(prompt, "[BASE]") {
			t.Error("base art tag missing")
		}
		if !strings.Contains(prompt, "draw the shuttle descending") {
			t.Error("art pass directive not echoed")
		}
		if !strings.Contains(prompt, "Dialogue checklist") {
			t.Error("lettering phase must carry the checklist")
		}
		if len(attachments) != 1 || attachments[0].Data[0] != 2 {
			t.Errorf("attachments = %+v, want base art only", attachments)
		}
	})

	t.Run("attachment order matches the tag table", func(t *testing.T) {
		continuity := &gen.Attachment{MIMEType: "image/png", Data: []byte{9}}
		prompt, attachments := prompts.BuildPage(prompts.PageInput{
			Page:        testPage,
			Phase:       1,
			AspectRatio: "2:3",
			References:  []prompts.Reference{refImage("Captain Mara Voss")},
			Continuity:  continuity,
		})

		if !strings.Contains(prompt, "[REF1] Captain Mara Voss") {
			t.Error("reference tag line missing")
		}
		if !strings.Contains(prompt, "[PREV]") {
			t.Error("continuity tag line missing")
		}
		if len(attachments) != 2 {
			t.Fatalf("attachments = %d, want 2", len(attachments))
		}
		if attachments[0].Data[0] != 1 || attachments[1].Data[0] != 9 {
			t.Error("attachment order does not match tag table")
		}
	})

	t.Run("correction block appears only after a failure", func(t *testing.T) {
		clean, _ := prompts.BuildPage(prompts.PageInput{Page: testPage, Phase: 1, AspectRatio: "2:3"})
		if strings.Contains(clean, "## Correction") {
			t.Error("correction section on first attempt")
		}

		retry, _ := prompts.BuildPage(prompts.PageInput{
			Page:        testPage,
			Phase:       1,
			AspectRatio: "2:3",
			Correction:  prompts.Correction("hairstyle does not match reference"),
		})
		if !strings.Contains(retry, "## Correction") {
			t.Error("correction section missing on retry")
		}
		if !strings.Contains(retry, "hairstyle does not match reference") {
			t.Error("failure reason missing from correction")
		}
	})

	t.Run("color directive follows configuration", func(t *testing.T) {
		mono, _ := prompts.BuildPage(prompts.PageInput{Page: testPage, Phase: 1, AspectRatio: "2:3"})
		color, _ := prompts.BuildPage(prompts.PageInput{Page: testPage, Phase: 1, Color: true, AspectRatio: "2:3"})

		if !strings.Contains(strings.ToLower(mono), "black and white") {
			t.Error("monochrome directive missing")
		}
		if !strings.Contains(strings.ToLower(color), "full color") {
			t.Error("color directive missing")
		}
	})
}

func TestBuildReview(t *testing.T) {
	t.Run("numbers references after the candidate", func(t *testing.T) {
		prompt := prompts.BuildReview(prompts.ReviewInput{
			Page:          testPage,
			Phase:         1,
			References:    []prompts.Reference{refImage("Captain Mara Voss")},
			HasContinuity: true,
		})

		if !strings.Contains(prompt, "2. Captain Mara Voss") {
			t.Errorf("reference numbering wrong:\n%s", prompt)
		}
		if !strings.Contains(prompt, "3. final artwork of the previous page") {
			t.Errorf("continuity entry wrong:\n%s", prompt)
		}
	})

	t.Run("art phase reviews bubble absence", func(t *testing.T) {
		artReview := prompts.BuildReview(prompts.ReviewInput{Page: testPage, Phase: 1, TwoPhase: true})
		finalReview := prompts.BuildReview(prompts.ReviewInput{Page: testPage, Phase: 2, TwoPhase: true})

		if artReview == finalReview {
			t.Error("phase 1 and phase 2 rubrics must differ")
		}
		if !strings.Contains(strings.ToLower(artReview), "no round speech bubbles") {
			t.Errorf("art rubric missing bubble check:\n%s", artReview)
		}
	})

	t.Run("review always carries the checklist", func(t *testing.T) {
		prompt := prompts.BuildReview(prompts.ReviewInput{Page: testPage, Phase: 1, TwoPhase: true})
		if !strings.Contains(prompt, `"Almost there."`) {
			t.Errorf("checklist missing:\n%s", prompt)
		}
	})
}

func TestDialogueChecklist(t *testing.T) {
	t.Run("extracts quoted lines in order", func(t *testing.T) {
		got := prompts.DialogueChecklist(testPage.Content)
		want := []string{"Easy now,", "Almost there."}

		if len(got) != len(want) {
			t.Fatalf("checklist = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("checklist[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("curly quotes are recognized", func(t *testing.T) {
		got := prompts.DialogueChecklist("She said “hold the line” and ran.")
		if len(got) != 1 || got[0] != "hold the line" {
			t.Errorf("checklist = %v", got)
		}
	})

	t.Run("no dialogue yields empty checklist", func(t *testing.T) {
		if got := prompts.DialogueChecklist("A silent panel of rain."); len(got) != 0 {
			t.Errorf("checklist = %v, want empty", got)
		}
	})
}

func TestCorrection(t *testing.T) {
	t.Run("keyword reasons trigger targeted fixes", func(t *testing.T) {
		correction := prompts.Correction("hairstyle and face do not match the reference")

		if !strings.Contains(correction, "hairstyle") {
			t.Error("hair fix missing")
		}
		if !strings.Contains(correction, "facial features") {
			t.Error("face fix missing")
		}
	})

	t.Run("unknown reasons still demand regeneration", func(t *testing.T) {
		correction := prompts.Correction("vibe is off")
		if !strings.Contains(correction, "vibe is off") {
			t.Error("reason not echoed")
		}
		if !strings.Contains(strings.ToLower(correction), "regenerate") {
			t.Error("regeneration directive missing")
		}
	})
}
