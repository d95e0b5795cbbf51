package story_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/inkwell/internal/story"
)

const sampleStory = `# The Drift

A slow-burn mystery aboard a derelict freighter.

## Characters

- Captain Mara Voss: weathered pilot with a silver braid and a scarred jaw
- Tam: nervous engineer, oversized goggles
  carries a battered toolkit everywhere

## Settings

### The Hold

Cavernous cargo bay lit by failing amber strips.

## Page 1: The Landing

Mara guides the shuttle into the hold.

"Easy now," she whispers.

## Page 2: First Contact

Tam spots movement behind the crates.

"Did you see that?"
`

func TestParse(t *testing.T) {
	t.Run("splits pages at markers", func(t *testing.T) {
		s, err := story.Parse([]byte(sampleStory))
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}

		if len(s.Pages) != 2 {
			t.Fatalf("pages = %d, want 2", len(s.Pages))
		}

		first := s.Pages[0]
		if first.Title != "Page 1: The Landing" {
			t.Errorf("Title = %q", first.Title)
		}
		if first.Header != "## Page 1: The Landing" {
			t.Errorf("Header = %q", first.Header)
		}
		if first.Number != 1 {
			t.Errorf("Number = %d, want 1", first.Number)
		}
		if !strings.Contains(first.Content, "Easy now") {
			t.Errorf("Content missing dialogue: %q", first.Content)
		}
		if strings.Contains(first.Content, "First Contact") {
			t.Errorf("Content leaked into next page: %q", first.Content)
		}

		second := s.Pages[1]
		if second.Number != 2 || second.Title != "Page 2: First Contact" {
			t.Errorf("second page = %+v", second)
		}
	})

	t.Run("global context precedes the first marker", func(t *testing.T) {
		s, err := story.Parse([]byte(sampleStory))
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}

		if !strings.Contains(s.GlobalContext, "slow-burn mystery") {
			t.Errorf("GlobalContext = %q", s.GlobalContext)
		}
		if strings.Contains(s.GlobalContext, "guides the shuttle") {
			t.Error("GlobalContext contains page content")
		}
	})

	t.Run("document without markers yields one synthetic page", func(t *testing.T) {
		s, err := story.Parse([]byte("Just a short scene.\n\n\"Hello,\" she said.\n"))
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}

		if len(s.Pages) != 1 {
			t.Fatalf("pages = %d, want 1", len(s.Pages))
		}
		if s.Pages[0].Title != "Page 1" {
			t.Errorf("Title = %q, want Page 1", s.Pages[0].Title)
		}
		if s.GlobalContext != "" {
			t.Errorf("GlobalContext = %q, want empty", s.GlobalContext)
		}
		if !strings.Contains(s.Pages[0].Content, "Hello") {
			t.Errorf("Content = %q", s.Pages[0].Content)
		}
	})

	t.Run("bold paragraph label opens a page", func(t *testing.T) {
		source := "Intro text.\n\n**Page 1**\n\nFirst panel.\n\n**Page 2: Chase**\n\nSecond panel.\n"
		s, err := story.Parse([]byte(source))
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}

		if len(s.Pages) != 2 {
			t.Fatalf("pages = %d, want 2", len(s.Pages))
		}
		if s.Pages[0].Title != "Page 1" {
			t.Errorf("Title = %q", s.Pages[0].Title)
		}
		if s.Pages[1].Title != "Page 2: Chase" {
			t.Errorf("Title = %q", s.Pages[1].Title)
		}
	})

	t.Run("deep headings and unrelated sections are not markers", func(t *testing.T) {
		source := "#### Page 1\n\nNot a marker: level too deep.\n\n## Frontispiece\n\nAlso not a page.\n"
		s, err := story.Parse([]byte(source))
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if len(s.Pages) != 1 || s.Pages[0].Title != "Page 1" {
			t.Fatalf("expected single synthetic page, got %+v", s.Pages)
		}
	})

	t.Run("heading containing the page label is a marker", func(t *testing.T) {
		source := "Intro.\n\n## The Landing, Page 1\n\nFirst panel.\n\n## Page 2\n\nSecond panel.\n"
		s, err := story.Parse([]byte(source))
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}

		if len(s.Pages) != 2 {
			t.Fatalf("pages = %d, want 2", len(s.Pages))
		}
		if s.Pages[0].Title != "The Landing, Page 1" {
			t.Errorf("Title = %q", s.Pages[0].Title)
		}
		if s.Pages[0].Header != "## The Landing, Page 1" {
			t.Errorf("Header = %q", s.Pages[0].Header)
		}
	})

	t.Run("prose mentioning a page number is not a marker", func(t *testing.T) {
		source := "## Page 1\n\nFirst panel.\n\nShe turned page 3 of the manual and frowned.\n"
		s, err := story.Parse([]byte(source))
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}

		if len(s.Pages) != 1 {
			t.Fatalf("pages = %+v, want 1", s.Pages)
		}
		if !strings.Contains(s.Pages[0].Content, "turned page 3") {
			t.Errorf("Content = %q", s.Pages[0].Content)
		}
	})

	t.Run("marker matching is case-insensitive", func(t *testing.T) {
		source := "## PAGE 1\n\nContent.\n"
		s, err := story.Parse([]byte(source))
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if len(s.Pages) != 1 || s.Pages[0].Title != "PAGE 1" {
			t.Fatalf("pages = %+v", s.Pages)
		}
		if s.Pages[0].Header != "## PAGE 1" {
			t.Errorf("Header = %q", s.Pages[0].Header)
		}
	})
}

func TestExtractEntities(t *testing.T) {
	t.Run("captures list and heading entities", func(t *testing.T) {
		s, err := story.Parse([]byte(sampleStory))
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}

		byName := map[string]story.Entity{}
		for _, e := range s.Entities {
			byName[e.Name] = e
		}

		mara, ok := byName["Captain Mara Voss"]
		if !ok {
			t.Fatalf("Captain Mara Voss not extracted: %+v", s.Entities)
		}
		if mara.Kind != story.KindCharacter {
			t.Errorf("Kind = %q, want character", mara.Kind)
		}
		if !strings.Contains(mara.Description, "silver braid") {
			t.Errorf("Description = %q", mara.Description)
		}

		tam, ok := byName["Tam"]
		if !ok {
			t.Fatal("Tam not extracted")
		}
		if !strings.Contains(tam.Description, "battered toolkit") {
			t.Errorf("nested continuation missing: %q", tam.Description)
		}

		hold, ok := byName["The Hold"]
		if !ok {
			t.Fatal("The Hold not extracted")
		}
		if hold.Kind != story.KindEnvironment {
			t.Errorf("Kind = %q, want environment", hold.Kind)
		}
		if !strings.Contains(hold.Description, "amber strips") {
			t.Errorf("Description = %q", hold.Description)
		}
	})

	t.Run("unvalidated sections are ignored", func(t *testing.T) {
		source := "## Shopping List\n\n- Milk: two liters\n- Rope: ten meters\n\n## Page 1\n\nContent.\n"
		s, err := story.Parse([]byte(source))
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if len(s.Entities) != 0 {
			t.Errorf("Entities = %+v, want none", s.Entities)
		}
	})

	t.Run("section ends at page marker", func(t *testing.T) {
		source := "## Cast\n\n- Rex: a bloodhound\n\n## Page 1\n\n- Not An Entity: page content list\n"
		s, err := story.Parse([]byte(source))
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}

		if len(s.Entities) != 1 || s.Entities[0].Name != "Rex" {
			t.Errorf("Entities = %+v, want only Rex", s.Entities)
		}
	})

	t.Run("markdown emphasis stripped from names", func(t *testing.T) {
		source := "## Characters\n\n- **Vex**: armored courier\n"
		s, err := story.Parse([]byte(source))
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}

		if len(s.Entities) != 1 || s.Entities[0].Name != "Vex" {
			t.Errorf("Entities = %+v, want Vex", s.Entities)
		}
	})
}
