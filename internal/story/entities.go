package story

import (
	"strings"

	"github.com/yuin/goldmark/ast"
)

// Kind classifies an entity definition.
type Kind string

// Entity kinds.
const (
	KindCharacter   Kind = "character"
	KindEnvironment Kind = "environment"
)

// Entity is a named character or environment definition extracted from a
// validated section of the document.
type Entity struct {
	Name        string
	Kind        Kind
	Description string
}

// Controlled vocabulary for section validation. Headings whose title does
// not contain one of these words are discarded, suppressing false positives
// from arbitrary document sections.
var sectionVocab = map[string]Kind{
	"character":    KindCharacter,
	"characters":   KindCharacter,
	"cast":         KindCharacter,
	"role":         KindCharacter,
	"roles":        KindCharacter,
	"protagonist":  KindCharacter,
	"protagonists": KindCharacter,
	"antagonist":   KindCharacter,
	"antagonists":  KindCharacter,
	"environment":  KindEnvironment,
	"environments": KindEnvironment,
	"setting":      KindEnvironment,
	"settings":     KindEnvironment,
	"location":     KindEnvironment,
	"locations":    KindEnvironment,
}

// sectionKind validates a heading title against the controlled vocabulary.
func sectionKind(title string) (Kind, bool) {
	for _, word := range strings.Fields(strings.ToLower(title)) {
		word = strings.Trim(word, ":,.()[]")
		if kind, ok := sectionVocab[word]; ok {
			return kind, true
		}
	}
	return "", false
}

// extractEntities walks validated sections and captures entity definitions
// from list items ("Name: description", nested content included) and from
// sub-headings followed by descriptive blocks. A section ends at a sibling-
// or parent-level heading or at a page marker.
func extractEntities(blocks []block, markers []marker, source []byte) []Entity {
	markerAt := make(map[int]bool, len(markers))
	for _, m := range markers {
		markerAt[m.index] = true
	}

	var entities []Entity

	for i, b := range blocks {
		h, ok := b.node.(*ast.Heading)
		if !ok || markerAt[i] {
			continue
		}

		kind, ok := sectionKind(nodeText(h, source))
		if !ok {
			continue
		}

	section:
		for j := i + 1; j < len(blocks); j++ {
			if markerAt[j] {
				break
			}

			switch n := blocks[j].node.(type) {
			case *ast.Heading:
				if n.Level <= h.Level {
					break section
				}
				entity, next := headingEntity(blocks, markerAt, j, kind, source)
				if entity != nil {
					entities = append(entities, *entity)
				}
				j = next - 1
			case *ast.List:
				entities = append(entities, listEntities(n, kind, source)...)
			}
		}
	}

	return entities
}

// headingEntity captures an entity named by a sub-heading, scanning forward
// until a heading of the same or higher level, or a page marker, closes its
// description. It returns the entity and the index of the closing block.
func headingEntity(blocks []block, markerAt map[int]bool, idx int, kind Kind, source []byte) (*Entity, int) {
	h := blocks[idx].node.(*ast.Heading)

	name := cleanName(nodeText(h, source))
	if name == "" {
		return nil, idx + 1
	}

	end := idx + 1
	for end < len(blocks) {
		if markerAt[end] {
			break
		}
		if next, ok := blocks[end].node.(*ast.Heading); ok && next.Level <= h.Level {
			break
		}
		end++
	}

	var description string
	if end > idx+1 {
		description = strings.TrimSpace(string(source[blocks[idx+1].start:blocks[end-1].stop]))
	}

	return &Entity{Name: name, Kind: kind, Description: description}, end
}

// listEntities captures one entity per top-level list item. The item's full
// raw span is used, so nested bullets and continuation lines are part of
// the description.
func listEntities(list *ast.List, kind Kind, source []byte) []Entity {
	var entities []Entity

	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		start, stop, ok := nodeSpan(item, source)
		if !ok {
			continue
		}

		lines := strings.Split(string(source[start:stop]), "\n")
		first := strings.TrimLeft(strings.TrimSpace(lines[0]), "-*+ \t")

		name, description, found := strings.Cut(first, ":")
		if !found {
			name, description = first, ""
		}

		name = cleanName(name)
		if name == "" {
			continue
		}

		rest := []string{strings.TrimSpace(description)}
		for _, line := range lines[1:] {
			rest = append(rest, strings.TrimSpace(line))
		}

		entities = append(entities, Entity{
			Name:        name,
			Kind:        kind,
			Description: strings.TrimSpace(strings.Join(rest, "\n")),
		})
	}

	return entities
}

func cleanName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_`")
	return strings.TrimSpace(strings.TrimSuffix(s, ":"))
}
