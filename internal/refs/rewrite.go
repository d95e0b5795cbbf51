package refs

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/inkwell/internal/story"
	"github.com/JaimeStill/inkwell/pkg/formatting"
)

// rewriteLink embeds the resolved reference link into the entity's
// definition line in the source document so later runs resolve it
// directly. The rewrite is idempotent: a document that already links the
// key is left untouched. Failure to locate the definition line is not an
// error; the reference still resolves from its slug path.
func (r *Resolver) rewriteLink(entity story.Entity, key string) error {
	text, err := r.store.ReadText(r.storyKey)
	if err != nil {
		return err
	}

	if strings.Contains(text, "]("+key+")") {
		return nil
	}

	lines := strings.Split(text, "\n")
	idx := definitionLine(lines, entity.Name)
	if idx == -1 {
		r.logger.Info("definition line not found, skipping link rewrite", "entity", entity.Name)
		return nil
	}

	lines[idx] = fmt.Sprintf("%s ![%s](%s)", strings.TrimRight(lines[idx], " \t"), formatting.Slug(entity.Name), key)

	if err := r.store.WriteText(r.storyKey, strings.Join(lines, "\n")); err != nil {
		return err
	}

	r.logger.Info("source link rewritten", "entity", entity.Name, "key", key)
	return nil
}

// definitionLine finds the list item or heading that defines the entity.
func definitionLine(lines []string, name string) int {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "-") && !strings.HasPrefix(trimmed, "*") && !strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.Contains(trimmed, name) {
			return i
		}
	}
	return -1
}
