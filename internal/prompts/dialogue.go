package prompts

import (
	"regexp"
	"strings"
)

// quotedRe matches straight- and curly-quoted dialogue runs within a line.
var quotedRe = regexp.MustCompile(`"([^"\n]+)"|“([^”\n]+)”`)

// DialogueChecklist extracts every quoted dialogue line from a page script
// in order. The checklist is rendered into lettering prompts and reviews so
// no line can be silently dropped.
func DialogueChecklist(content string) []string {
	var lines []string
	for _, m := range quotedRe.FindAllStringSubmatch(content, -1) {
		quote := m[1]
		if quote == "" {
			quote = m[2]
		}
		quote = strings.TrimSpace(quote)
		if quote != "" {
			lines = append(lines, quote)
		}
	}
	return lines
}
