package memory

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Ledger file grammar. Each page section carries at most one PASS line per
// phase plus an optional failure list:
//
//	## <page title>
//
//	phase 1: PASS <artifact key>
//	phase 1 prompt: <prompt audit key>
//	phase 2: PASS <artifact key>
//
//	### Failures
//
//	- [phase 1] <reason> => <artifact key>
var (
	sectionRe = regexp.MustCompile(`^## (.+)$`)
	passRe    = regexp.MustCompile(`^phase ([12]): PASS (\S+)$`)
	promptRe  = regexp.MustCompile(`^phase ([12]) prompt: (\S+)$`)
	failureRe = regexp.MustCompile(`^- \[phase ([12])\] (.*?)(?: => (\S+))?$`)
)

func renderLedger(entries map[string]*Entry, order []string) string {
	var b strings.Builder
	b.WriteString("# inkwell memory\n")

	for _, title := range order {
		e := entries[title]

		fmt.Fprintf(&b, "\n## %s\n\n", e.PageTitle)
		renderPhase(&b, 1, e.Phase1)
		renderPhase(&b, 2, e.Phase2)

		if len(e.Failures) > 0 {
			b.WriteString("\n### Failures\n\n")
			for _, f := range e.Failures {
				fmt.Fprintf(&b, "- [phase %d] %s", f.Phase, sanitizeReason(f.Reason))
				if f.ArtifactKey != "" {
					fmt.Fprintf(&b, " => %s", f.ArtifactKey)
				}
				b.WriteByte('\n')
			}
		}
	}

	return b.String()
}

func renderPhase(b *strings.Builder, n int, status PhaseStatus) {
	if !status.Passed {
		return
	}

	fmt.Fprintf(b, "phase %d: PASS %s\n", n, status.ArtifactKey)
	if status.PromptRef != "" {
		fmt.Fprintf(b, "phase %d prompt: %s\n", n, status.PromptRef)
	}
}

func parseLedger(text string) (map[string]*Entry, []string, error) {
	entries := map[string]*Entry{}
	var order []string
	var current *Entry

	for lineNumber, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t")

		if m := sectionRe.FindStringSubmatch(line); m != nil {
			title := strings.TrimSpace(m[1])
			current = &Entry{PageTitle: title}
			entries[title] = current
			order = append(order, title)
			continue
		}

		if current == nil || line == "" || line == "### Failures" || strings.HasPrefix(line, "# ") {
			continue
		}

		switch {
		case passRe.MatchString(line):
			m := passRe.FindStringSubmatch(line)
			phase, _ := strconv.Atoi(m[1])
			current.setPhase(phase, PhaseStatus{
				Passed:      true,
				ArtifactKey: m[2],
				PromptRef:   current.Phase(phase).PromptRef,
			})
		case promptRe.MatchString(line):
			m := promptRe.FindStringSubmatch(line)
			phase, _ := strconv.Atoi(m[1])
			status := current.Phase(phase)
			status.PromptRef = m[2]
			current.setPhase(phase, status)
		case failureRe.MatchString(line):
			m := failureRe.FindStringSubmatch(line)
			phase, _ := strconv.Atoi(m[1])
			current.Failures = append(current.Failures, Failure{
				Phase:       phase,
				Reason:      m[2],
				ArtifactKey: m[3],
			})
		default:
			return nil, nil, fmt.Errorf("%w: line %d: %q", ErrMalformedLedger, lineNumber+1, line)
		}
	}

	return entries, order, nil
}

// sanitizeReason keeps failure reasons on a single line and clear of the
// artifact separator.
func sanitizeReason(reason string) string {
	reason = strings.Join(strings.Fields(reason), " ")
	return strings.ReplaceAll(reason, " => ", " -> ")
}
