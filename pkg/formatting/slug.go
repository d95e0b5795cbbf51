package formatting

import "strings"

// Slug converts an arbitrary label (page header, entity name) into a
// deterministic lowercase token safe for use as a file name segment.
// Runs of non-alphanumeric characters collapse to a single hyphen.
func Slug(s string) string {
	var b strings.Builder
	lastHyphen := true

	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "untitled"
	}
	return slug
}
