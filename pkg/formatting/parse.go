package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content holds no decodable JSON, bare
// or fenced.
var ErrParseFailed = errors.New("failed to parse response")

// Models asked for JSON frequently wrap it in a markdown fence anyway.
var fencedJSONRe = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// Parse decodes content as JSON into T, falling back to the body of a
// markdown code fence when the raw content does not decode.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}

	if m := fencedJSONRe.FindStringSubmatch(content); len(m) >= 2 {
		fenced := strings.TrimSpace(m[1])
		if err := json.Unmarshal([]byte(fenced), &result); err == nil {
			return result, nil
		}
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, content)
}
