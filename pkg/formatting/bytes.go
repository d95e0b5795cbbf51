// Package formatting provides small text utilities shared across the
// pipeline: byte size rendering and parsing for artifact logging and size
// caps, tolerant JSON extraction from model responses, and workspace key
// slugs.
package formatting

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var sizeUnits = []string{
	"B", "KB", "MB",
	"GB", "TB", "PB",
	"EB", "ZB", "YB",
}

var sizeRe = regexp.MustCompile(`^(\d+\.?\d*)\s*([A-Za-z]*)$`)

// FormatBytes renders a byte count with base-1024 units, e.g. "2.4 MB".
// Negative precision is clamped to zero.
func FormatBytes(n int64, precision int) string {
	if n == 0 {
		return "0 B"
	}

	if precision < 0 {
		precision = 0
	}

	size := float64(n)
	exp := int(math.Floor(math.Log(size) / math.Log(1024)))
	if exp >= len(sizeUnits) {
		exp = len(sizeUnits) - 1
	}

	scaled := size / math.Pow(1024, float64(exp))
	return strconv.FormatFloat(scaled, 'f', precision, 64) + " " + sizeUnits[exp]
}

// ParseBytes converts a human-readable size such as "25MB" into a byte
// count, the inverse of FormatBytes. Units B through YB are accepted
// case-insensitively, with an optional space before the unit; a bare
// number counts as bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	m := sizeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	unit := strings.ToUpper(m[2])
	if unit == "" {
		return int64(value), nil
	}

	exp := slices.Index(sizeUnits, unit)
	if exp == -1 {
		return 0, fmt.Errorf("unknown size unit %q", m[2])
	}

	return int64(value * math.Pow(1024, float64(exp))), nil
}
