package visual

import (
	"regexp"
	"strings"
)

// Placeholder replaces characters that cannot appear in a path segment
const Placeholder = "_"

var (
	invalidRun  = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]+`)
	trailingRun = regexp.MustCompile(`[. ]+$`)
)

// Sanitize turns a free-form name into a single portable path segment. Each run of
// invalid characters, and a trailing run of dots and spaces, becomes one Placeholder.
// Names that are empty or only whitespace map to Placeholder.
func Sanitize(name string) string {
	s := invalidRun.ReplaceAllString(name, Placeholder)
	s = trailingRun.ReplaceAllString(s, Placeholder)
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}
