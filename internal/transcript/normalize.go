package transcript

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// normalize lowercases, collapses whitespace runs to a single space, and
// trims — the comparison form used throughout extraction and release
// predicates. Original-cased text is always what gets emitted.
func normalize(s string) string {
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}
