package extract

import (
	"regexp"
	"strings"
)

var (
	lineEndRe = regexp.MustCompile(`\r\n?`)
	hspaceRe  = regexp.MustCompile(`[ \t\f\v]+`)
)

// Normalize converts all line-ending variants to \n, collapses runs of
// horizontal whitespace (space, tab, form feed, vertical tab) into a single
// space and trims the ends. Newlines are preserved. Idempotent; every
// extractor applies it as its last step.
func Normalize(s string) string {
	s = lineEndRe.ReplaceAllString(s, "\n")
	s = hspaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
