// Package textsim implements the lexical similarity metrics used to compare
// leaked prompt submissions: positional character match, word-set overlap,
// structural pattern match, maximal-common-substring density, and a secondary
// weighted analysis built on token, structure, shingle and keyword signals.
package textsim

import (
	"regexp"
	"strings"
)

var (
	whitespaceRuns = regexp.MustCompile(`\s+`)
	nonWordChars   = regexp.MustCompile(`[^\w\s]`)
)

// Normalize canonicalizes raw text for comparison: lowercases, collapses
// whitespace runs to a single space, strips punctuation and trims. Idempotent,
// and total over all inputs (empty in, empty out).
func Normalize(text string) string {
	t := strings.ToLower(text)
	t = whitespaceRuns.ReplaceAllString(t, " ")
	t = nonWordChars.ReplaceAllString(t, "")
	return strings.TrimSpace(t)
}

// nonBlankLines splits text into lines and drops lines that are empty after
// trimming. The original line content (untrimmed) is preserved.
func nonBlankLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
