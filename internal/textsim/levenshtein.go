package textsim

import (
	"strings"
)

// lineMatchThreshold is the minimum line similarity for two lines to be
// treated as the same line in the consensus view.
const lineMatchThreshold = 0.8

// Levenshtein computes the edit distance between two strings with unit-cost
// insert, delete and substitute operations.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	costs := make([]int, len(rb)+1)
	for j := range costs {
		costs[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		prev := costs[0]
		costs[0] = i
		for j := 1; j <= len(rb); j++ {
			current := costs[j]
			if ra[i-1] == rb[j-1] {
				costs[j] = prev
			} else {
				costs[j] = min3(prev, costs[j-1], costs[j]) + 1
			}
			prev = current
		}
	}

	return costs[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// LineSimilarity is 1 - distance/max(len), in [0,1]. Two empty strings are
// fully similar.
func LineSimilarity(a, b string) float64 {
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1.0
	}

	return float64(longest-Levenshtein(a, b)) / float64(longest)
}

// linesMatch reports whether two trimmed lines should be merged in the
// consensus view: exact equality, or case-folded similarity above threshold.
func linesMatch(a, b string) bool {
	if a == b {
		return true
	}
	return LineSimilarity(strings.ToLower(a), strings.ToLower(b)) > lineMatchThreshold
}

// ConsensusLines returns the non-blank lines of textA that fuzzy-match some
// line of textB, in textA order. This drives the "consensus view" of two
// compared submissions.
func ConsensusLines(textA, textB string) []string {
	linesB := strings.Split(textB, "\n")

	var consensus []string
	for _, lineA := range strings.Split(textA, "\n") {
		trimmedA := strings.TrimSpace(lineA)
		if trimmedA == "" {
			continue
		}

		for _, lineB := range linesB {
			trimmedB := strings.TrimSpace(lineB)
			if trimmedB == "" {
				continue
			}
			if linesMatch(trimmedA, trimmedB) {
				consensus = append(consensus, trimmedA)
				break
			}
		}
	}

	return consensus
}
