package textsim

import (
	"math"
	"regexp"
	"strings"
)

// Window bounds for the maximal-common-substring scan.
const (
	minPhraseLength = 10
	maxPhraseLength = 50
)

var (
	numberedListStart = regexp.MustCompile(`^\d+\.`)
	bulletListStart   = regexp.MustCompile(`^[-*•]`)
)

// Scores holds the four basic similarity metrics for one comparison, each an
// integer percentage in [0,100].
type Scores struct {
	CharMatch      int `json:"char_match"`
	WordMatch      int `json:"word_match"`
	StructureMatch int `json:"structure_match"`
	CoreSimilarity int `json:"core_similarity"`
}

// Average returns the rounded mean of the four metrics.
func (s Scores) Average() int {
	return int(math.Round(float64(s.CharMatch+s.WordMatch+s.StructureMatch+s.CoreSimilarity) / 4))
}

// Compare computes all four basic metrics for a pair of raw texts. Character,
// word and core metrics operate on normalized text; the structure metric
// inspects the raw line layout.
func Compare(rawA, rawB string) Scores {
	normA := Normalize(rawA)
	normB := Normalize(rawB)

	return Scores{
		CharMatch:      CharMatch(normA, normB),
		WordMatch:      WordMatch(normA, normB),
		StructureMatch: StructureMatch(rawA, rawB),
		CoreSimilarity: CoreSimilarity(normA, normB),
	}
}

// CharMatch aligns the shorter string against the longer one from index 0 and
// counts positions holding equal characters, as a percentage of the longer
// length. Two empty strings score 0.
func CharMatch(textA, textB string) int {
	longer, shorter := textA, textB
	if len(textB) > len(textA) {
		longer, shorter = textB, textA
	}
	if len(longer) == 0 {
		return 0
	}

	matches := 0
	for i := 0; i < len(shorter); i++ {
		if shorter[i] == longer[i] {
			matches++
		}
	}

	return int(math.Round(float64(matches) / float64(len(longer)) * 100))
}

// WordMatch computes the Jaccard overlap of the unique-token sets of two
// normalized texts, as a percentage. Two empty token sets score 0.
func WordMatch(textA, textB string) int {
	setA := tokenSet(textA)
	setB := tokenSet(textB)

	union := make(map[string]struct{}, len(setA)+len(setB))
	intersection := 0
	for w := range setA {
		union[w] = struct{}{}
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	for w := range setB {
		union[w] = struct{}{}
	}

	if len(union) == 0 {
		return 0
	}

	return int(math.Round(float64(intersection) / float64(len(union)) * 100))
}

// tokenSet splits normalized text on single spaces into a set of unique
// non-empty tokens.
func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Split(text, " ") {
		if tok != "" {
			set[tok] = struct{}{}
		}
	}
	return set
}

// StructureMatch scores layout similarity over raw text: up to 50 points for
// matching non-blank line counts, plus 25 when both texts agree on starting
// with a numbered-list marker and 25 when both agree on starting with a bullet.
func StructureMatch(textA, textB string) int {
	linesA := nonBlankLines(textA)
	linesB := nonBlankLines(textB)

	maxLines := len(linesA)
	if len(linesB) > maxLines {
		maxLines = len(linesB)
	}
	if maxLines == 0 {
		return 0
	}

	minLines := len(linesA)
	if len(linesB) < minLines {
		minLines = len(linesB)
	}
	score := float64(minLines) / float64(maxLines) * 50

	if numberedListStart.MatchString(textA) == numberedListStart.MatchString(textB) {
		score += 25
	}
	if bulletListStart.MatchString(textA) == bulletListStart.MatchString(textB) {
		score += 25
	}

	return int(math.Round(score))
}

// CoreSimilarity slides windows of 10 to 50 characters across textA, collects
// every window that occurs verbatim in textB, discards matches contained in a
// longer match, and scores the summed length of the surviving maximal matches
// against the mean text length. Identical non-empty inputs always score 100;
// the result saturates at 100.
//
// The scan is cubic in the text length, so callers must cap input size
// (see verification.Service) before invoking it on untrusted text.
func CoreSimilarity(textA, textB string) int {
	if len(textA) == 0 && len(textB) == 0 {
		return 0
	}
	if textA == textB {
		// Also covers inputs shorter than the minimum window.
		return 100
	}

	var phrases []string
	for i := 0; i+minPhraseLength <= len(textA); i++ {
		for length := minPhraseLength; length <= maxPhraseLength && i+length <= len(textA); length++ {
			phrase := textA[i : i+length]
			if strings.Contains(textB, phrase) {
				phrases = append(phrases, phrase)
			}
		}
	}

	commonLength := 0
	for _, phrase := range phrases {
		maximal := true
		for _, other := range phrases {
			if len(other) > len(phrase) && strings.Contains(other, phrase) {
				maximal = false
				break
			}
		}
		if maximal {
			commonLength += len(phrase)
		}
	}

	avgLength := float64(len(textA)+len(textB)) / 2
	score := int(math.Round(float64(commonLength) / avgLength * 100))
	if score > 100 {
		score = 100
	}
	return score
}
