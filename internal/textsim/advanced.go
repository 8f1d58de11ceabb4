package textsim

import (
	"math"
	"strings"
)

// Weights of the composite advanced confidence.
const (
	semanticWeight   = 0.4
	structuralWeight = 0.3
	patternWeight    = 0.2
	keywordWeight    = 0.1
)

// domainKeywords is the fixed 22-term vocabulary used for the keyword overlap
// signal. Terms are matched as case-insensitive substrings.
var domainKeywords = []string{
	"system", "prompt", "assistant", "user", "context", "instruction",
	"behavior", "response", "format", "output", "input", "model",
	"ai", "artificial", "intelligence", "language", "processing",
	"generate", "analyze", "provide", "help", "guide",
}

// AdvancedAnalysis is the secondary similarity model: four independent signals
// in [0,1] (pattern density may exceed 1 for highly repetitive texts) and a
// weighted composite confidence.
type AdvancedAnalysis struct {
	Semantic   float64 `json:"semantic"`
	Structural float64 `json:"structural"`
	Pattern    float64 `json:"pattern"`
	Keyword    float64 `json:"keyword"`
	Confidence float64 `json:"confidence"`
}

// AnalyzeAdvanced runs the secondary similarity model over a pair of raw texts.
func AnalyzeAdvanced(textA, textB string) AdvancedAnalysis {
	analysis := AdvancedAnalysis{
		Semantic:   SemanticSimilarity(textA, textB),
		Structural: StructuralSimilarity(textA, textB),
		Pattern:    PatternDensity(textA, textB),
		Keyword:    KeywordOverlap(textA, textB),
	}

	analysis.Confidence = analysis.Semantic*semanticWeight +
		analysis.Structural*structuralWeight +
		analysis.Pattern*patternWeight +
		analysis.Keyword*keywordWeight

	return analysis
}

// SemanticSimilarity is the Jaccard overlap of the texts' token sets, where
// tokens are lowercased, punctuation-free and longer than two characters.
func SemanticSimilarity(textA, textB string) float64 {
	setA := semanticTokens(textA)
	setB := semanticTokens(textB)

	union := make(map[string]struct{}, len(setA)+len(setB))
	intersection := 0
	for t := range setA {
		union[t] = struct{}{}
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	for t := range setB {
		union[t] = struct{}{}
	}

	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}

func semanticTokens(text string) map[string]struct{} {
	cleaned := nonWordChars.ReplaceAllString(strings.ToLower(text), " ")
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) > 2 {
			set[tok] = struct{}{}
		}
	}
	return set
}

// StructuralSimilarity averages line-count similarity and mean-line-length
// similarity, each computed as 1 - |a-b|/max(a,b). Texts without any
// non-blank line score 0.
func StructuralSimilarity(textA, textB string) float64 {
	linesA := nonBlankLines(textA)
	linesB := nonBlankLines(textB)
	if len(linesA) == 0 || len(linesB) == 0 {
		return 0
	}

	avgA := avgLineLength(linesA)
	avgB := avgLineLength(linesB)

	lengthSim := 1 - math.Abs(avgA-avgB)/math.Max(avgA, avgB)
	countSim := 1 - math.Abs(float64(len(linesA)-len(linesB)))/math.Max(float64(len(linesA)), float64(len(linesB)))

	return (lengthSim + countSim) / 2
}

func avgLineLength(lines []string) float64 {
	total := 0
	for _, line := range lines {
		total += len(line)
	}
	return float64(total) / float64(len(lines))
}

// PatternDensity counts identical 3-word shingles (longer than 10 characters)
// shared between the two texts' lowercased word sequences, scaled by
// max(1, min(wordCount)/10). The value is a density and is deliberately not
// clamped: short or highly repetitive texts can exceed 1.
func PatternDensity(textA, textB string) float64 {
	wordsA := strings.Fields(strings.ToLower(textA))
	wordsB := strings.Fields(strings.ToLower(textB))

	shared := 0
	for i := 0; i+3 <= len(wordsA); i++ {
		phraseA := strings.Join(wordsA[i:i+3], " ")
		if len(phraseA) <= 10 {
			continue
		}
		for j := 0; j+3 <= len(wordsB); j++ {
			if phraseA == strings.Join(wordsB[j:j+3], " ") {
				shared++
			}
		}
	}

	minWords := len(wordsA)
	if len(wordsB) < minWords {
		minWords = len(wordsB)
	}

	return float64(shared) / math.Max(float64(minWords)/10, 1)
}

// KeywordOverlap is the fraction of the domain keyword list appearing as a
// substring in both texts, case-insensitive.
func KeywordOverlap(textA, textB string) float64 {
	lowerA := strings.ToLower(textA)
	lowerB := strings.ToLower(textB)

	overlap := 0
	for _, kw := range domainKeywords {
		if strings.Contains(lowerA, kw) && strings.Contains(lowerB, kw) {
			overlap++
		}
	}

	return float64(overlap) / float64(len(domainKeywords))
}
