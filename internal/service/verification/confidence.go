package verification

import (
	"strings"

	"github.com/ranz0c/leakhub/internal/models"
)

// Heuristic phrase groups that suggest genuine system prompt content. Each
// group that matches contributes confidenceStep to the initial estimate.
var confidenceSignals = [][]string{
	{"you are", "your purpose"},
	{"instructions", "guidelines"},
	{"do not", "never"},
}

const (
	baseConfidence     = 50
	confidenceStep     = 10
	longContentChars   = 500
	multiLineThreshold = 5
)

// InitialConfidence estimates how plausible a freshly submitted prompt is,
// before any comparison has corroborated it. Scores start at 50 and gain 10
// per matched signal, capped well below the verification threshold so a
// submission can never self-verify.
func InitialConfidence(content string) int {
	confidence := baseConfidence
	lower := strings.ToLower(content)

	for _, group := range confidenceSignals {
		for _, phrase := range group {
			if strings.Contains(lower, phrase) {
				confidence += confidenceStep
				break
			}
		}
	}

	if len(content) > longContentChars {
		confidence += confidenceStep
	}
	if strings.Count(content, "\n")+1 > multiLineThreshold {
		confidence += confidenceStep
	}

	if confidence > models.InitialConfidenceCap {
		confidence = models.InitialConfidenceCap
	}
	return confidence
}
