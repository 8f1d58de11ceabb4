package textsim

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSemanticSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"Identical", "respond only with valid json", "respond only with valid json", 1.0},
		{"Both empty", "", "", 0},
		{"Disjoint", "alpha bravo charlie", "delta echo foxtrot", 0},
		{"Short tokens filtered", "an is to", "an is to", 0}, // all tokens <= 2 chars
		{"Half overlap", "always answer politely", "always answer rudely", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SemanticSimilarity(tt.a, tt.b)
			if !almostEqual(got, tt.expected) {
				t.Errorf("SemanticSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestStructuralSimilarity(t *testing.T) {
	if got := StructuralSimilarity("a\nbb\nccc", "a\nbb\nccc"); !almostEqual(got, 1.0) {
		t.Errorf("identical texts: got %v, want 1.0", got)
	}

	if got := StructuralSimilarity("", "anything"); got != 0 {
		t.Errorf("empty side: got %v, want 0", got)
	}

	// Same line count, average lengths 4 vs 8: 1 - 4/8 = 0.5, count sim 1.0.
	got := StructuralSimilarity("aaaa", "bbbbbbbb")
	if !almostEqual(got, 0.75) {
		t.Errorf("length mismatch: got %v, want 0.75", got)
	}
}

func TestPatternDensity(t *testing.T) {
	// 6 words, 4 shingles, each longer than 10 chars and matching exactly once.
	text := "please respond only in formal english"

	got := PatternDensity(text, text)
	if !almostEqual(got, 4.0) {
		t.Errorf("self density: got %v, want 4.0 (unclamped)", got)
	}

	if got := PatternDensity("one two three", "four five six"); got != 0 {
		t.Errorf("disjoint density: got %v, want 0", got)
	}

	// Shingles of short words never exceed the 10-char minimum.
	if got := PatternDensity("a b c d", "a b c d"); got != 0 {
		t.Errorf("short shingles: got %v, want 0", got)
	}
}

func TestKeywordOverlap(t *testing.T) {
	both := "You are a system assistant. Keep every response in the given format."
	// system, assistant, response, format, user ("user" is not a substring here),
	// plus "ai"? No: matched terms are system, assistant, response, format.
	got := KeywordOverlap(both, both)
	if !almostEqual(got, 4.0/22) {
		t.Errorf("KeywordOverlap = %v, want %v", got, 4.0/22)
	}

	if got := KeywordOverlap("nothing relevant here", "xyz"); got != 0 {
		t.Errorf("no keywords: got %v, want 0", got)
	}
}

func TestAnalyzeAdvancedComposite(t *testing.T) {
	a := "You are a system assistant.\nAlways generate output in json format."

	analysis := AnalyzeAdvanced(a, a)

	if !almostEqual(analysis.Semantic, 1.0) {
		t.Errorf("Semantic = %v, want 1.0", analysis.Semantic)
	}
	if !almostEqual(analysis.Structural, 1.0) {
		t.Errorf("Structural = %v, want 1.0", analysis.Structural)
	}

	want := analysis.Semantic*0.4 + analysis.Structural*0.3 + analysis.Pattern*0.2 + analysis.Keyword*0.1
	if !almostEqual(analysis.Confidence, want) {
		t.Errorf("Confidence = %v, want weighted sum %v", analysis.Confidence, want)
	}
}

func TestAnalyzeAdvancedDegenerate(t *testing.T) {
	analysis := AnalyzeAdvanced("", "")

	if analysis.Semantic != 0 || analysis.Structural != 0 || analysis.Pattern != 0 || analysis.Keyword != 0 {
		t.Errorf("empty inputs should yield zero signals, got %+v", analysis)
	}
	if analysis.Confidence != 0 {
		t.Errorf("empty inputs Confidence = %v, want 0", analysis.Confidence)
	}
}
