package textsim

import (
	"strings"
	"testing"
)

func TestCharMatch(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"Identical", "abc", "abc", 100},
		{"Both empty", "", "", 0},
		{"One empty", "abc", "", 0},
		{"Single mismatch", "abc", "abd", 67},
		{"Prefix against longer", "abcd", "abcdefgh", 50},
		{"Fully different", "aaaa", "bbbb", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CharMatch(tt.a, tt.b)
			if got != tt.expected {
				t.Errorf("CharMatch(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}

			// Orientation must not matter.
			if rev := CharMatch(tt.b, tt.a); rev != got {
				t.Errorf("CharMatch not symmetric: (%q,%q)=%d but (%q,%q)=%d", tt.a, tt.b, got, tt.b, tt.a, rev)
			}
		})
	}
}

func TestWordMatch(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"Identical", "the quick fox", "the quick fox", 100},
		{"Both empty", "", "", 0},
		{"Disjoint", "alpha beta", "gamma delta", 0},
		{"Partial overlap", "a b", "b c", 33},
		{"Duplicates count once", "go go go stop", "go stop", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WordMatch(tt.a, tt.b)
			if got != tt.expected {
				t.Errorf("WordMatch(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}

			if rev := WordMatch(tt.b, tt.a); rev != got {
				t.Errorf("WordMatch not symmetric: got %d and %d", got, rev)
			}
		})
	}
}

func TestStructureMatch(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"Identical plain lines", "one\ntwo", "one\ntwo", 100},
		{"Both empty", "", "", 0},
		{"Numbered list disagreement", "1. first\n2. second", "plain text", 50},
		{"Both numbered", "1. a\n2. b", "1. x\n2. y", 100},
		{"Bullet disagreement", "- item", "item", 75},
		{"Line count mismatch only", "a\nb\nc\nd", "a", 63}, // 0.25*50 + 25 + 25
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StructureMatch(tt.a, tt.b)
			if got != tt.expected {
				t.Errorf("StructureMatch(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestCoreSimilarity(t *testing.T) {
	common := "abcdefghijklmnopqrst" // 20 chars

	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"Both empty", "", "", 0},
		{"Identical short", "abc", "abc", 100},
		{"Identical long", strings.Repeat("you are a helpful assistant ", 5), strings.Repeat("you are a helpful assistant ", 5), 100},
		{"No common substring", "aaaaaaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbbbbbb", 0},
		{"Shared 20-char prefix", common + "uvwxyz1234", common + "0987654321", 67}, // 20 / 30 avg
		{"Below minimum window", "short", "other", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoreSimilarity(tt.a, tt.b)
			if got != tt.expected {
				t.Errorf("CoreSimilarity(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestCoreSimilaritySaturates(t *testing.T) {
	// Every 50-char window of a survives maximal-match de-duplication when b
	// repeats a, so the raw density exceeds 100 and must be clamped.
	a := "abcdefghijklmnopqrstuvwxyz0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := a + a

	got := CoreSimilarity(a, b)
	if got != 100 {
		t.Errorf("CoreSimilarity saturation: got %d, want 100", got)
	}
}

func TestCompareAverage(t *testing.T) {
	text := "You are a helpful assistant.\nAlways answer truthfully and concisely."

	scores := Compare(text, text)
	if scores.CharMatch != 100 || scores.WordMatch != 100 || scores.StructureMatch != 100 || scores.CoreSimilarity != 100 {
		t.Fatalf("self-comparison expected all 100, got %+v", scores)
	}
	if avg := scores.Average(); avg != 100 {
		t.Errorf("Average() = %d, want 100", avg)
	}

	disjoint := Compare("alpha beta gamma", "delta epsilon zeta")
	if disjoint.WordMatch != 0 {
		t.Errorf("disjoint WordMatch = %d, want 0", disjoint.WordMatch)
	}
	if disjoint.CoreSimilarity != 0 {
		t.Errorf("disjoint CoreSimilarity = %d, want 0", disjoint.CoreSimilarity)
	}
}
