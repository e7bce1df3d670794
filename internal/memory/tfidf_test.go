package memory

import (
	"math"
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"What is the capital of France?", []string{"what", "is", "the", "capital", "of", "france"}},
		{"What's a cat", []string{"what", "cat"}},
		{"snake_case and-dash", []string{"snake_case", "and", "dash"}},
		{"สวัสดี ครับ", []string{"สวัสดี", "ครับ"}},
		{"a b c", []string{}},
	}
	for _, tt := range tests {
		got := tokenize(tt.in)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("tokenize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTFIDF_IdenticalTextScoresOne(t *testing.T) {
	m := FitTFIDF([]string{"How do I reset my password?", "Where is my order?"})

	idx, score := m.Best("how do i reset my PASSWORD")
	if idx != 0 {
		t.Fatalf("Best() index = %d, want 0", idx)
	}
	if math.Abs(score-1) > 1e-9 {
		t.Errorf("Best() score = %f, want 1", score)
	}
}

func TestTFIDF_SingleDocumentOverlap(t *testing.T) {
	m := FitTFIDF([]string{"What is the capital of France?"})

	// 5 of 6 terms shared, all idf equal: 5/sqrt(5*6)
	want := 5 / math.Sqrt(30)
	_, score := m.Best("What is the capital of Spain?")
	if math.Abs(score-want) > 1e-9 {
		t.Errorf("score = %f, want %f", score, want)
	}
}

func TestTFIDF_UnknownTermsScoreZero(t *testing.T) {
	m := FitTFIDF([]string{"alpha beta", "gamma delta"})
	for i, s := range m.Similarities("zeta eta") {
		if s != 0 {
			t.Errorf("Similarities()[%d] = %f, want 0", i, s)
		}
	}
}

func TestTFIDF_FirstMaximumWins(t *testing.T) {
	m := FitTFIDF([]string{"hello world", "hello world", "other thing"})
	if idx, _ := m.Best("hello world"); idx != 0 {
		t.Errorf("Best() index = %d, want first maximum 0", idx)
	}
}

func TestTFIDF_EmptyCorpus(t *testing.T) {
	m := FitTFIDF(nil)
	if idx, score := m.Best("anything"); idx != -1 || score != 0 {
		t.Errorf("Best() on empty corpus = (%d, %f), want (-1, 0)", idx, score)
	}
}
