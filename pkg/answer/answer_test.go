package answer

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "lowercases", input: "Library", expected: "library"},
		{name: "trims", input: "  puri \t\n", expected: "puri"},
		{name: "keeps inner spaces", input: " 31st  March ", expected: "31st  march"},
		{name: "decomposes accents", input: "Caf\u00e9", expected: "cafe\u0301"},
		{name: "already decomposed", input: "CAFE\u0301", expected: "cafe\u0301"},
		{name: "folds sharp s", input: "STRASSE", expected: "strasse"},
		{name: "empty", input: "", expected: ""},
		{name: "whitespace only", input: "   ", expected: ""},
		{name: "bengali untouched", input: "জানি", expected: "জানি"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMatcher_Exact(t *testing.T) {
	m := NewMatcher(ModeExact)
	accepted := []string{"31st March", "31/03"}

	tests := []struct {
		input string
		want  bool
	}{
		{"31st March", true},
		{"  31ST march ", true},
		{"31/03", true},
		{"3", false},
		{"31st March 2004", false},
		{"", false},
		{"   ", false},
	}

	for _, tt := range tests {
		if got := m.Match(tt.input, accepted); got != tt.want {
			t.Errorf("exact Match(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestMatcher_Contains(t *testing.T) {
	m := NewMatcher(ModeContains)
	accepted := []string{"library"}

	tests := []struct {
		input string
		want  bool
	}{
		{"the Library", true},
		{"LIBRARY", true},
		{"lib", false},
		{"", false},
		{" ", false},
	}

	for _, tt := range tests {
		if got := m.Match(tt.input, accepted); got != tt.want {
			t.Errorf("contains Match(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestMatcher_IgnoresBlankAcceptedAnswers(t *testing.T) {
	for _, mode := range []Mode{ModeExact, ModeContains} {
		m := NewMatcher(mode)
		if m.Match("anything", []string{"", "  "}) {
			t.Errorf("%s: blank accepted answers must not match", mode)
		}
		if m.Match("", []string{""}) {
			t.Errorf("%s: empty input must never match", mode)
		}
	}
}

func TestMatcher_ComposedInputMatchesDecomposedAnswer(t *testing.T) {
	m := NewMatcher("")
	if m.Mode != ModeExact {
		t.Fatalf("default mode = %q, want exact", m.Mode)
	}
	if !m.Match("Caf\u00e9", []string{"cafe\u0301"}) {
		t.Error("composed input should match decomposed answer")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"exact", ModeExact, false},
		{"", ModeExact, false},
		{" Contains ", ModeContains, false},
		{"fuzzy", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
