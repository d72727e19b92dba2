package answer

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Mode selects how a normalized input is compared to an accepted answer.
type Mode string

const (
	// ModeExact passes when the input equals an accepted answer.
	ModeExact Mode = "exact"
	// ModeContains passes when the input contains an accepted answer.
	// Loose on purpose: "3" would pass "31st march".
	ModeContains Mode = "contains"
)

// ParseMode maps a config string onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeExact, "":
		return ModeExact, nil
	case ModeContains:
		return ModeContains, nil
	default:
		return "", fmt.Errorf("unknown match mode %q (supported: exact, contains)", s)
	}
}

// Normalize decomposes s (NFD), case folds it and trims surrounding
// whitespace.
func Normalize(s string) string {
	return strings.TrimSpace(cases.Fold().String(norm.NFD.String(s)))
}

// Matcher decides whether free text answers a question.
type Matcher struct {
	Mode Mode
}

// NewMatcher returns a matcher for mode; an empty mode means exact.
func NewMatcher(mode Mode) Matcher {
	if mode == "" {
		mode = ModeExact
	}
	return Matcher{Mode: mode}
}

// Match reports whether input passes any of the accepted answers.
// Blank input never passes, and blank accepted answers are ignored.
func (m Matcher) Match(input string, accepted []string) bool {
	in := Normalize(input)
	if in == "" {
		return false
	}
	for _, a := range accepted {
		want := Normalize(a)
		if want == "" {
			continue
		}
		switch m.Mode {
		case ModeContains:
			if strings.Contains(in, want) {
				return true
			}
		default:
			if in == want {
				return true
			}
		}
	}
	return false
}
