package unlock

import (
	"errors"
	"time"

	"github.com/jwebster45206/memory-gate/pkg/answer"
	"github.com/jwebster45206/memory-gate/pkg/gallery"
)

// DefaultWrongAnswerDelay is how long the wrong-answer flag stays up.
const DefaultWrongAnswerDelay = 900 * time.Millisecond

var (
	// ErrUnknownSection is returned for a scope that is neither the entry
	// gate nor a configured section.
	ErrUnknownSection = errors.New("unknown section")
	// ErrEntryLocked is returned when a section gate is attempted before
	// the entry gate has been passed.
	ErrEntryLocked = errors.New("entry gate is locked")
)

// Outcome describes one answer submission.
type Outcome struct {
	Scope    string `json:"scope"`
	Unlocked bool   `json:"unlocked"`
	// Changed is true only on the submission that flipped the gate.
	Changed bool `json:"-"`
	// Wrong is a transient flag for the UI; it is never stored.
	Wrong      bool          `json:"wrong"`
	ClearAfter time.Duration `json:"-"`
}

// Evaluator runs the gate state machine against a loaded configuration.
type Evaluator struct {
	config     *gallery.Config
	matcher    answer.Matcher
	wrongDelay time.Duration
}

// NewEvaluator creates an evaluator. A non-positive wrongDelay falls back
// to DefaultWrongAnswerDelay.
func NewEvaluator(cfg *gallery.Config, matcher answer.Matcher, wrongDelay time.Duration) *Evaluator {
	if wrongDelay <= 0 {
		wrongDelay = DefaultWrongAnswerDelay
	}
	return &Evaluator{
		config:     cfg,
		matcher:    matcher,
		wrongDelay: wrongDelay,
	}
}

// Submit checks input against the scope's question and, on a match,
// unlocks that gate in st. On a mismatch st is left untouched.
func (e *Evaluator) Submit(st *State, scope, input string) (Outcome, error) {
	q, ok := e.config.Question(scope)
	if !ok {
		return Outcome{Scope: scope}, ErrUnknownSection
	}
	if scope != gallery.EntryScope && !st.IsUnlocked(gallery.EntryScope) {
		return Outcome{Scope: scope}, ErrEntryLocked
	}

	if st.IsUnlocked(scope) {
		return Outcome{Scope: scope, Unlocked: true}, nil
	}

	if !e.matcher.Match(input, q.Answers) {
		return Outcome{Scope: scope, Wrong: true, ClearAfter: e.wrongDelay}, nil
	}

	changed := st.unlock(scope)
	return Outcome{Scope: scope, Unlocked: true, Changed: changed}, nil
}

// WrongAnswerDelay returns the configured flag duration.
func (e *Evaluator) WrongAnswerDelay() time.Duration {
	return e.wrongDelay
}
