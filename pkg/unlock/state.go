package unlock

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/memory-gate/pkg/gallery"
)

// State is one visitor's unlock progress. Gates only ever move from
// locked to unlocked; nothing re-locks them.
type State struct {
	VisitorID uuid.UUID       `json:"visitor_id"`
	Entry     bool            `json:"entry"`              // Entry gate passed; gates whether sections render at all
	Sections  map[string]bool `json:"sections,omitempty"` // Unlocked section IDs
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewState returns an all-locked state for a visitor.
func NewState(visitorID uuid.UUID) *State {
	now := time.Now()
	return &State{
		VisitorID: visitorID,
		Sections:  make(map[string]bool),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsUnlocked reports whether the gate for scope has been passed. The
// entry scope maps onto the Entry flag.
func (s *State) IsUnlocked(scope string) bool {
	if s == nil {
		return false
	}
	if scope == gallery.EntryScope {
		return s.Entry
	}
	return s.Sections[scope]
}

// UnlockedSections returns unlocked section IDs in sorted order.
func (s *State) UnlockedSections() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.Sections))
	for id, ok := range s.Sections {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// unlock flips one gate. It reports whether anything changed.
func (s *State) unlock(scope string) bool {
	if s.IsUnlocked(scope) {
		return false
	}
	if scope == gallery.EntryScope {
		s.Entry = true
	} else {
		if s.Sections == nil {
			s.Sections = make(map[string]bool)
		}
		s.Sections[scope] = true
	}
	s.UpdatedAt = time.Now()
	return true
}
