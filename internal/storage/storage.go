package storage

import (
	"context"
	"errors"
	"maps"

	"github.com/google/uuid"
	"github.com/jwebster45206/memory-gate/pkg/unlock"
)

// ErrConflict is returned when an update keeps losing optimistic-lock races.
var ErrConflict = errors.New("unlock state update conflict")

// UpdateFunc mutates a visitor's state and reports whether it changed.
// Unchanged states are not written back.
type UpdateFunc func(st *unlock.State) (bool, error)

// UnlockStore persists per-visitor unlock state.
type UnlockStore interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Load returns nil if the visitor has no stored state.
	Load(ctx context.Context, visitorID uuid.UUID) (*unlock.State, error)

	// Update loads (or creates) the visitor's state, applies fn and saves
	// the result if fn reports a change. It returns the state fn saw.
	Update(ctx context.Context, visitorID uuid.UUID, fn UpdateFunc) (*unlock.State, error)
}

func cloneState(st *unlock.State) *unlock.State {
	if st == nil {
		return nil
	}
	c := *st
	c.Sections = maps.Clone(st.Sections)
	return &c
}
