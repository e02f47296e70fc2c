package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Guard evaluates whether a transition may proceed. All guards of a
// transition must pass.
type Guard[S, E comparable] func(ctx context.Context, from S, event E) bool

// Action runs while a transition is applied. A returned error aborts the
// transition and leaves the machine in its source state.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E) error

type transition[S, E comparable] struct {
	to      S
	guards  []Guard[S, E]
	actions []Action[S, E]
}

// Machine is a thread-safe finite state machine keyed by comparable state
// and event types. Lookups are O(1) through a [from][event] table.
type Machine[S, E comparable] struct {
	mu          sync.RWMutex
	initial     S
	current     S
	transitions map[S]map[E][]transition[S, E]
}

// New creates a machine in the initial state and applies all options.
func New[S, E comparable](initial S, opts ...Option[S, E]) (*Machine[S, E], error) {
	m := &Machine[S, E]{
		initial:     initial,
		current:     initial,
		transitions: make(map[S]map[E][]transition[S, E]),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// MustNew is like New but panics when an option fails.
func MustNew[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("statemachine: %v", err))
	}
	return m
}

// Current returns the current state.
func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the machine is in any of the given states.
func (m *Machine[S, E]) Is(states ...S) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range states {
		if s == m.current {
			return true
		}
	}
	return false
}

// Add registers a transition. Several transitions may share a from/event
// pair; the first one whose guards pass wins.
func (m *Machine[S, E]) Add(from, to S, event E, guards []Guard[S, E], actions []Action[S, E]) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transitions[from]; !ok {
		m.transitions[from] = make(map[E][]transition[S, E])
	}
	m.transitions[from][event] = append(m.transitions[from][event], transition[S, E]{
		to:      to,
		guards:  guards,
		actions: actions,
	})
}

// Fire applies the event to the current state and returns the resulting state.
func (m *Machine[S, E]) Fire(ctx context.Context, event E) (S, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.current
	t, err := m.lookup(ctx, from, event)
	if err != nil {
		return from, err
	}

	for _, action := range t.actions {
		if err := action(ctx, from, t.to, event); err != nil {
			return from, fmt.Errorf("statemachine: action failed: %w", err)
		}
	}

	m.current = t.to
	return t.to, nil
}

// CanFire reports whether Fire would succeed, ignoring action failures.
func (m *Machine[S, E]) CanFire(ctx context.Context, event E) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, err := m.lookup(ctx, m.current, event)
	return err == nil
}

// Reset moves the machine back to its initial state.
func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	m.current = m.initial
	m.mu.Unlock()
}

// Force sets the current state without consulting the transition table.
// It exists for restoring a machine from persisted state.
func (m *Machine[S, E]) Force(state S) {
	m.mu.Lock()
	m.current = state
	m.mu.Unlock()
}

// lookup must be called with m.mu held.
func (m *Machine[S, E]) lookup(ctx context.Context, from S, event E) (transition[S, E], error) {
	candidates := m.transitions[from][event]
	if len(candidates) == 0 {
		return transition[S, E]{}, newNoTransitionError(from, event)
	}

	for _, t := range candidates {
		if guardsPass(ctx, t.guards, from, event) {
			return t, nil
		}
	}

	return transition[S, E]{}, newRejectedError(from, event)
}

func guardsPass[S, E comparable](ctx context.Context, guards []Guard[S, E], from S, event E) bool {
	for _, g := range guards {
		if g != nil && !g(ctx, from, event) {
			return false
		}
	}
	return true
}
