package statemachine

// Option configures a machine during construction.
type Option[S, E comparable] func(*Machine[S, E]) error

// TransitionOption attaches guards or actions to a single transition.
type TransitionOption[S, E comparable] func(*transition[S, E])

// Transition describes one row of a transition table.
type Transition[S, E comparable] struct {
	From  S
	To    S
	Event E
}

// WithTransition adds a single transition.
func WithTransition[S, E comparable](from, to S, event E, opts ...TransitionOption[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		t := &transition[S, E]{to: to}
		for _, opt := range opts {
			opt(t)
		}
		m.Add(from, to, event, t.guards, t.actions)
		return nil
	}
}

// WithTable adds every row of a transition table. Rows without guards or
// actions are the common case for lifecycle machines.
func WithTable[S, E comparable](rows []Transition[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		if len(rows) == 0 {
			return ErrEmptyTable
		}
		for _, r := range rows {
			m.Add(r.From, r.To, r.Event, nil, nil)
		}
		return nil
	}
}

// WithGuard adds a guard to a transition. Nil guards are ignored.
func WithGuard[S, E comparable](g Guard[S, E]) TransitionOption[S, E] {
	return func(t *transition[S, E]) {
		if g != nil {
			t.guards = append(t.guards, g)
		}
	}
}

// WithAction adds an action to a transition. Nil actions are ignored.
func WithAction[S, E comparable](a Action[S, E]) TransitionOption[S, E] {
	return func(t *transition[S, E]) {
		if a != nil {
			t.actions = append(t.actions, a)
		}
	}
}
