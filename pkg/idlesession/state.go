package idlesession

import "github.com/dmitrymomot/stockroom/pkg/statemachine"

// State is the lifecycle state of a Manager.
type State string

const (
	StateNoSession    State = "no_session"
	StateActive       State = "active"
	StateWarningShown State = "warning_shown"
)

func (s State) String() string { return string(s) }

type event string

const (
	eventStart    event = "start"
	eventActivity event = "activity"
	eventWarn     event = "warn"
	eventExpire   event = "expire"
	eventEnd      event = "end"
)

var lifecycle = []statemachine.Transition[State, event]{
	{From: StateNoSession, To: StateActive, Event: eventStart},
	{From: StateActive, To: StateActive, Event: eventStart},
	{From: StateWarningShown, To: StateActive, Event: eventStart},

	{From: StateActive, To: StateActive, Event: eventActivity},
	{From: StateWarningShown, To: StateActive, Event: eventActivity},

	{From: StateActive, To: StateWarningShown, Event: eventWarn},

	{From: StateActive, To: StateNoSession, Event: eventExpire},
	{From: StateWarningShown, To: StateNoSession, Event: eventExpire},

	{From: StateActive, To: StateNoSession, Event: eventEnd},
	{From: StateWarningShown, To: StateNoSession, Event: eventEnd},
	{From: StateNoSession, To: StateNoSession, Event: eventEnd},
}

func newLifecycle() *statemachine.Machine[State, event] {
	return statemachine.MustNew[State, event](StateNoSession, statemachine.WithTable(lifecycle))
}
