package statemachine

import (
	"errors"
	"fmt"
)

// ErrEmptyTable is returned by WithTable when no rows are supplied.
var ErrEmptyTable = errors.New("statemachine.empty_table")

// NoTransitionError indicates that no transition is registered for the
// state/event pair.
type NoTransitionError struct {
	State string
	Event string
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("no transition available from state '%s' for event '%s'", e.State, e.Event)
}

// RejectedError indicates that transitions exist but every one was
// blocked by its guards.
type RejectedError struct {
	State string
	Event string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("transition from state '%s' for event '%s' was rejected by guards", e.State, e.Event)
}

func newNoTransitionError(state, event any) *NoTransitionError {
	return &NoTransitionError{State: fmt.Sprint(state), Event: fmt.Sprint(event)}
}

func newRejectedError(state, event any) *RejectedError {
	return &RejectedError{State: fmt.Sprint(state), Event: fmt.Sprint(event)}
}

// IsNoTransition reports whether err is a NoTransitionError.
func IsNoTransition(err error) bool {
	var e *NoTransitionError
	return errors.As(err, &e)
}

// IsRejected reports whether err is a RejectedError.
func IsRejected(err error) bool {
	var e *RejectedError
	return errors.As(err, &e)
}
