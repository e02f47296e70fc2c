// Package statemachine provides a small, generic finite state machine.
//
// States and events are any comparable types, typically string-based
// constants declared by the owning package:
//
//	type State string
//	type Event string
//
//	const (
//	    Idle    State = "idle"
//	    Running State = "running"
//	    Start   Event = "start"
//	)
//
//	m := statemachine.MustNew[State, Event](Idle,
//	    statemachine.WithTable([]statemachine.Transition[State, Event]{
//	        {From: Idle, To: Running, Event: Start},
//	    }),
//	)
//
//	next, err := m.Fire(ctx, Start)
//
// Transitions may carry guards (all must pass) and actions (executed in
// order before the state changes; an error aborts the transition). When no
// transition is registered Fire returns a *NoTransitionError, when every
// candidate was blocked by guards it returns a *RejectedError. Use
// IsNoTransition and IsRejected to tell them apart.
//
// A Machine is safe for concurrent use. Guards and actions run while the
// machine lock is held and must not call back into the same machine.
package statemachine
