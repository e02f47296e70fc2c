package idlesession

import "context"

// Notifier receives the user-facing signals. Rendering is up to the host.
type Notifier interface {
	// Warning is called once when the idle window reaches the warning point.
	Warning(ctx context.Context, message string)

	// Timeout is called once when the session has been ended for inactivity.
	Timeout(ctx context.Context)
}

// Dismisser is an optional Notifier extension called when activity
// dismisses a warning that was already shown.
type Dismisser interface {
	WarningDismissed(ctx context.Context)
}

// LogoutFunc clears the host's authentication state after an idle timeout.
type LogoutFunc func(ctx context.Context)

// NotifierFuncs adapts plain functions to Notifier and Dismisser. Nil
// fields are skipped.
type NotifierFuncs struct {
	OnWarning   func(ctx context.Context, message string)
	OnTimeout   func(ctx context.Context)
	OnDismissed func(ctx context.Context)
}

func (n NotifierFuncs) Warning(ctx context.Context, message string) {
	if n.OnWarning != nil {
		n.OnWarning(ctx, message)
	}
}

func (n NotifierFuncs) Timeout(ctx context.Context) {
	if n.OnTimeout != nil {
		n.OnTimeout(ctx)
	}
}

func (n NotifierFuncs) WarningDismissed(ctx context.Context) {
	if n.OnDismissed != nil {
		n.OnDismissed(ctx)
	}
}

type noopNotifier struct{}

func (noopNotifier) Warning(context.Context, string) {}
func (noopNotifier) Timeout(context.Context)         {}
