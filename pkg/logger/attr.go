package logger

import (
	"log/slog"
	"time"
)

// Error records err under the key "error". Nil errors produce an empty Attr,
// which slog skips.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under "user_id".
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// TabID records the browser tab identifier under "tab_id".
func TabID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("tab_id", id)
}

// Role records a role name under "role".
func Role(role string) slog.Attr {
	if role == "" {
		return slog.Attr{}
	}
	return slog.String("role", role)
}

// RequestID records the request identifier under "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// State records a lifecycle state under "state".
func State(s string) slog.Attr {
	return slog.String("state", s)
}

// Event records an event name under "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Component records the component name under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Duration records d under "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Key records a storage key under "key".
func Key(k string) slog.Attr {
	return slog.String("key", k)
}
