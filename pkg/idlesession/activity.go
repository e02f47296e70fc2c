package idlesession

import (
	"fmt"
	"strings"
)

// ActivityKind names an input event that counts as user activity.
type ActivityKind string

const (
	ActivityMouseDown  ActivityKind = "mousedown"
	ActivityMouseMove  ActivityKind = "mousemove"
	ActivityKeyPress   ActivityKind = "keypress"
	ActivityScroll     ActivityKind = "scroll"
	ActivityTouchStart ActivityKind = "touchstart"
	ActivityClick      ActivityKind = "click"
	// ActivityVisible is a visibilitychange that made the tab visible again.
	ActivityVisible ActivityKind = "visibilitychange"
)

var activityKinds = map[ActivityKind]struct{}{
	ActivityMouseDown:  {},
	ActivityMouseMove:  {},
	ActivityKeyPress:   {},
	ActivityScroll:     {},
	ActivityTouchStart: {},
	ActivityClick:      {},
	ActivityVisible:    {},
}

// ActivityKinds lists every recognised kind in a stable order.
func ActivityKinds() []ActivityKind {
	return []ActivityKind{
		ActivityMouseDown,
		ActivityMouseMove,
		ActivityKeyPress,
		ActivityScroll,
		ActivityTouchStart,
		ActivityClick,
		ActivityVisible,
	}
}

// ParseActivityKind maps a DOM event name to an ActivityKind. Matching is
// case-insensitive; "pointerdown" and "pointermove" are accepted as
// aliases of their mouse counterparts.
func ParseActivityKind(s string) (ActivityKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "pointerdown":
		return ActivityMouseDown, nil
	case "pointermove":
		return ActivityMouseMove, nil
	}
	k := ActivityKind(name)
	if _, ok := activityKinds[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownActivity, s)
	}
	return k, nil
}

// HighFrequency reports whether browsers emit the kind in bursts.
func (k ActivityKind) HighFrequency() bool {
	return k == ActivityMouseMove || k == ActivityScroll
}

func (k ActivityKind) String() string {
	return string(k)
}
