package broadcast

import "errors"

var (
	// ErrHubClosed is returned when subscribing to or publishing on a closed hub.
	ErrHubClosed = errors.New("broadcast.hub_closed")

	// ErrEmptyTopic is returned for an empty topic name.
	ErrEmptyTopic = errors.New("broadcast.empty_topic")
)
