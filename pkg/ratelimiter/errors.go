package ratelimiter

import "errors"

var (
	// ErrInvalidConfig is returned by New for non-positive burst or interval.
	ErrInvalidConfig = errors.New("ratelimiter.invalid_config")

	// ErrEmptyKey is returned when a request cannot be attributed to a key.
	ErrEmptyKey = errors.New("ratelimiter.empty_key")
)
