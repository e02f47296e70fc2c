package idlesession

import "errors"

var (
	// ErrNotFound is returned by a Store when the key is absent.
	ErrNotFound = errors.New("idlesession.not_found")

	// ErrInvalidRecord indicates a stored record that cannot be decoded or
	// breaks the lastActivity >= loginTime invariant.
	ErrInvalidRecord = errors.New("idlesession.invalid_record")

	// ErrInvalidConfig indicates a Config rejected by Validate.
	ErrInvalidConfig = errors.New("idlesession.invalid_config")

	// ErrUnknownActivity is returned by ParseActivityKind.
	ErrUnknownActivity = errors.New("idlesession.unknown_activity")
)
