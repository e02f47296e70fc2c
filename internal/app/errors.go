package app

import "errors"

var (
	ErrUnknownStore    = errors.New("app.unknown_session_store")
	ErrUnknownBackend  = errors.New("app.unknown_backend_driver")
	ErrInvalidSeedUser = errors.New("app.invalid_seed_user")
	ErrRecordTTL       = errors.New("app.record_ttl_shorter_than_timeout")
)
