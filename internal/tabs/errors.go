package tabs

import "errors"

var (
	ErrTabNotFound   = errors.New("tabs.not_found")
	ErrEmptyUserID   = errors.New("tabs.empty_user_id")
	ErrRegistryShut  = errors.New("tabs.registry_shut_down")
	ErrInvalidTabID  = errors.New("tabs.invalid_tab_id")
	errNoStoredState = errors.New("tabs.no_stored_state")
)
