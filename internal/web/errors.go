package web

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/stockroom/internal/backend"
	"github.com/dmitrymomot/stockroom/internal/tabs"
	"github.com/dmitrymomot/stockroom/pkg/binder"
	"github.com/dmitrymomot/stockroom/pkg/broadcast"
	"github.com/dmitrymomot/stockroom/pkg/handler"
	"github.com/dmitrymomot/stockroom/pkg/idlesession"
	"github.com/dmitrymomot/stockroom/pkg/rbac"
	"github.com/dmitrymomot/stockroom/pkg/validator"
)

var (
	errSessionExpired     = handler.NewHTTPError(http.StatusUnauthorized, "session_expired")
	errInvalidCredentials = handler.NewHTTPError(http.StatusUnauthorized, "invalid_credentials")
	errUnknownRole        = handler.NewHTTPError(http.StatusForbidden, "unknown_role")
	errNoDashboard        = handler.NewHTTPError(http.StatusNotFound, "no_dashboard")
	errInvalidRequest     = handler.NewHTTPError(http.StatusBadRequest, "invalid_request")
	errTooManyAttempts    = handler.NewHTTPError(http.StatusTooManyRequests, "too_many_attempts")
)

// mapError translates domain errors into HTTP errors. It is the only place
// where status codes are chosen for them.
func mapError(err error) error {
	var httpErr handler.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	if errs, ok := validator.Extract(err); ok {
		verr := handler.NewValidationError()
		for field, msgs := range errs.Fields() {
			for _, msg := range msgs {
				verr.Add(field, msg)
			}
		}
		return verr
	}

	var mapped handler.HTTPError
	switch {
	case errors.Is(err, tabs.ErrTabNotFound),
		errors.Is(err, tabs.ErrInvalidTabID),
		errors.Is(err, backend.ErrSessionNotFound):
		mapped = errSessionExpired
	case errors.Is(err, backend.ErrInvalidCredentials):
		mapped = errInvalidCredentials
	case errors.Is(err, rbac.ErrInvalidRole):
		mapped = errUnknownRole
	case errors.Is(err, rbac.ErrInsufficientPermissions),
		errors.Is(err, rbac.ErrRoleNotInContext):
		mapped = handler.ErrForbidden
	case errors.Is(err, rbac.ErrNoDashboard):
		mapped = errNoDashboard
	case errors.Is(err, backend.ErrDuplicateRecord):
		mapped = handler.ErrConflict
	case errors.Is(err, idlesession.ErrUnknownActivity),
		errors.Is(err, binder.ErrFailedToParseJSON),
		errors.Is(err, binder.ErrFailedToParseQuery),
		errors.Is(err, binder.ErrFailedToParsePath):
		mapped = errInvalidRequest
	case errors.Is(err, binder.ErrMissingContentType),
		errors.Is(err, binder.ErrUnsupportedMediaType):
		mapped = handler.ErrUnsupportedMediaType
	case errors.Is(err, tabs.ErrRegistryShut),
		errors.Is(err, broadcast.ErrHubClosed):
		mapped = handler.ErrServiceUnavailable
	default:
		return err
	}
	return errors.Join(mapped, err)
}
