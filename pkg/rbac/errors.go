package rbac

import "errors"

var (
	// ErrInvalidRole is returned when a role does not exist.
	ErrInvalidRole = errors.New("rbac.invalid_role")

	// ErrInsufficientPermissions is returned when required permissions are not granted.
	ErrInsufficientPermissions = errors.New("rbac.insufficient_permissions")

	// ErrRoleNotInContext is returned when no role is found in the context.
	ErrRoleNotInContext = errors.New("rbac.role_not_in_context")

	// ErrCircularInheritance is returned when roles have circular inheritance.
	ErrCircularInheritance = errors.New("rbac.circular_inheritance")

	// ErrNoDashboard is returned when neither a role nor its ancestors define a dashboard.
	ErrNoDashboard = errors.New("rbac.no_dashboard")

	// ErrInvalidRoleFile is returned when a YAML role file cannot be read or parsed.
	ErrInvalidRoleFile = errors.New("rbac.invalid_role_file")
)
