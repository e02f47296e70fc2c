package rbac

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
)

// Authorizer maps roles to permissions and landing dashboards.
type Authorizer interface {
	// Can checks if a role has the specified permission (direct or inherited).
	Can(roleName, permission string) error

	// CanAny checks if a role has any of the provided permissions.
	CanAny(roleName string, permissions ...string) error

	// CanAll checks if a role has all of the provided permissions.
	CanAll(roleName string, permissions ...string) error

	// CanFromContext checks if the role in context has the specified permission.
	CanFromContext(ctx context.Context, permission string) error

	// VerifyRole returns an error if the given role does not exist.
	VerifyRole(role string) error

	// Dashboard returns the landing dashboard of a role, falling back to
	// the nearest ancestor that defines one.
	Dashboard(role string) (string, error)

	// Roles returns all role names, base roles first.
	Roles() []string
}

// RoleSource provides role definitions.
type RoleSource interface {
	Load(ctx context.Context) (map[string]Role, error)
}

type authorizer struct {
	// Resolved data is immutable after construction.
	permissions map[string][]string
	dashboards  map[string]string
	sorted      []string
}

// NewAuthorizer loads roles from source, rejects cyclic or too deep
// inheritance and precomputes the effective permissions of every role.
func NewAuthorizer(ctx context.Context, source RoleSource) (Authorizer, error) {
	roles, err := source.Load(ctx)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = make(map[string]Role)
	}

	depths, err := inheritanceDepths(roles)
	if err != nil {
		return nil, err
	}

	a := &authorizer{
		permissions: make(map[string][]string, len(roles)),
		dashboards:  make(map[string]string, len(roles)),
		sorted:      make([]string, 0, len(roles)),
	}
	for name := range roles {
		a.permissions[name] = normalizeScopes(collectPermissions(name, roles, make(map[string]bool)))
		if d := findDashboard(name, roles, make(map[string]bool)); d != "" {
			a.dashboards[name] = d
		}
		a.sorted = append(a.sorted, name)
	}
	slices.SortFunc(a.sorted, func(x, y string) int {
		return cmp.Or(cmp.Compare(depths[x], depths[y]), cmp.Compare(x, y))
	})

	return a, nil
}

func (a *authorizer) Can(roleName, permission string) error {
	granted, ok := a.permissions[roleName]
	if !ok {
		return ErrInvalidRole
	}
	if !hasScope(granted, permission) {
		return ErrInsufficientPermissions
	}
	return nil
}

func (a *authorizer) CanAny(roleName string, permissions ...string) error {
	granted, ok := a.permissions[roleName]
	if !ok {
		return ErrInvalidRole
	}
	if len(permissions) == 0 {
		return nil
	}
	for _, p := range permissions {
		if hasScope(granted, p) {
			return nil
		}
	}
	return ErrInsufficientPermissions
}

func (a *authorizer) CanAll(roleName string, permissions ...string) error {
	granted, ok := a.permissions[roleName]
	if !ok {
		return ErrInvalidRole
	}
	for _, p := range permissions {
		if !hasScope(granted, p) {
			return ErrInsufficientPermissions
		}
	}
	return nil
}

func (a *authorizer) CanFromContext(ctx context.Context, permission string) error {
	role, ok := GetRoleFromContext(ctx)
	if !ok {
		return errors.Join(ErrRoleNotInContext, ErrInsufficientPermissions)
	}
	return a.Can(role, permission)
}

func (a *authorizer) VerifyRole(role string) error {
	if _, ok := a.permissions[role]; !ok {
		return ErrInvalidRole
	}
	return nil
}

func (a *authorizer) Dashboard(role string) (string, error) {
	if _, ok := a.permissions[role]; !ok {
		return "", ErrInvalidRole
	}
	d, ok := a.dashboards[role]
	if !ok {
		return "", ErrNoDashboard
	}
	return d, nil
}

func (a *authorizer) Roles() []string {
	return slices.Clone(a.sorted)
}

func collectPermissions(name string, roles map[string]Role, seen map[string]bool) []string {
	if seen[name] {
		return nil
	}
	seen[name] = true

	role, ok := roles[name]
	if !ok {
		return nil
	}
	out := slices.Clone(role.Permissions)
	for _, parent := range role.Inherits {
		out = append(out, collectPermissions(parent, roles, seen)...)
	}
	return out
}

// findDashboard walks parents in declaration order.
func findDashboard(name string, roles map[string]Role, seen map[string]bool) string {
	if seen[name] {
		return ""
	}
	seen[name] = true

	role, ok := roles[name]
	if !ok {
		return ""
	}
	if role.Dashboard != "" {
		return role.Dashboard
	}
	for _, parent := range role.Inherits {
		if d := findDashboard(parent, roles, seen); d != "" {
			return d
		}
	}
	return ""
}

// inheritanceDepths returns the depth of every role (0 for roles without
// parents) and fails on cycles or depth above MaxInheritanceDepth.
// Parents missing from the map count as depth 0.
func inheritanceDepths(roles map[string]Role) (map[string]int, error) {
	depths := make(map[string]int, len(roles))
	inProgress := make(map[string]bool)

	var visit func(name string, path []string) (int, error)
	visit = func(name string, path []string) (int, error) {
		if d, ok := depths[name]; ok {
			return d, nil
		}
		if inProgress[name] {
			return 0, errors.Join(ErrCircularInheritance,
				fmt.Errorf("circular inheritance detected: %v -> %s", path, name))
		}
		role, ok := roles[name]
		if !ok {
			return 0, nil
		}

		inProgress[name] = true
		depth := 0
		for _, parent := range role.Inherits {
			d, err := visit(parent, append(path, name))
			if err != nil {
				return 0, err
			}
			depth = max(depth, d+1)
		}
		inProgress[name] = false

		if depth > MaxInheritanceDepth {
			return 0, errors.Join(ErrCircularInheritance,
				fmt.Errorf("inheritance depth of %s exceeds maximum allowed depth of %d", name, MaxInheritanceDepth))
		}
		depths[name] = depth
		return depth, nil
	}

	for name := range roles {
		if _, err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return depths, nil
}
