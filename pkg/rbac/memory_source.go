package rbac

import "context"

type inMemRoleSource struct {
	roles map[string]Role
}

// NewInMemRoleSource creates a RoleSource from a map of roles. The map is
// deep-copied, so later changes by the caller have no effect.
func NewInMemRoleSource(roles map[string]Role) RoleSource {
	cp := make(map[string]Role, len(roles))
	for name, r := range roles {
		cp[name] = r.clone()
	}
	return &inMemRoleSource{roles: cp}
}

func (s *inMemRoleSource) Load(context.Context) (map[string]Role, error) {
	out := make(map[string]Role, len(s.roles))
	for name, r := range s.roles {
		out[name] = r.clone()
	}
	return out, nil
}
