package rbac

// MaxInheritanceDepth is the maximum allowed depth of role inheritance.
const MaxInheritanceDepth = 10

// Role is a set of permissions with optional inheritance.
type Role struct {
	// Permissions directly granted to this role. Dotted scopes with an
	// optional trailing wildcard ("inventory.*", "*").
	Permissions []string `yaml:"permissions"`

	// Inherits lists role names whose permissions are included.
	Inherits []string `yaml:"inherits"`

	// Dashboard is the landing page path for users with this role.
	Dashboard string `yaml:"dashboard"`
}

// Can checks if the role has the specified permission directly.
// Inherited permissions are not considered.
func (r Role) Can(permission string) bool {
	return hasScope(r.Permissions, permission)
}

func (r Role) clone() Role {
	return Role{
		Permissions: append([]string(nil), r.Permissions...),
		Inherits:    append([]string(nil), r.Inherits...),
		Dashboard:   r.Dashboard,
	}
}
