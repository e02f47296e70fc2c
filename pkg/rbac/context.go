package rbac

import "context"

type roleCtxKey struct{}

// SetRoleToContext stores the authenticated user's role in ctx.
func SetRoleToContext(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleCtxKey{}, role)
}

// GetRoleFromContext returns the role stored by SetRoleToContext. An empty
// role counts as absent.
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(roleCtxKey{}).(string)
	return role, ok && role != ""
}
