// Package rbac maps roles to dotted permissions and landing dashboards.
//
// Roles may inherit from other roles; effective permissions are resolved
// once in NewAuthorizer, so checks are map lookups plus wildcard matching
// ("items.*" grants "items.write", "*" grants everything).
//
//	auth, err := rbac.NewAuthorizer(ctx, rbac.NewDefaultRoleSource())
//	if err != nil {
//	    return err
//	}
//	if err := auth.Can(rbac.RoleEmployee, rbac.PermItemsWrite); err != nil {
//	    // rbac.ErrInsufficientPermissions
//	}
//	path, _ := auth.Dashboard(rbac.RoleStockManager) // "/dashboard/stock"
//
// DefaultRoles defines the inventory hierarchy admin > stock_manager >
// employee. Role sets can also come from a map (NewInMemRoleSource) or a
// YAML file (NewYAMLRoleSource).
package rbac
