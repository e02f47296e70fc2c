package rbac

// Built-in role names.
const (
	RoleAdmin        = "admin"
	RoleStockManager = "stock_manager"
	RoleEmployee     = "employee"
)

// Built-in dashboard paths.
const (
	DashboardAdmin    = "/dashboard/admin"
	DashboardStock    = "/dashboard/stock"
	DashboardEmployee = "/dashboard/employee"
)

// Permissions used by the inventory dashboards.
const (
	PermItemsRead       = "items.read"
	PermItemsWrite      = "items.write"
	PermIssuanceRead    = "issuance.read"
	PermIssuanceWrite   = "issuance.write"
	PermUsersManage     = "users.manage"
	PermDashboardPrefix = "dashboard."
)

// DefaultRoles returns the inventory role set: admin inherits from
// stock_manager, which inherits from employee.
func DefaultRoles() map[string]Role {
	return map[string]Role{
		RoleEmployee: {
			Permissions: []string{PermItemsRead, PermIssuanceRead, "dashboard.employee"},
			Dashboard:   DashboardEmployee,
		},
		RoleStockManager: {
			Permissions: []string{"items.*", "issuance.*", "dashboard.stock"},
			Inherits:    []string{RoleEmployee},
			Dashboard:   DashboardStock,
		},
		RoleAdmin: {
			Permissions: []string{"users.*", "dashboard.*"},
			Inherits:    []string{RoleStockManager},
			Dashboard:   DashboardAdmin,
		},
	}
}

// NewDefaultRoleSource returns a RoleSource serving DefaultRoles.
func NewDefaultRoleSource() RoleSource {
	return NewInMemRoleSource(DefaultRoles())
}
