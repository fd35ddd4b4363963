// Package rbac holds the static role and permission model shared by every
// guard in the service. The table is defined once at init and never mutated;
// clients hydrate their own copy from Catalog instead of duplicating it.
package rbac

// Role is a named category of user determining their default capability set.
type Role string

// Permission is an atomic, named capability check.
type Permission string

const (
	RoleAdmin     Role = "admin"
	RoleUser      Role = "user"
	RoleVolunteer Role = "volunteer"
	RolePatient   Role = "patient"
	RoleSponsor   Role = "sponsor"
	RoleSupporter Role = "supporter"
)

const (
	// User management
	PermViewUsers   Permission = "view_users"
	PermCreateUsers Permission = "create_users"
	PermUpdateUsers Permission = "update_users"
	PermDeleteUsers Permission = "delete_users"

	// Agenda and events
	PermViewAgenda   Permission = "view_agenda"
	PermCreateEvents Permission = "create_events"
	PermUpdateEvents Permission = "update_events"
	PermDeleteEvents Permission = "delete_events"
	PermManageAgenda Permission = "manage_agenda"

	// Dashboard
	PermViewDashboard Permission = "view_dashboard"
	PermViewAnalytics Permission = "view_analytics"

	// Settings
	PermViewSettings  Permission = "view_settings"
	PermUpdateProfile Permission = "update_profile"
	PermDeleteAccount Permission = "delete_account"

	// Registry
	PermViewRegistry   Permission = "view_registry"
	PermManageRegistry Permission = "manage_registry"

	// Administration
	PermAdminAccess    Permission = "admin_access"
	PermSystemSettings Permission = "system_settings"
)

// rolePermissions maps every role to its permission set. Admin must stay the
// superset of all other roles; that property is asserted by a unit test
// rather than enforced here.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermViewUsers,
		PermCreateUsers,
		PermUpdateUsers,
		PermDeleteUsers,
		PermViewAgenda,
		PermCreateEvents,
		PermUpdateEvents,
		PermDeleteEvents,
		PermManageAgenda,
		PermViewDashboard,
		PermViewAnalytics,
		PermViewSettings,
		PermUpdateProfile,
		PermDeleteAccount,
		PermViewRegistry,
		PermManageRegistry,
		PermAdminAccess,
		PermSystemSettings,
	},
	RoleVolunteer: {
		PermViewAgenda,
		PermViewDashboard,
		PermViewSettings,
		PermUpdateProfile,
		PermViewRegistry,
	},
	RolePatient: {
		PermViewAgenda,
		PermViewDashboard,
		PermViewSettings,
		PermUpdateProfile,
		PermViewRegistry,
	},
	RoleSponsor: {
		PermViewAgenda,
		PermViewDashboard,
		PermViewSettings,
		PermUpdateProfile,
		PermViewRegistry,
	},
	RoleSupporter: {
		PermViewAgenda,
		PermViewDashboard,
		PermViewSettings,
		PermUpdateProfile,
		PermViewRegistry,
	},
	RoleUser: {
		PermViewDashboard,
		PermViewSettings,
		PermUpdateProfile,
		PermViewRegistry,
	},
}

// routeGrants pairs a gating permission with the route it unlocks. Order is
// the order routes appear in AccessibleRoutes output.
var routeGrants = []struct {
	perm  Permission
	route string
}{
	{PermViewAgenda, "/agenda"},
	{PermViewDashboard, "/dashboard"},
	{PermViewSettings, "/settings"},
	{PermViewRegistry, "/registry"},
	{PermAdminAccess, "/admin"},
}

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleUser, RoleVolunteer, RolePatient, RoleSponsor, RoleSupporter}
}

// Known reports whether the role is part of the model.
func Known(role Role) bool {
	_, ok := rolePermissions[role]
	return ok
}

// PermissionsForRole returns the permission set for the role. Unknown roles
// get an empty set, never an error.
func PermissionsForRole(role Role) []Permission {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether the role grants the permission.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether the role grants at least one of the
// permissions. An empty input is false.
func HasAnyPermission(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if HasPermission(role, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the role grants every permission in the
// input. An empty input is vacuously true.
func HasAllPermissions(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if !HasPermission(role, p) {
			return false
		}
	}
	return true
}

// AccessibleRoutes returns the route paths the role may reach, in grant
// declaration order. A route appears at most once.
func AccessibleRoutes(role Role) []string {
	var routes []string
	for _, g := range routeGrants {
		if HasPermission(role, g.perm) {
			routes = append(routes, g.route)
		}
	}
	return routes
}

// AllPermissions returns the closed permission set, taken from the admin row.
func AllPermissions() []Permission {
	return PermissionsForRole(RoleAdmin)
}

// ValidPermission reports whether the key names a known permission.
func ValidPermission(perm Permission) bool {
	for _, p := range rolePermissions[RoleAdmin] {
		if p == perm {
			return true
		}
	}
	return false
}

// Catalog returns the full role→permission table as plain strings. It is the
// single source of truth exported to clients so frontend copies cannot drift.
func Catalog() map[string][]string {
	out := make(map[string][]string, len(rolePermissions))
	for role, perms := range rolePermissions {
		keys := make([]string, len(perms))
		for i, p := range perms {
			keys[i] = string(p)
		}
		out[string(role)] = keys
	}
	return out
}
