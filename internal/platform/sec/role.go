// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access across every tenant
	RoleSuperAdmin UserRole = "superadmin"

	// Can manage users, plugins and courses within their own tenant
	RoleTenantAdmin UserRole = "tenantadmin"

	// Can author, publish and translate their own courses
	RoleAuthor UserRole = "author"

	// Read-only access to shared courses and previews
	RoleViewer UserRole = "viewer"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-40) allows for future intermediate roles
	switch r {
	case RoleSuperAdmin:
		return 40
	case RoleTenantAdmin:
		return 30
	case RoleAuthor:
		return 20
	case RoleViewer:
		return 10
	default:
		return 0
	}
}
