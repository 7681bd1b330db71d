// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access
	RoleAdmin UserRole = "admin"

	// Default role for registered researchers running reviews
	RoleResearcher UserRole = "researcher"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 40
	case RoleResearcher:
		return 10
	default:
		return 0
	}
}
