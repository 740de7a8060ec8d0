package models

import "fmt"

// Role is the access role of an administrator.
type Role string

// Supported administrator roles.
const (
	// RoleAdmin manages site content.
	RoleAdmin Role = "admin"
	// RoleSuperAdmin additionally manages other administrators.
	RoleSuperAdmin Role = "super-admin"
)

// ParseRole converts a raw role name into a Role.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleSuperAdmin:
		return RoleSuperAdmin, nil
	default:
		return "", fmt.Errorf("models: unknown role %q", raw)
	}
}

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// String returns the role name.
func (r Role) String() string { return string(r) }
