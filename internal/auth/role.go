package auth

import (
	"slices"

	"github.com/estatehub/backoffice/internal/models"
)

// Identity is the verified caller extracted from an access token.
type Identity struct {
	AdminID uint64
	Role    models.Role
}

// Authorize reports whether actual is one of the allowed roles.
func Authorize(allowed []models.Role, actual models.Role) bool {
	if !actual.Valid() {
		return false
	}
	return slices.Contains(allowed, actual)
}

// ContentRoles may manage site content.
var ContentRoles = []models.Role{models.RoleAdmin, models.RoleSuperAdmin}

// SuperAdminRoles may manage other administrators.
var SuperAdminRoles = []models.Role{models.RoleSuperAdmin}
