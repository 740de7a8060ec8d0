package http

import (
	"strings"

	"github.com/estatehub/backoffice/internal/auth"
	"github.com/estatehub/backoffice/internal/models"
	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware.
const (
	AdminIDKey   = "adminID"
	AdminRoleKey = "adminRole"
)

// TokenVerifier resolves a bearer token to a caller identity.
type TokenVerifier interface {
	VerifyAccessToken(token string) (auth.Identity, error)
}

// Authenticate requires a valid bearer access token and stores the caller
// identity in the gin context.
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			AbortWithError(c, auth.ErrUnauthorized)
			return
		}
		identity, errVerify := verifier.VerifyAccessToken(token)
		if errVerify != nil {
			AbortWithError(c, errVerify)
			return
		}
		setIdentity(c, identity)
		c.Next()
	}
}

// OptionalAuthenticate stores the caller identity when a valid bearer token
// is present and otherwise continues anonymously.
func OptionalAuthenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if identity, errVerify := verifier.VerifyAccessToken(token); errVerify == nil {
				setIdentity(c, identity)
			}
		}
		c.Next()
	}
}

// Authorize requires Authenticate to have run and the caller role to be one
// of roles.
func Authorize(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			AbortWithError(c, &auth.Error{Kind: auth.KindUnauthorized, Message: "Authentication required"})
			return
		}
		if !auth.Authorize(roles, identity.Role) {
			AbortWithError(c, auth.ErrForbidden)
			return
		}
		c.Next()
	}
}

// IdentityFromContext returns the identity stored by the auth middleware.
func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	adminIDValue, exists := c.Get(AdminIDKey)
	if !exists {
		return auth.Identity{}, false
	}
	adminID, okID := adminIDValue.(uint64)
	roleValue, _ := c.Get(AdminRoleKey)
	role, okRole := roleValue.(models.Role)
	if !okID || !okRole || adminID == 0 {
		return auth.Identity{}, false
	}
	return auth.Identity{AdminID: adminID, Role: role}, true
}

func setIdentity(c *gin.Context, identity auth.Identity) {
	c.Set(AdminIDKey, identity.AdminID)
	c.Set(AdminRoleKey, identity.Role)
}

func bearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
