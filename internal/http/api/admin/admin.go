// Package admin registers the authentication and back-office routes.
package admin

import (
	"github.com/estatehub/backoffice/internal/audit"
	"github.com/estatehub/backoffice/internal/auth"
	internalhttp "github.com/estatehub/backoffice/internal/http"
	"github.com/estatehub/backoffice/internal/http/api/admin/handlers"
	"github.com/estatehub/backoffice/internal/metrics"
	"github.com/estatehub/backoffice/internal/ratelimit"
	"github.com/estatehub/backoffice/internal/site"
	"github.com/gin-gonic/gin"
)

// Rate limit messages returned with HTTP 429.
const (
	LoginRateLimitMessage    = "Too many login attempts, please try again later"
	RegisterRateLimitMessage = "Too many registration attempts, please try again later"
)

// Deps bundles the services behind the admin routes.
type Deps struct {
	Auth            *auth.Service
	Events          *audit.Recorder
	Site            *site.Store
	Images          *site.ImageStore
	LoginLimiter    ratelimit.Limiter
	RegisterLimiter ratelimit.Limiter
	Metrics         *metrics.Metrics
}

// RegisterAdminRoutes registers /api/auth and the protected content routes.
func RegisterAdminRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.Auth == nil || deps.Site == nil {
		return
	}

	api := r.Group("/api")
	authenticated := internalhttp.Authenticate(deps.Auth)

	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Events)
	authGroup := api.Group("/auth")
	authGroup.POST("/register",
		internalhttp.RateLimit(deps.RegisterLimiter, "register", RegisterRateLimitMessage, deps.Metrics),
		authHandler.Register)
	authGroup.POST("/login",
		internalhttp.RateLimit(deps.LoginLimiter, "login", LoginRateLimitMessage, deps.Metrics),
		authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/me", authenticated, authHandler.Me)
	authGroup.GET("/events", authenticated, authHandler.Events)
	authGroup.POST("/revoke-all-sessions", authenticated, authHandler.RevokeAllSessions)
	authGroup.POST("/unlock/:adminId", authenticated, internalhttp.Authorize(auth.SuperAdminRoles...), authHandler.Unlock)

	content := api.Group("")
	content.Use(authenticated, internalhttp.Authorize(auth.ContentRoles...))

	projectHandler := handlers.NewProjectHandler(deps.Site, deps.Images)
	content.POST("/projects", projectHandler.Create)
	content.PUT("/projects/:id", projectHandler.Update)
	content.DELETE("/projects/:id", projectHandler.Delete)

	clientHandler := handlers.NewClientHandler(deps.Site, deps.Images)
	content.POST("/clients", clientHandler.Create)
	content.PUT("/clients/:id", clientHandler.Update)
	content.DELETE("/clients/:id", clientHandler.Delete)

	inboxHandler := handlers.NewInboxHandler(deps.Site)
	content.GET("/contact", inboxHandler.ListContacts)
	content.DELETE("/contact/:id", inboxHandler.DeleteContact)
	content.GET("/newsletter", inboxHandler.ListSubscriptions)
	content.DELETE("/newsletter/:id", inboxHandler.DeleteSubscription)
}
