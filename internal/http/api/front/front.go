// Package front registers the public landing-page routes.
package front

import (
	"github.com/estatehub/backoffice/internal/auth"
	internalhttp "github.com/estatehub/backoffice/internal/http"
	adminhandlers "github.com/estatehub/backoffice/internal/http/api/admin/handlers"
	"github.com/estatehub/backoffice/internal/http/api/front/handlers"
	"github.com/estatehub/backoffice/internal/metrics"
	"github.com/estatehub/backoffice/internal/site"
	"github.com/gin-gonic/gin"
)

// RegisterFrontRoutes registers public endpoints, health, metrics and the
// static upload directory.
func RegisterFrontRoutes(r *gin.Engine, store *site.Store, images *site.ImageStore, verifier *auth.Service, m *metrics.Metrics) {
	if r == nil || store == nil || verifier == nil {
		return
	}

	api := r.Group("/api")

	siteHandler := handlers.NewSiteHandler(store)
	optional := internalhttp.OptionalAuthenticate(verifier)
	api.GET("/projects", optional, siteHandler.ListProjects)
	api.GET("/clients", optional, siteHandler.ListClients)
	api.POST("/contact", siteHandler.SubmitContact)
	api.POST("/newsletter", siteHandler.Subscribe)

	healthHandler := adminhandlers.NewHealthHandler(store)
	api.GET("/health", healthHandler.Healthz)

	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}
	if images != nil {
		r.Static(site.UploadsRoute, images.Dir())
	}
}
