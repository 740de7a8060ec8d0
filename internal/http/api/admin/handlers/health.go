package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Healthz checks database connectivity and returns status.
func (h *HealthHandler) Healthz(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "UNAVAILABLE"})
		return
	}
	if errPing := h.db.Ping(c.Request.Context()); errPing != nil {
		log.WithError(errPing).Warn("health: database ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "UNAVAILABLE"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}
