package http

import (
	"errors"
	"net/http"

	"github.com/estatehub/backoffice/internal/auth"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// AbortWithError writes err as a JSON error body and aborts the chain.
// Classified auth errors expose their kind and message; anything else is
// logged and reported as an opaque internal error.
func AbortWithError(c *gin.Context, err error) {
	var authErr *auth.Error
	if !errors.As(err, &authErr) {
		log.WithError(err).WithFields(log.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"request_id": c.GetString(RequestIDKey),
		}).Error("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	body := gin.H{"error": authErr.Message, "code": string(authErr.Kind)}
	if len(authErr.Details) > 0 {
		body["errors"] = authErr.Details
	}
	c.AbortWithStatusJSON(authErr.Status(), body)
}
