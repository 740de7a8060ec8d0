package http

import (
	"time"

	"github.com/estatehub/backoffice/internal/metrics"
	"github.com/estatehub/backoffice/internal/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "requestID"

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestLogger assigns a request id, logs each request with severity derived
// from its status and records request metrics.
func RequestLogger(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		m.Request(c.Request.Method, route, status, elapsed)

		fields := log.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency":    elapsed.String(),
			"client_ip":  c.ClientIP(),
		}
		if query := util.MaskSensitiveQuery(c.Request.URL.RawQuery); query != "" {
			fields["query"] = query
		}
		entry := log.WithFields(fields)
		switch {
		case status >= 500:
			entry.Error("request completed")
		case status == 401 || status == 403 || status == 423 || status == 429:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}
