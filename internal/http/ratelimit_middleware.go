package http

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/estatehub/backoffice/internal/metrics"
	"github.com/estatehub/backoffice/internal/ratelimit"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RateLimit throttles requests per client IP. The standard RateLimit-*
// headers are set on every response. Limiter failures let the request through.
func RateLimit(limiter ratelimit.Limiter, scope, message string, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		decision, errAllow := limiter.Allow(c.Request.Context(), c.ClientIP())
		if errAllow != nil {
			log.WithError(errAllow).WithField("scope", scope).Warn("rate limiter unavailable")
			c.Next()
			return
		}

		resetSeconds := int(math.Ceil(time.Until(decision.ResetAt).Seconds()))
		if resetSeconds < 0 {
			resetSeconds = 0
		}
		c.Header("RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("RateLimit-Reset", strconv.Itoa(resetSeconds))

		if !decision.Allowed {
			m.RateLimited(scope)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": message})
			return
		}
		c.Next()
	}
}
