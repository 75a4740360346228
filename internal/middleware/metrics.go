package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/echotrack/echotrack-api/internal/service"
)

// Metrics records request counts and latency per route. The route template is
// used rather than the raw path so identifiers do not explode the label set.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
