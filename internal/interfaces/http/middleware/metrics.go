package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"gradvillage.backend/pkg/metrics"
)

// MetricsMiddleware records request counts and latency by matched route.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
