package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/farmgate/farmgate/internal/metrics"

	"github.com/gin-gonic/gin"
)

// LoggerMiddleware stashes the application logger on the gin context and logs
// a line per completed request with the route, status and latency.
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("logger", logger)
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		metrics.HTTPRequestDurationSeconds.WithLabelValues(route, strconv.Itoa(status)).Observe(elapsed.Seconds())
		logger.Info("request completed",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", c.GetString("request_id"),
		)
	}
}
