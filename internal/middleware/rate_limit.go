package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/farmgate/farmgate/internal/metrics"
	"github.com/farmgate/farmgate/internal/ratelimit"
	"github.com/farmgate/farmgate/pkg/config"

	"github.com/gin-gonic/gin"
)

// RateLimitLogin throttles credential attempts per client address. Login is
// unauthenticated, so the bucket subject is the caller's IP.
func RateLimitLogin(lim ratelimit.Limiter, cfg *config.Config) gin.HandlerFunc {
	return rateLimitByClient(lim, "login", cfg.RateLimit.Login)
}

func rateLimitByClient(lim ratelimit.Limiter, scope string, bcfg config.Bucket) gin.HandlerFunc {
	bucket := ratelimit.Bucket{RequestsPerMinute: bcfg.RequestsPerMinute, BurstSize: bcfg.BurstSize}
	return func(c *gin.Context) {
		if lim == nil || !bucket.Enabled() {
			c.Next()
			return
		}

		dec, err := lim.Allow(c.Request.Context(), scope, c.ClientIP(), bucket)
		if err != nil {
			// Fail open to avoid turning Redis hiccups into outages.
			slog.Default().Warn("rate limit check failed", "scope", scope, "err", err)
			c.Next()
			return
		}
		if dec.Allowed {
			c.Next()
			return
		}

		retryAfterSeconds := int(dec.RetryAfter.Seconds())
		if retryAfterSeconds <= 0 {
			retryAfterSeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		metrics.RateLimitHitsTotal.WithLabelValues(scope).Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":             "rate limit exceeded",
			"retryAfterSeconds": retryAfterSeconds,
		})
	}
}
