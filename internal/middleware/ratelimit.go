package middleware

import (
	"errors"
	"log"
	"net/http"

	"authhub/internal/pkg/response"
	"authhub/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimit applies a fixed-window counter per client IP. Requests that
// present an Authorization header get the higher authenticated ceiling;
// the bucket key does not depend on the header, so a client cannot reset
// its window by toggling authentication. The health path is exempt.
//
// When the counter backend is unreachable the limiter fails open: traffic
// is admitted and the failure is logged.
func RateLimit(limiter *ratelimit.Limiter, anonCeiling, authCeiling int, healthPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == healthPath {
			c.Next()
			return
		}

		ceiling := anonCeiling
		if c.GetHeader("Authorization") != "" {
			ceiling = authCeiling
		}

		err := limiter.Allow(c.Request.Context(), c.ClientIP(), ceiling)
		if err != nil {
			if errors.Is(err, ratelimit.ErrLimitExceeded) {
				response.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, please try again later")
				c.Abort()
				return
			}
			log.Printf("ratelimit: counter unavailable, admitting %s: %v", c.ClientIP(), err)
		}

		c.Next()
	}
}
