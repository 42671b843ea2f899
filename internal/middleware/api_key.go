package middleware

import (
	"crypto/subtle"
	"net/http"

	"authhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth authenticates trusted services via the X-API-Key header.
// Keys map to caller identities; an unknown or missing key fails closed.
func APIKeyAuth(keys map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader("X-API-Key")
		if presented == "" {
			response.Error(c, http.StatusUnauthorized, "API_KEY_MISSING", "X-API-Key header is required")
			c.Abort()
			return
		}

		caller := ""
		for key, identity := range keys {
			if subtle.ConstantTimeCompare([]byte(key), []byte(presented)) == 1 {
				caller = identity
			}
		}
		if caller == "" {
			response.Error(c, http.StatusUnauthorized, "API_KEY_INVALID", "Invalid API key")
			c.Abort()
			return
		}

		c.Set("service_id", caller)
		c.Next()
	}
}
