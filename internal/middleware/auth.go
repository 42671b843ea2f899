package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"authhub/internal/domain"
	jwtpkg "authhub/internal/pkg/jwt"
	"authhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// TokenVerifier validates a bearer token of the expected type.
type TokenVerifier interface {
	Verify(ctx context.Context, tokenStr string, typ jwtpkg.TokenType) (*jwtpkg.Claims, error)
}

// UserLoader resolves the authenticated user's current account state.
type UserLoader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// JWTAuth authenticates requests via "Authorization: Bearer <access token>".
// A token that verifies but belongs to a deactivated or locked account is
// rejected.
func JWTAuth(tokens TokenVerifier, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		claims, err := tokens.Verify(c.Request.Context(), parts[1], jwtpkg.TypeAccess)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID())
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}
		if !user.IsActive || user.IsLocked(time.Now()) {
			response.Error(c, http.StatusUnauthorized, "ACCOUNT_UNAVAILABLE", "Account is locked or deactivated")
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("role", string(user.Role))
		c.Next()
	}
}
