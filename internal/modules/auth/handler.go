package auth

import (
	"errors"
	"net/http"

	"authhub/internal/modules/token"
	"authhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const refreshCookieName = "refreshToken"

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service      *Service
	tokenService *token.Service
	cookieSecure bool
	cookieMaxAge int
}

// NewHandler creates a new auth handler with injected services
func NewHandler(service *Service, tokenService *token.Service, cookieSecure bool, cookieMaxAge int) *Handler {
	return &Handler{
		service:      service,
		tokenService: tokenService,
		cookieSecure: cookieSecure,
		cookieMaxAge: cookieMaxAge,
	}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.POST("/refresh-tokens", h.RefreshTokens)
		authGroup.POST("/verify-email", h.VerifyEmail)
		authGroup.POST("/forgot-password", h.ForgotPassword)
		authGroup.POST("/reset-password", h.ResetPassword)
		authGroup.POST("/oauth", h.OAuthSignIn)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.POST("/auth/change-password", h.ChangePassword)
	protected.GET("/users/me", h.GetMe)
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "This email is already registered")
			return
		}
		response.Error(c, http.StatusInternalServerError, "REGISTRATION_FAILED", "Failed to register user")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user": toUserPublic(user),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		case errors.Is(err, ErrAccountLocked):
			response.Error(c, http.StatusUnauthorized, "ACCOUNT_LOCKED", "Account is temporarily locked")
		case errors.Is(err, ErrAccountDeactivated):
			response.Error(c, http.StatusUnauthorized, "ACCOUNT_DEACTIVATED", "Account is deactivated")
		default:
			response.Error(c, http.StatusServiceUnavailable, "LOGIN_FAILED", "Failed to log in")
		}
		return
	}

	h.setRefreshCookie(c, result.Tokens.RefreshToken)
	response.Success(c, http.StatusOK, gin.H{
		"user":   toUserPublic(result.User),
		"tokens": result.Tokens,
	})
}

// Logout revokes the presented refresh token. The token may arrive in the
// cookie or in the body; either way the cookie is cleared.
func (h *Handler) Logout(c *gin.Context) {
	refreshToken := h.refreshTokenFromRequest(c)
	if refreshToken == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Refresh token is required")
		return
	}

	if err := h.service.Logout(c.Request.Context(), refreshToken); err != nil {
		if errors.Is(err, token.ErrInvalidToken) {
			h.clearRefreshCookie(c)
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token")
			return
		}
		response.Error(c, http.StatusServiceUnavailable, "LOGOUT_FAILED", "Failed to log out")
		return
	}

	h.clearRefreshCookie(c)
	response.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *Handler) RefreshTokens(c *gin.Context) {
	refreshToken := h.refreshTokenFromRequest(c)
	if refreshToken == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Refresh token is required")
		return
	}

	pair, err := h.tokenService.Rotate(c.Request.Context(), refreshToken, c.ClientIP())
	if err != nil {
		if errors.Is(err, token.ErrInvalidToken) {
			h.clearRefreshCookie(c)
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token")
			return
		}
		response.Error(c, http.StatusServiceUnavailable, "REFRESH_FAILED", "Failed to refresh tokens")
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	response.Success(c, http.StatusOK, gin.H{"tokens": pair})
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Verification token is required")
		return
	}

	if err := h.service.VerifyEmail(c.Request.Context(), rawToken); err != nil {
		if errors.Is(err, ErrInvalidVerificationToken) {
			response.Error(c, http.StatusBadRequest, "INVALID_TOKEN", "Invalid or expired verification token")
			return
		}
		response.Error(c, http.StatusInternalServerError, "VERIFICATION_FAILED", "Failed to verify email")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Email verified"})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		response.Error(c, http.StatusInternalServerError, "REQUEST_FAILED", "Failed to process request")
		return
	}

	// Same answer whether or not the address exists.
	response.Success(c, http.StatusOK, gin.H{"message": "If the email is registered, a reset link has been sent"})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Reset token is required")
		return
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), rawToken, req.Password); err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			response.Error(c, http.StatusBadRequest, "INVALID_TOKEN", "Invalid or expired reset token")
			return
		}
		response.Error(c, http.StatusInternalServerError, "RESET_FAILED", "Failed to reset password")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Password has been reset"})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	userID := c.GetInt64("user_id")
	if err := h.service.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Old password is incorrect")
			return
		}
		response.Error(c, http.StatusInternalServerError, "CHANGE_FAILED", "Failed to change password")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Password changed"})
}

func (h *Handler) OAuthSignIn(c *gin.Context) {
	var req OAuthSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.OAuthSignIn(c.Request.Context(), req.ProviderToken, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Could not verify identity")
		case errors.Is(err, ErrAccountDeactivated):
			response.Error(c, http.StatusUnauthorized, "ACCOUNT_DEACTIVATED", "Account is deactivated")
		default:
			response.Error(c, http.StatusServiceUnavailable, "OAUTH_FAILED", "Failed to sign in")
		}
		return
	}

	h.setRefreshCookie(c, result.Tokens.RefreshToken)
	response.Success(c, http.StatusOK, gin.H{
		"user":   toUserPublic(result.User),
		"tokens": result.Tokens,
	})
}

func (h *Handler) GetMe(c *gin.Context) {
	userID := c.GetInt64("user_id")
	user, err := h.service.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": toUserPublic(user)})
}

// refreshTokenFromRequest reads the refresh token from the cookie first,
// then from the JSON body, so browser and non-browser clients both work.
func (h *Handler) refreshTokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(refreshCookieName); err == nil && cookie != "" {
		return cookie
	}
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return ""
	}
	return req.RefreshToken
}

func (h *Handler) setRefreshCookie(c *gin.Context, refreshToken string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, refreshToken, h.cookieMaxAge, "/", "", h.cookieSecure, true)
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, "/", "", h.cookieSecure, true)
}
