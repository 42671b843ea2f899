package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"authhub/internal/blacklist"
	"authhub/internal/config"
	"authhub/internal/database"
	"authhub/internal/middleware"
	"authhub/internal/modules/auth"
	"authhub/internal/modules/token"
	jwtsvc "authhub/internal/pkg/jwt"
	"authhub/internal/queue"
	"authhub/internal/ratelimit"
	"authhub/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)

	j := jwtsvc.New(cfg.JWTSecret)
	denylist := blacklist.New(rdb)
	limiter := ratelimit.New(rdb, cfg.RateLimitWindow)
	emailQueue := queue.New(rdb, queue.EmailQueue)

	tokenService := token.NewService(tokenRepo, denylist, j, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := auth.NewService(
		userRepo,
		tokenService,
		emailQueue,
		nil, // no identity resolver wired yet; OAuth sign-in returns 401
		cfg.LockoutThreshold,
		cfg.LockoutDuration,
		cfg.VerifyTokenTTL,
		cfg.ResetTokenTTL,
	)
	authHandler := auth.NewHandler(
		authService,
		tokenService,
		cfg.AppEnv == "prod",
		int(cfg.RefreshTokenTTL.Seconds()),
	)

	if cfg.AppEnv == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), middleware.ErrorLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit(limiter, cfg.RateLimitMax, cfg.RateLimitMaxAuth, cfg.HealthPath))

	r.GET(cfg.HealthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)

		// protected (requires a valid access token)
		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(tokenService, userRepo))
		{
			authHandler.RegisterProtectedRoutes(protected)
		}

		// service-to-service (requires a known API key)
		internalGroup := v1.Group("/internal")
		internalGroup.Use(middleware.APIKeyAuth(cfg.APIKeys))
		{
			internalGroup.POST("/tokens/verify", verifyTokenHandler(tokenService))
		}
	}

	log.Printf("auth service listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

// verifyTokenHandler lets trusted services check an access token without
// sharing the signing secret.
func verifyTokenHandler(tokens *token.Service) gin.HandlerFunc {
	type verifyRequest struct {
		Token string `json:"token" binding:"required"`
	}

	return func(c *gin.Context) {
		var req verifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   gin.H{"code": "VALIDATION_ERROR", "message": "Token is required"},
			})
			return
		}

		claims, err := tokens.Verify(c.Request.Context(), req.Token, jwtsvc.TypeAccess)
		if err != nil {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data":    gin.H{"valid": false},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"valid":   true,
				"user_id": claims.UserID(),
			},
		})
	}
}
