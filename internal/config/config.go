package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort             = "8080"
	defaultHealthPath       = "/health"
	defaultJWTSecret        = "change-me-jwt-secret"
	defaultAccessTTL        = "15m"
	defaultRefreshTTL       = "168h"
	defaultResetTTL         = "10m"
	defaultVerifyTTL        = "24h"
	defaultLockoutThreshold = "5"
	defaultLockoutDuration  = "15m"
	defaultRateLimitWindow  = "15m"
	defaultRateLimitMax     = "100"
	defaultRateLimitMaxAuth = "1000"
)

// Config carries all environment-level settings for the auth service.
type Config struct {
	AppEnv string
	Port   string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration
	VerifyTokenTTL  time.Duration

	LockoutThreshold int
	LockoutDuration  time.Duration

	RateLimitWindow  time.Duration
	RateLimitMax     int
	RateLimitMaxAuth int
	HealthPath       string

	// APIKeys maps a static shared secret to the caller identity it belongs to.
	APIKeys map[string]string
}

func Load() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)
	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.RedisAddr = strings.TrimSpace(getEnv("REDIS_ADDR", "localhost:6379"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))

	var err error
	if cfg.AccessTokenTTL, err = parseDurationEnv("ACCESS_TOKEN_TTL", defaultAccessTTL); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = parseDurationEnv("REFRESH_TOKEN_TTL", defaultRefreshTTL); err != nil {
		return nil, err
	}
	if cfg.ResetTokenTTL, err = parseDurationEnv("RESET_TOKEN_TTL", defaultResetTTL); err != nil {
		return nil, err
	}
	if cfg.VerifyTokenTTL, err = parseDurationEnv("VERIFY_TOKEN_TTL", defaultVerifyTTL); err != nil {
		return nil, err
	}

	if cfg.LockoutThreshold, err = parseIntEnv("LOCKOUT_THRESHOLD", defaultLockoutThreshold); err != nil {
		return nil, err
	}
	if cfg.LockoutDuration, err = parseDurationEnv("LOCKOUT_DURATION", defaultLockoutDuration); err != nil {
		return nil, err
	}

	if cfg.RateLimitWindow, err = parseDurationEnv("RATE_LIMIT_WINDOW", defaultRateLimitWindow); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = parseIntEnv("RATE_LIMIT_MAX", defaultRateLimitMax); err != nil {
		return nil, err
	}
	if cfg.RateLimitMaxAuth, err = parseIntEnv("RATE_LIMIT_MAX_AUTH", defaultRateLimitMaxAuth); err != nil {
		return nil, err
	}
	cfg.HealthPath = strings.TrimSpace(getEnv("HEALTH_PATH", defaultHealthPath))

	cfg.APIKeys = map[string]string{}
	for env, caller := range map[string]string{
		"API_KEY_GATEWAY":              "api-gateway",
		"API_KEY_USER_SERVICE":         "user-service",
		"API_KEY_NOTIFICATION_SERVICE": "notification-service",
	} {
		if key := strings.TrimSpace(os.Getenv(env)); key != "" {
			cfg.APIKeys[key] = caller
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be > 0")
	}
	if cfg.RefreshTokenTTL <= 0 {
		return fmt.Errorf("REFRESH_TOKEN_TTL must be > 0")
	}
	if cfg.ResetTokenTTL <= 0 {
		return fmt.Errorf("RESET_TOKEN_TTL must be > 0")
	}
	if cfg.VerifyTokenTTL <= 0 {
		return fmt.Errorf("VERIFY_TOKEN_TTL must be > 0")
	}
	if cfg.LockoutThreshold <= 0 {
		return fmt.Errorf("LOCKOUT_THRESHOLD must be > 0")
	}
	if cfg.LockoutDuration <= 0 {
		return fmt.Errorf("LOCKOUT_DURATION must be > 0")
	}
	if cfg.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be > 0")
	}
	if cfg.RateLimitMax <= 0 || cfg.RateLimitMaxAuth <= 0 {
		return fmt.Errorf("rate limit ceilings must be > 0")
	}
	if cfg.RateLimitMaxAuth < cfg.RateLimitMax {
		return fmt.Errorf("RATE_LIMIT_MAX_AUTH must be >= RATE_LIMIT_MAX")
	}
	if cfg.HealthPath == "" || !strings.HasPrefix(cfg.HealthPath, "/") {
		return fmt.Errorf("HEALTH_PATH must be an absolute path")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("in prod/release DATABASE_URL must be set")
		}
		if len(cfg.APIKeys) == 0 {
			return fmt.Errorf("in prod/release at least one service API key must be set")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
