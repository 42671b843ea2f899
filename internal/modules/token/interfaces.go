package token

import (
	"context"
	"time"

	"authhub/internal/domain"
	jwtpkg "authhub/internal/pkg/jwt"
)

// RefreshTokenRepositoryInterface — only the methods the token service uses
type RefreshTokenRepositoryInterface interface {
	Create(ctx context.Context, t *domain.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	Revoke(ctx context.Context, token, byIP string) (bool, error)
	SetReplacedBy(ctx context.Context, token, successor string) error
	RevokeAllByUser(ctx context.Context, userID int64) error
}

// BlacklistInterface — volatile denylist for revoked access tokens
type BlacklistInterface interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Contains(ctx context.Context, token string) (bool, error)
}

type jwtService interface {
	Generate(userID int64, typ jwtpkg.TokenType, ttl time.Duration) (string, time.Time, error)
	Validate(tokenStr string, expected jwtpkg.TokenType) (*jwtpkg.Claims, error)
	Decode(tokenStr string) (*jwtpkg.Claims, error)
}
