package token

import (
	"context"
	"errors"
	"log"
	"time"

	"authhub/internal/domain"
	jwtpkg "authhub/internal/pkg/jwt"

	"gorm.io/gorm"
)

// Pair is an access/refresh token pair as handed to a client.
type Pair struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Service issues, verifies, rotates and revokes bearer tokens. Access
// tokens are stateless signed claims; refresh tokens additionally require
// an active row in the durable store keyed by their exact value.
type Service struct {
	tokens     RefreshTokenRepositoryInterface
	blacklist  BlacklistInterface
	jwt        jwtService
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(
	tokens RefreshTokenRepositoryInterface,
	blacklist BlacklistInterface,
	jwt jwtService,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) *Service {
	return &Service{
		tokens:     tokens,
		blacklist:  blacklist,
		jwt:        jwt,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Issue mints a fresh pair for the user. A new RefreshToken record is
// always created; token values are never reused.
func (s *Service) Issue(ctx context.Context, userID int64, sourceIP string) (*Pair, error) {
	access, accessExp, err := s.jwt.Generate(userID, jwtpkg.TypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, refreshExp, err := s.jwt.Generate(userID, jwtpkg.TypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Create(ctx, &domain.RefreshToken{
		UserID:      userID,
		Token:       refresh,
		ExpiresAt:   refreshExp,
		CreatedByIP: sourceIP,
	}); err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify validates signature, expiry and the type tag. Access tokens are
// additionally checked against the blacklist.
func (s *Service) Verify(ctx context.Context, tokenStr string, typ jwtpkg.TokenType) (*jwtpkg.Claims, error) {
	claims, err := s.jwt.Validate(tokenStr, typ)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if typ == jwtpkg.TypeAccess {
		revoked, err := s.blacklist.Contains(ctx, tokenStr)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrInvalidToken
		}
	}

	return claims, nil
}

// Rotate exchanges a refresh token for a brand-new pair. The presented
// token is consumed at most once: revocation is a conditional update on
// "not yet revoked", so of two concurrent rotations exactly one wins and
// the other observes a no-longer-active token.
func (s *Service) Rotate(ctx context.Context, refreshToken, sourceIP string) (*Pair, error) {
	if _, err := s.jwt.Validate(refreshToken, jwtpkg.TypeRefresh); err != nil {
		return nil, ErrInvalidToken
	}

	record, err := s.tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !record.IsActive(time.Now()) {
		return nil, ErrInvalidToken
	}

	revoked, err := s.tokens.Revoke(ctx, refreshToken, sourceIP)
	if err != nil {
		return nil, err
	}
	if !revoked {
		// Lost the race: someone else consumed this token first.
		return nil, ErrInvalidToken
	}

	pair, err := s.Issue(ctx, record.UserID, sourceIP)
	if err != nil {
		return nil, err
	}

	// Lineage metadata only; the new pair is already durable.
	if err := s.tokens.SetReplacedBy(ctx, refreshToken, pair.RefreshToken); err != nil {
		log.Printf("token: stamping replaced_by failed for user %d: %v", record.UserID, err)
	}

	return pair, nil
}

// Revoke invalidates a token ahead of its natural expiry. Idempotent:
// revoking an already-revoked or expired token succeeds without effect.
func (s *Service) Revoke(ctx context.Context, tokenStr string, typ jwtpkg.TokenType) error {
	claims, err := s.jwt.Decode(tokenStr)
	if err != nil {
		return ErrInvalidToken
	}

	// Blacklist for the remainder of the token's lifetime; nothing to do
	// if it has already expired. Must complete before the request returns
	// or the token would stay usable.
	if claims.ExpiresAt != nil {
		if err := s.blacklist.Add(ctx, tokenStr, time.Until(claims.ExpiresAt.Time)); err != nil {
			return err
		}
	}

	if typ == jwtpkg.TypeRefresh {
		if _, err := s.tokens.Revoke(ctx, tokenStr, ""); err != nil {
			return err
		}
	}

	return nil
}

// RevokeAllForUser bulk-revokes every active refresh token the user owns.
// Used by password change and reset; safe to call repeatedly.
func (s *Service) RevokeAllForUser(ctx context.Context, userID int64) error {
	return s.tokens.RevokeAllByUser(ctx, userID)
}
