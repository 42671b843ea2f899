package jwt

import (
	"errors"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongType    = errors.New("wrong token type")
)

type Service struct {
	secret []byte
}

// Claims is the self-contained payload of both token kinds: subject id,
// a type discriminator and the registered time claims.
type Claims struct {
	Type TokenType `json:"type"`
	jwtlib.RegisteredClaims
}

// UserID returns the numeric subject id, or 0 when the subject is malformed.
func (c *Claims) UserID() int64 {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func New(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

// Generate signs a token of the given type for the user. Refresh tokens
// carry a jti so that two tokens minted in the same second never collide
// on the unique token column.
func (s *Service) Generate(userID int64, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		Type: typ,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
		},
	}
	if typ == TypeRefresh {
		claims.ID = uuid.NewString()
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate checks signature, expiry and the type tag.
func (s *Service) Validate(tokenStr string, expected TokenType) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if claims.Type != expected {
		return nil, ErrWrongType
	}

	return claims, nil
}

// Decode extracts claims without verifying the signature. Used when
// revoking a token the caller already holds: even a token we would no
// longer accept still names the blacklist entry to write.
func (s *Service) Decode(tokenStr string) (*Claims, error) {
	token, _, err := jwtlib.NewParser().ParseUnverified(tokenStr, &Claims{})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
