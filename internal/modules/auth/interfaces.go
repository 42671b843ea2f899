package auth

import (
	"context"
	"time"

	"authhub/internal/domain"
	"authhub/internal/modules/token"
	jwtpkg "authhub/internal/pkg/jwt"
	"authhub/internal/queue"
)

// UserRepositoryInterface — only the methods the auth service uses
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	RecordFailedLogin(ctx context.Context, id int64, attempts int, lockUntil *time.Time) error
	RecordSuccessfulLogin(ctx context.Context, id int64, at time.Time) error
	SetVerificationSecret(ctx context.Context, id int64, hash string, expires time.Time) error
	GetByVerificationHash(ctx context.Context, hash string, now time.Time) (*domain.User, error)
	MarkEmailVerified(ctx context.Context, id int64) error
	SetResetSecret(ctx context.Context, id int64, hash string, expires time.Time) error
	GetByResetHash(ctx context.Context, hash string, now time.Time) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	GetByOAuthLink(ctx context.Context, provider, subjectID string) (*domain.User, error)
	CreateOAuthLink(ctx context.Context, link *domain.OAuthLink) error
}

// TokenServiceInterface — issuing and revoking tokens on behalf of the
// credential flows
type TokenServiceInterface interface {
	Issue(ctx context.Context, userID int64, sourceIP string) (*token.Pair, error)
	Revoke(ctx context.Context, tokenStr string, typ jwtpkg.TokenType) error
	RevokeAllForUser(ctx context.Context, userID int64) error
}

// Notifier — fire-and-forget job dispatch; enqueue failures are logged,
// never surfaced to the triggering request
type Notifier interface {
	Enqueue(ctx context.Context, job queue.Job) error
}

// ExternalIdentity is a federated identity already verified by an outside
// provider. The OAuth handshake itself happens upstream; the engine only
// consumes the resolved tuple.
type ExternalIdentity struct {
	Provider  string
	SubjectID string
	Email     string
	Name      string
}

// IdentityResolver turns a provider token into a verified identity.
// One implementation per provider, injected at the boundary.
type IdentityResolver interface {
	ResolveExternalIdentity(ctx context.Context, providerToken string) (*ExternalIdentity, error)
}
