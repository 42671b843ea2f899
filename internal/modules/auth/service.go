package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"strings"
	"time"

	"authhub/internal/domain"
	"authhub/internal/modules/token"
	jwtpkg "authhub/internal/pkg/jwt"
	"authhub/internal/queue"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service owns the credential state machine: password verification,
// lockout escalation, one-shot verification/reset secrets, and the
// transitions between the Unverified/Verified and Active/Deactivated
// account states.
type Service struct {
	users            UserRepositoryInterface
	tokens           TokenServiceInterface
	notifier         Notifier
	resolver         IdentityResolver
	lockoutThreshold int
	lockoutDuration  time.Duration
	verifyTTL        time.Duration
	resetTTL         time.Duration
}

type LoginResult struct {
	User   *domain.User
	Tokens *token.Pair
}

func NewService(
	users UserRepositoryInterface,
	tokens TokenServiceInterface,
	notifier Notifier,
	resolver IdentityResolver,
	lockoutThreshold int,
	lockoutDuration time.Duration,
	verifyTTL time.Duration,
	resetTTL time.Duration,
) *Service {
	return &Service{
		users:            users,
		tokens:           tokens,
		notifier:         notifier,
		resolver:         resolver,
		lockoutThreshold: lockoutThreshold,
		lockoutDuration:  lockoutDuration,
		verifyTTL:        verifyTTL,
		resetTTL:         resetTTL,
	}
}

// Register creates an Unverified account and triggers the verification
// email. The raw verification secret travels only on the notification
// channel; the response carries the user without it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:           email,
		PasswordHash:    hashedPassword,
		Name:            req.Name,
		Role:            domain.RoleUser,
		IsEmailVerified: false,
		IsActive:        true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	rawSecret, secretHash, err := generateOneShotSecret()
	if err != nil {
		return nil, err
	}
	if err := s.users.SetVerificationSecret(ctx, user.ID, secretHash, time.Now().Add(s.verifyTTL)); err != nil {
		return nil, err
	}

	s.enqueue(ctx, queue.Job{
		Kind:  queue.KindVerificationEmail,
		Email: user.Email,
		Token: rawSecret,
	})

	user.PasswordHash = ""
	return user, nil
}

// Login authenticates an email/password pair. A mismatch bumps the
// failure counter and, at the threshold, starts the lockout window.
// A locked or deactivated account is rejected regardless of password
// correctness.
func (s *Service) Login(ctx context.Context, email, password, sourceIP string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := time.Now()
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		attempts := user.FailedLoginAttempts + 1
		var lockUntil *time.Time
		if attempts >= s.lockoutThreshold && !user.IsLocked(now) {
			t := now.Add(s.lockoutDuration)
			lockUntil = &t
		}
		if recordErr := s.users.RecordFailedLogin(ctx, user.ID, attempts, lockUntil); recordErr != nil {
			return nil, recordErr
		}
		return nil, ErrInvalidCredentials
	}

	if user.IsLocked(now) {
		return nil, ErrAccountLocked
	}
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	if err := s.users.RecordSuccessfulLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.FailedLoginAttempts = 0
	user.LockUntil = nil
	user.LastLogin = &now

	tokens, err := s.tokens.Issue(ctx, user.ID, sourceIP)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &LoginResult{User: user, Tokens: tokens}, nil
}

// Logout revokes the presented refresh token. Idempotent.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, refreshToken, jwtpkg.TypeRefresh)
}

// VerifyEmail consumes a one-shot verification secret. The stored digest
// is cleared on success, so a replayed token no longer matches anything.
func (s *Service) VerifyEmail(ctx context.Context, rawToken string) error {
	user, err := s.users.GetByVerificationHash(ctx, sha256Hex(rawToken), time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidVerificationToken
		}
		return err
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return err
	}

	s.enqueue(ctx, queue.Job{
		Kind:  queue.KindWelcomeEmail,
		Email: user.Email,
		Name:  user.Name,
	})

	return nil
}

// ForgotPassword triggers a reset email. Unknown addresses no-op with the
// same outward result as known ones.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	rawSecret, secretHash, err := generateOneShotSecret()
	if err != nil {
		return err
	}
	if err := s.users.SetResetSecret(ctx, user.ID, secretHash, time.Now().Add(s.resetTTL)); err != nil {
		return err
	}

	s.enqueue(ctx, queue.Job{
		Kind:  queue.KindPasswordResetEmail,
		Email: user.Email,
		Token: rawSecret,
	})

	return nil
}

// ResetPassword consumes a one-shot reset secret, replaces the password
// hash and revokes every standing session of the user.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	user, err := s.users.GetByResetHash(ctx, sha256Hex(rawToken), time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	hashedPassword, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return err
	}

	return s.tokens.RevokeAllForUser(ctx, user.ID)
}

// ChangePassword swaps the password after verifying the old one, then
// revokes all standing sessions like a reset does.
func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hashedPassword, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return err
	}

	return s.tokens.RevokeAllForUser(ctx, userID)
}

// OAuthSignIn signs in via an externally verified identity. An existing
// link wins; otherwise a matching email gets linked and marked verified,
// or a fresh verified account is created with a random password.
func (s *Service) OAuthSignIn(ctx context.Context, providerToken, sourceIP string) (*LoginResult, error) {
	if s.resolver == nil {
		return nil, ErrInvalidCredentials
	}

	identity, err := s.resolver.ResolveExternalIdentity(ctx, providerToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByOAuthLink(ctx, identity.Provider, identity.SubjectID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user, err = s.linkOrCreateOAuthUser(ctx, identity)
		if err != nil {
			return nil, err
		}
	}

	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	tokens, err := s.tokens.Issue(ctx, user.ID, sourceIP)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &LoginResult{User: user, Tokens: tokens}, nil
}

func (s *Service) linkOrCreateOAuthUser(ctx context.Context, identity *ExternalIdentity) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		randomPassword, _, err := generateOneShotSecret()
		if err != nil {
			return nil, err
		}
		hashedPassword, err := hashPassword(randomPassword)
		if err != nil {
			return nil, err
		}

		user = &domain.User{
			Email:           email,
			PasswordHash:    hashedPassword,
			Name:            identity.Name,
			Role:            domain.RoleUser,
			IsEmailVerified: true,
			IsActive:        true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
	} else if !user.IsEmailVerified {
		if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
			return nil, err
		}
		user.IsEmailVerified = true
	}

	if err := s.users.CreateOAuthLink(ctx, &domain.OAuthLink{
		UserID:    user.ID,
		Provider:  identity.Provider,
		SubjectID: identity.SubjectID,
	}); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) GetCurrentUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// enqueue is best-effort: a full or unreachable queue must not fail the
// request that triggered the notification.
func (s *Service) enqueue(ctx context.Context, job queue.Job) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Enqueue(ctx, job); err != nil {
		log.Printf("auth: enqueue %s for %s failed: %v", job.Kind, job.Email, err)
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// generateOneShotSecret returns a high-entropy raw secret and its SHA-256
// digest. Only the digest is ever persisted.
func generateOneShotSecret() (raw string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	return raw, sha256Hex(raw), nil
}

func sha256Hex(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
