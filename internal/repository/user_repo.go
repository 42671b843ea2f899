package repository

import (
	"context"
	"strings"
	"time"

	"authhub/internal/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

// RecordFailedLogin stores the bumped attempt counter and, once the lockout
// threshold is reached, the lockout deadline in a single update.
func (r *UserRepository) RecordFailedLogin(ctx context.Context, id int64, attempts int, lockUntil *time.Time) error {
	updates := map[string]any{"failed_login_attempts": attempts}
	if lockUntil != nil {
		updates["lock_until"] = *lockUntil
	}
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// RecordSuccessfulLogin resets the lockout state and stamps last_login.
func (r *UserRepository) RecordSuccessfulLogin(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_login_attempts": 0,
			"lock_until":            nil,
			"last_login":            at,
		}).Error
}

func (r *UserRepository) SetVerificationSecret(ctx context.Context, id int64, hash string, expires time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"email_verification_token_hash": hash,
			"email_verification_expires":    expires,
		}).Error
}

// GetByVerificationHash finds the user holding an unexpired verification
// secret with the given digest. Expiry is enforced at lookup time.
func (r *UserRepository) GetByVerificationHash(ctx context.Context, hash string, now time.Time) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).
		Where("email_verification_token_hash = ? AND email_verification_expires > ?", hash, now).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// MarkEmailVerified flips the verified flag and clears the one-shot secret
// so the same raw token can never be replayed.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_email_verified":             true,
			"email_verification_token_hash": "",
			"email_verification_expires":    nil,
		}).Error
}

func (r *UserRepository) SetResetSecret(ctx context.Context, id int64, hash string, expires time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_reset_token_hash": hash,
			"password_reset_expires":    expires,
		}).Error
}

func (r *UserRepository) GetByResetHash(ctx context.Context, hash string, now time.Time) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).
		Where("password_reset_token_hash = ? AND password_reset_expires > ?", hash, now).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdatePassword replaces the password hash and clears any pending reset
// secret in the same statement.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_hash":             passwordHash,
			"password_reset_token_hash": "",
			"password_reset_expires":    nil,
		}).Error
}

func (r *UserRepository) GetByOAuthLink(ctx context.Context, provider, subjectID string) (*domain.User, error) {
	var link domain.OAuthLink
	err := r.db.WithContext(ctx).
		Where("provider = ? AND subject_id = ?", provider, subjectID).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, link.UserID)
}

func (r *UserRepository) CreateOAuthLink(ctx context.Context, link *domain.OAuthLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}
