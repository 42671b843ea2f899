package repository

import (
	"context"
	"time"

	"authhub/internal/domain"

	"gorm.io/gorm"
)

// RefreshTokenRepository provides DB access for refresh tokens.
type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Revoke marks a still-active token revoked. The WHERE clause on
// revoked_at IS NULL makes this a compare-and-set: of any number of
// concurrent rotations presenting the same token, exactly one sees
// revoked=true and may proceed to issue a successor.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, token, byIP string) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("token = ? AND revoked_at IS NULL", token).
		Updates(map[string]any{
			"revoked_at":    time.Now().UTC(),
			"revoked_by_ip": byIP,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// SetReplacedBy stamps the rotation lineage pointer on an already-revoked
// record. Each token gains at most one successor because rotation wins the
// Revoke CAS exactly once.
func (r *RefreshTokenRepository) SetReplacedBy(ctx context.Context, token, successor string) error {
	return r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("token = ?", token).
		Update("replaced_by_token", successor).Error
}

// RevokeAllByUser bulk-revokes every active token the user owns. Already
// revoked rows are untouched, which keeps the operation idempotent.
func (r *RefreshTokenRepository) RevokeAllByUser(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now().UTC()).Error
}

func (r *RefreshTokenRepository) CountActiveByUser(ctx context.Context, userID int64, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, now).
		Count(&count).Error
	return count, err
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now().UTC()).
		Delete(&domain.RefreshToken{})
	return tx.RowsAffected, tx.Error
}
