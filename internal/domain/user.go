package domain

import "time"

type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleAdmin     UserRole = "admin"
	RoleModerator UserRole = "moderator"
)

type User struct {
	ID           int64    `json:"id" gorm:"primaryKey"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null" validate:"required,email"`
	PasswordHash string   `json:"-" gorm:"not null"`
	Name         string   `json:"name"`
	Role         UserRole `json:"role" gorm:"default:user"`

	IsEmailVerified bool `json:"is_email_verified" gorm:"default:false"`
	IsActive        bool `json:"is_active" gorm:"default:true"`

	FailedLoginAttempts int        `json:"-" gorm:"default:0"`
	LockUntil           *time.Time `json:"-"`

	// One-shot secrets are stored as SHA-256 digests only; the raw value is
	// delivered out-of-band and never persisted.
	EmailVerificationTokenHash string     `json:"-" gorm:"size:64;index"`
	EmailVerificationExpires   *time.Time `json:"-"`
	PasswordResetTokenHash     string     `json:"-" gorm:"size:64;index"`
	PasswordResetExpires       *time.Time `json:"-"`

	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsLocked reports whether the account is inside a lockout window.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// OAuthLink ties a federated identity (provider + subject id) to exactly
// one local user. A user may carry several links, one per provider.
type OAuthLink struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	UserID    int64  `json:"user_id" gorm:"index;not null"`
	User      User   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Provider  string `json:"provider" gorm:"size:32;not null;uniqueIndex:idx_oauth_provider_subject"`
	SubjectID string `json:"subject_id" gorm:"size:191;not null;uniqueIndex:idx_oauth_provider_subject"`
	CreatedAt time.Time `json:"created_at"`
}
