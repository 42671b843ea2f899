package domain

import "time"

// RefreshToken is the durable record behind a long-lived refresh credential.
//
// Security notes:
// - A token is active iff RevokedAt is unset and ExpiresAt is in the future.
// - Rotation revokes the old record first, then stamps ReplacedByToken with
//   the successor value; a record with ReplacedByToken set is always revoked.
// - Revocation is monotonic: a revoked token is never re-activated.
type RefreshToken struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	UserID int64 `json:"user_id" gorm:"index;not null"`
	User   User  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	Token string `json:"-" gorm:"size:512;uniqueIndex;not null"`

	ExpiresAt   time.Time `json:"expires_at" gorm:"index;not null"`
	CreatedByIP string    `json:"created_by_ip"`

	RevokedAt       *time.Time `json:"revoked_at" gorm:"index"`
	RevokedByIP     string     `json:"revoked_by_ip,omitempty"`
	ReplacedByToken string     `json:"-" gorm:"size:512"`

	CreatedAt time.Time `json:"created_at"`
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) IsActive(now time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(now)
}
