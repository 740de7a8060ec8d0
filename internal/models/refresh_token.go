package models

import "time"

// RefreshToken stores an issued refresh token and its rotation state.
type RefreshToken struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Token string `gorm:"type:text;not null;uniqueIndex"` // Opaque bearer value.

	AdminID uint64 `gorm:"not null;index"`                                 // Owning admin ID.
	Admin   *Admin `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE"` // Owning admin.

	ExpiresAt time.Time `gorm:"not null;index"` // Absolute expiry.

	CreatedByIP *string `gorm:"type:text"` // Client IP at issue time.
	UserAgent   *string `gorm:"type:text"` // Client user agent at issue time.

	IsRevoked   bool       `gorm:"not null;default:false;index"` // Revocation flag.
	RevokedAt   *time.Time // Revocation timestamp.
	RevokedByIP *string    `gorm:"type:text"` // Client IP that revoked the token.

	ReplacedByToken *string `gorm:"type:text"` // Token that superseded this one.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// IsExpired reports whether the token has reached its expiry.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsActive reports whether the token is neither revoked nor expired.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return !t.IsRevoked && !t.IsExpired(now)
}

// WasRotated reports whether the token was already exchanged for a successor.
func (t *RefreshToken) WasRotated() bool {
	return t.ReplacedByToken != nil && *t.ReplacedByToken != ""
}
