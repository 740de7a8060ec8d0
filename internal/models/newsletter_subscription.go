package models

import "time"

// NewsletterSubscription is an email address subscribed to the newsletter.
type NewsletterSubscription struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	Email string `gorm:"type:text;not null;uniqueIndex" json:"email"` // Lowercase subscriber email.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"createdAt"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`       // Last update timestamp.
}
