package models

import "time"

// ContactSubmission is a message left through the public contact form.
type ContactSubmission struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	FullName     string `gorm:"type:text;not null" json:"fullName"`     // Sender name.
	Email        string `gorm:"type:text;not null" json:"email"`        // Lowercase sender email.
	MobileNumber string `gorm:"type:text;not null" json:"mobileNumber"` // Sender phone number.
	City         string `gorm:"type:text;not null" json:"city"`         // Sender city.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"createdAt"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`       // Last update timestamp.
}
