package models

import "time"

// Client is a customer testimonial shown on the landing page.
type Client struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	Name        string  `gorm:"type:text;not null" json:"name"`        // Client name.
	Designation string  `gorm:"type:text;not null" json:"designation"` // Job title or role.
	Description string  `gorm:"type:text;not null" json:"description"` // Testimonial text.
	ImageURL    *string `gorm:"type:text" json:"imageUrl"`             // Public path of the uploaded image.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"createdAt"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`       // Last update timestamp.
}
