package models

import "time"

// Project is a showcased real-estate project on the landing page.
type Project struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	Name        string  `gorm:"type:text;not null" json:"name"`        // Display name.
	Description string  `gorm:"type:text;not null" json:"description"` // Marketing description.
	ImageURL    *string `gorm:"type:text" json:"imageUrl"`             // Public path of the uploaded image.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"createdAt"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`       // Last update timestamp.
}
