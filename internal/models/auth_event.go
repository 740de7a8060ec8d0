package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuthEvent records a security-relevant authentication event.
type AuthEvent struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	Type    string  `gorm:"type:text;not null;index" json:"type"` // Event type, e.g. login_failure.
	AdminID *uint64 `gorm:"index" json:"adminId"`                 // Subject admin when known.

	IP        string `gorm:"type:text" json:"ip"`        // Client IP.
	UserAgent string `gorm:"type:text" json:"userAgent"` // Client user agent.

	Metadata datatypes.JSON `gorm:"type:json" json:"metadata,omitempty"` // Event specific details.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"createdAt"` // Event timestamp.
}
