package db

import (
	"fmt"

	"github.com/estatehub/backoffice/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates every table owned by the application.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errMigrate := conn.AutoMigrate(
		&models.Admin{},
		&models.RefreshToken{},
		&models.AuthEvent{},
		&models.Project{},
		&models.Client{},
		&models.ContactSubmission{},
		&models.NewsletterSubscription{},
	); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}
	return nil
}
