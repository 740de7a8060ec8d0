// Package store persists administrators and refresh tokens with gorm.
package store

import (
	"errors"

	"github.com/estatehub/backoffice/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("store: record not found")
	// ErrConflict is returned when an insert violates a unique constraint.
	ErrConflict = errors.New("store: record already exists")
)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case db.IsUniqueViolation(err):
		return ErrConflict
	default:
		return err
	}
}
