package models

import (
	"errors"
	"time"

	"github.com/estatehub/backoffice/internal/security"
	"gorm.io/gorm"
)

// PasswordHasherSetting is the gorm statement setting key holding the
// security.PasswordHasher used by the Admin save hook.
const PasswordHasherSetting = "estatehub:password_hasher"

// ErrMissingPassword is returned when an admin is created without a password.
var ErrMissingPassword = errors.New("models: admin password is required")

// Admin represents an administrator account stored in the database.
type Admin struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:text;not null;uniqueIndex"` // Unique login name.
	Email    string `gorm:"type:text;not null;uniqueIndex"` // Unique lowercase email.
	Password string `gorm:"type:text;not null" json:"-"`    // Hashed password.

	Role Role `gorm:"type:text;not null;default:admin"` // Access role.

	FailedLoginAttempts int        `gorm:"not null;default:0"` // Consecutive failed logins.
	LockUntil           *time.Time // Lock expiry; NULL when unlocked.
	LastLoginAt         *time.Time // Most recent successful login.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.

	pendingPassword string
}

// SetPassword stages a plaintext password. It is hashed by the save hook and
// never written to the database as-is.
func (a *Admin) SetPassword(plaintext string) {
	a.pendingPassword = plaintext
}

// IsLocked reports whether the account is locked at the given instant.
func (a *Admin) IsLocked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

// BeforeSave hashes a staged plaintext password. Saves without a staged
// password leave the stored hash untouched.
func (a *Admin) BeforeSave(tx *gorm.DB) error {
	if a.pendingPassword == "" {
		return nil
	}
	var hasher security.PasswordHasher = security.NewPasswordHasher(security.DefaultBcryptCost)
	if value, ok := tx.Get(PasswordHasherSetting); ok {
		if h, okHasher := value.(security.PasswordHasher); okHasher && h != nil {
			hasher = h
		}
	}
	hash, errHash := hasher.Hash(a.pendingPassword)
	if errHash != nil {
		return errHash
	}
	a.Password = hash
	a.pendingPassword = ""
	return nil
}

// BeforeCreate rejects admins created without a password.
func (a *Admin) BeforeCreate(tx *gorm.DB) error {
	if a.Password == "" {
		return ErrMissingPassword
	}
	if a.Role == "" {
		a.Role = RoleAdmin
	}
	return nil
}
