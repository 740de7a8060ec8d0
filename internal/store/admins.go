package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/estatehub/backoffice/internal/models"
	"github.com/estatehub/backoffice/internal/security"
	"gorm.io/gorm"
)

// AdminStore reads and writes administrator records.
type AdminStore struct {
	db     *gorm.DB
	hasher security.PasswordHasher
}

// NewAdminStore constructs an AdminStore. The hasher is handed to the
// Admin save hook on every write.
func NewAdminStore(db *gorm.DB, hasher security.PasswordHasher) *AdminStore {
	return &AdminStore{db: db, hasher: hasher}
}

func (s *AdminStore) conn(ctx context.Context) *gorm.DB {
	tx := s.db.WithContext(ctx)
	if s.hasher != nil {
		tx = tx.Set(models.PasswordHasherSetting, s.hasher)
	}
	return tx
}

// Create inserts a new administrator. A staged password is hashed by the save hook.
func (s *AdminStore) Create(ctx context.Context, admin *models.Admin) error {
	if admin == nil {
		return fmt.Errorf("store: nil admin")
	}
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	if errCreate := s.conn(ctx).Create(admin).Error; errCreate != nil {
		return translate(errCreate)
	}
	return nil
}

// FindByID loads an administrator by primary key.
func (s *AdminStore) FindByID(ctx context.Context, id uint64) (*models.Admin, error) {
	var admin models.Admin
	if errFind := s.conn(ctx).Where("id = ?", id).Take(&admin).Error; errFind != nil {
		return nil, translate(errFind)
	}
	return &admin, nil
}

// FindByEmail loads an administrator by email, ignoring case.
func (s *AdminStore) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	errFind := s.conn(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Take(&admin).Error
	if errFind != nil {
		return nil, translate(errFind)
	}
	return &admin, nil
}

// ExistsByEmailOrUsername reports whether either identity is already taken.
func (s *AdminStore) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var count int64
	errCount := s.conn(ctx).Model(&models.Admin{}).
		Where("email = ? OR username = ?", strings.ToLower(strings.TrimSpace(email)), username).
		Count(&count).Error
	if errCount != nil {
		return false, errCount
	}
	return count > 0, nil
}

// Count returns the number of administrators.
func (s *AdminStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if errCount := s.conn(ctx).Model(&models.Admin{}).Count(&count).Error; errCount != nil {
		return 0, errCount
	}
	return count, nil
}

// UpdateLockState writes the failure counter and lock expiry. A nil lockUntil
// clears the lock column.
func (s *AdminStore) UpdateLockState(ctx context.Context, id uint64, attempts int, lockUntil *time.Time) error {
	values := map[string]any{
		"failed_login_attempts": attempts,
		"lock_until":            nil,
	}
	if lockUntil != nil {
		values["lock_until"] = lockUntil.UTC()
	}
	return s.update(ctx, id, values)
}

// RecordLogin resets the lockout state and stamps the last login time.
func (s *AdminStore) RecordLogin(ctx context.Context, id uint64, at time.Time) error {
	return s.update(ctx, id, map[string]any{
		"failed_login_attempts": 0,
		"lock_until":            nil,
		"last_login_at":         at.UTC(),
	})
}

// LockoutRule parameterises RecordFailedLogin.
type LockoutRule struct {
	MaxAttempts int       // Failures that arm the lock.
	LockUntil   time.Time // Lock expiry armed by this failure.
}

// FailedLogin is the lockout state after RecordFailedLogin.
type FailedLogin struct {
	Attempts  int
	LockUntil *time.Time
	// Locked is set only for the failure that armed the lock.
	Locked bool
}

// RecordFailedLogin counts a failed password check at now. Every step is a
// guarded single-statement update, so concurrent failures never lose an
// increment and exactly one of them arms the lock. An elapsed lock restarts
// the counter at one.
func (s *AdminStore) RecordFailedLogin(ctx context.Context, id uint64, now time.Time, rule LockoutRule) (FailedLogin, error) {
	now = now.UTC()
	reset := s.conn(ctx).Model(&models.Admin{}).
		Where("id = ? AND lock_until IS NOT NULL AND lock_until <= ?", id, now).
		Updates(map[string]any{"failed_login_attempts": 1, "lock_until": nil})
	if reset.Error != nil {
		return FailedLogin{}, reset.Error
	}

	locked := false
	if reset.RowsAffected == 0 {
		if errInc := s.update(ctx, id, map[string]any{
			"failed_login_attempts": gorm.Expr("failed_login_attempts + ?", 1),
		}); errInc != nil {
			return FailedLogin{}, errInc
		}
		arm := s.conn(ctx).Model(&models.Admin{}).
			Where("id = ? AND lock_until IS NULL AND failed_login_attempts >= ?", id, rule.MaxAttempts).
			Update("lock_until", rule.LockUntil.UTC())
		if arm.Error != nil {
			return FailedLogin{}, arm.Error
		}
		locked = arm.RowsAffected == 1
	}

	admin, errFind := s.FindByID(ctx, id)
	if errFind != nil {
		return FailedLogin{}, errFind
	}
	return FailedLogin{Attempts: admin.FailedLoginAttempts, LockUntil: admin.LockUntil, Locked: locked}, nil
}

func (s *AdminStore) update(ctx context.Context, id uint64, values map[string]any) error {
	res := s.conn(ctx).Model(&models.Admin{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
