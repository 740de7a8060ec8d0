package store

import (
	"context"
	"fmt"
	"time"

	"github.com/estatehub/backoffice/internal/models"
	"gorm.io/gorm"
)

// RefreshTokenStore reads and writes refresh token records.
type RefreshTokenStore struct {
	db *gorm.DB
}

// NewRefreshTokenStore constructs a RefreshTokenStore.
func NewRefreshTokenStore(db *gorm.DB) *RefreshTokenStore {
	return &RefreshTokenStore{db: db}
}

// Create inserts a new refresh token.
func (s *RefreshTokenStore) Create(ctx context.Context, token *models.RefreshToken) error {
	if token == nil {
		return fmt.Errorf("store: nil refresh token")
	}
	if errCreate := s.db.WithContext(ctx).Omit("Admin").Create(token).Error; errCreate != nil {
		return translate(errCreate)
	}
	return nil
}

// FindByToken loads a refresh token by value together with its owning admin.
func (s *RefreshTokenStore) FindByToken(ctx context.Context, value string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	errFind := s.db.WithContext(ctx).
		Preload("Admin").
		Where("token = ?", value).
		Take(&token).Error
	if errFind != nil {
		return nil, translate(errFind)
	}
	return &token, nil
}

// Revoke marks a single token revoked. It reports false when the token was
// already revoked by someone else.
func (s *RefreshTokenStore) Revoke(ctx context.Context, id uint64, at time.Time, ip *string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("id = ? AND is_revoked = ?", id, false).
		Updates(revocation(at, ip))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RevokeByToken revokes a token by value. Unknown or already revoked tokens
// report false without error.
func (s *RefreshTokenStore) RevokeByToken(ctx context.Context, value string, at time.Time, ip *string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ? AND is_revoked = ?", value, false).
		Updates(revocation(at, ip))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RevokeAllForAdmin revokes every active token owned by the admin and returns
// the number of tokens affected.
func (s *RefreshTokenStore) RevokeAllForAdmin(ctx context.Context, adminID uint64, at time.Time, ip *string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("admin_id = ? AND is_revoked = ?", adminID, false).
		Updates(revocation(at, ip))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// SetReplacedBy links a rotated token to its successor. The link is written
// at most once.
func (s *RefreshTokenStore) SetReplacedBy(ctx context.Context, id uint64, successor string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("id = ? AND replaced_by_token IS NULL", id).
		Update("replaced_by_token", successor)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteExpired removes up to limit tokens whose expiry is at or before cutoff.
func (s *RefreshTokenStore) DeleteExpired(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	res := s.db.WithContext(ctx).Exec(`
		DELETE FROM refresh_tokens
		WHERE id IN (
			SELECT id FROM refresh_tokens
			WHERE expires_at <= ?
			ORDER BY expires_at ASC
			LIMIT ?
		)
	`, cutoff.UTC(), limit)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func revocation(at time.Time, ip *string) map[string]any {
	values := map[string]any{
		"is_revoked": true,
		"revoked_at": at.UTC(),
	}
	if ip != nil && *ip != "" {
		values["revoked_by_ip"] = *ip
	}
	return values
}
