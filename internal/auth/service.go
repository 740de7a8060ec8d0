// Package auth implements administrator authentication: registration, login
// with lockout, refresh token rotation with reuse detection, and session
// revocation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/estatehub/backoffice/internal/audit"
	"github.com/estatehub/backoffice/internal/models"
	"github.com/estatehub/backoffice/internal/security"
	"github.com/estatehub/backoffice/internal/store"
)

// DefaultRefreshTokenTTL is the lifetime of an issued refresh token.
const DefaultRefreshTokenTTL = 7 * 24 * time.Hour

// AdminRepository persists administrator records.
type AdminRepository interface {
	Create(ctx context.Context, admin *models.Admin) error
	FindByID(ctx context.Context, id uint64) (*models.Admin, error)
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	UpdateLockState(ctx context.Context, id uint64, attempts int, lockUntil *time.Time) error
	RecordFailedLogin(ctx context.Context, id uint64, now time.Time, rule store.LockoutRule) (store.FailedLogin, error)
	RecordLogin(ctx context.Context, id uint64, at time.Time) error
}

// SessionRepository persists refresh tokens.
type SessionRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindByToken(ctx context.Context, value string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint64, at time.Time, ip *string) (bool, error)
	RevokeByToken(ctx context.Context, value string, at time.Time, ip *string) (bool, error)
	RevokeAllForAdmin(ctx context.Context, adminID uint64, at time.Time, ip *string) (int64, error)
	SetReplacedBy(ctx context.Context, id uint64, successor string) (bool, error)
}

// EventRecorder receives authentication events.
type EventRecorder interface {
	Record(ctx context.Context, event audit.Event)
}

// Options configures a Service.
type Options struct {
	AllowRegistration bool
	RefreshTTL        time.Duration
	Lockout           LockoutPolicy
}

// RequestMeta carries client provenance for a request.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AdminView is the public representation of an administrator.
type AdminView struct {
	ID          uint64      `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	Role        models.Role `json:"role"`
	LastLoginAt *time.Time  `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// NewAdminView builds the public view of admin.
func NewAdminView(admin *models.Admin) AdminView {
	return AdminView{
		ID:          admin.ID,
		Username:    admin.Username,
		Email:       admin.Email,
		Role:        admin.Role,
		LastLoginAt: admin.LastLoginAt,
		CreatedAt:   admin.CreatedAt,
	}
}

// TokenPair is an access token and its companion refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"` // Access token lifetime in seconds.
}

// Session is the result of a successful registration or login.
type Session struct {
	TokenPair
	Admin AdminView `json:"admin"`
}

// Service orchestrates the authentication flows.
type Service struct {
	admins   AdminRepository
	sessions SessionRepository
	hasher   security.PasswordHasher
	issuer   *security.TokenIssuer
	events   EventRecorder
	opts     Options
	now      func() time.Time
}

// NewService constructs a Service. events may be nil.
func NewService(admins AdminRepository, sessions SessionRepository, hasher security.PasswordHasher, issuer *security.TokenIssuer, events EventRecorder, opts Options) *Service {
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = DefaultRefreshTokenTTL
	}
	opts.Lockout = NewLockoutPolicy(opts.Lockout.MaxAttempts, opts.Lockout.LockDuration)
	return &Service{
		admins:   admins,
		sessions: sessions,
		hasher:   hasher,
		issuer:   issuer,
		events:   events,
		opts:     opts,
		now:      time.Now,
	}
}

// WithClock returns a copy of the service using now as its time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	clone := *s
	clone.now = now
	clone.issuer = s.issuer.WithClock(now)
	return &clone
}

// RegistrationEnabled reports whether self-service registration is open.
func (s *Service) RegistrationEnabled() bool {
	return s.opts.AllowRegistration
}

// Register creates an administrator with role admin and opens a session.
func (s *Service) Register(ctx context.Context, username, email, password string, meta RequestMeta) (*Session, error) {
	if !s.opts.AllowRegistration {
		return nil, ErrRegistrationDisabled
	}
	if problems := ValidateRegistration(username, email, password); len(problems) > 0 {
		return nil, newError(KindValidation, ErrValidation.Message, problems...)
	}

	cleanName := Sanitize(username)
	exists, errExists := s.admins.ExistsByEmailOrUsername(ctx, email, cleanName)
	if errExists != nil {
		return nil, fmt.Errorf("auth: check existing admin: %w", errExists)
	}
	if exists {
		return nil, ErrConflict
	}

	admin := &models.Admin{Username: cleanName, Email: email, Role: models.RoleAdmin}
	admin.SetPassword(password)
	if errCreate := s.admins.Create(ctx, admin); errCreate != nil {
		if errors.Is(errCreate, store.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("auth: create admin: %w", errCreate)
	}

	pair, errIssue := s.issue(ctx, admin, meta)
	if errIssue != nil {
		return nil, errIssue
	}
	s.record(ctx, audit.EventRegister, admin.ID, meta, nil)
	return &Session{TokenPair: *pair, Admin: NewAdminView(admin)}, nil
}

// Login verifies credentials, applying the lockout policy, and opens a session.
func (s *Service) Login(ctx context.Context, email, password string, meta RequestMeta) (*Session, error) {
	if problems := ValidateLogin(email, password); len(problems) > 0 {
		return nil, newError(KindValidation, ErrValidation.Message, problems...)
	}

	admin, errFind := s.admins.FindByEmail(ctx, email)
	if errFind != nil {
		if errors.Is(errFind, store.ErrNotFound) {
			s.record(ctx, audit.EventLoginFailure, 0, meta, map[string]any{"reason": "unknown_email"})
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: find admin: %w", errFind)
	}

	now := s.now()
	if admin.IsLocked(now) {
		return nil, newError(KindAccountLocked,
			fmt.Sprintf("Account is locked. Try again in %d minutes", minutesUntil(*admin.LockUntil, now)))
	}

	if !s.hasher.Verify(admin.Password, password) {
		failure, errRecord := s.admins.RecordFailedLogin(ctx, admin.ID, now, s.opts.Lockout.Rule(now))
		if errRecord != nil {
			return nil, fmt.Errorf("auth: persist failed attempt: %w", errRecord)
		}
		s.record(ctx, audit.EventLoginFailure, admin.ID, meta, map[string]any{"attempts": failure.Attempts})
		if failure.Locked {
			s.record(ctx, audit.EventAccountLocked, admin.ID, meta, map[string]any{"until": failure.LockUntil.UTC()})
			return nil, newError(KindAccountLocked,
				fmt.Sprintf("Too many failed attempts. Account locked for %d minutes", minutesUntil(*failure.LockUntil, now)))
		}
		if failure.LockUntil != nil && failure.LockUntil.After(now) {
			// A concurrent failure armed the lock first.
			return nil, newError(KindAccountLocked,
				fmt.Sprintf("Account is locked. Try again in %d minutes", minutesUntil(*failure.LockUntil, now)))
		}
		return nil, ErrInvalidCredentials
	}

	if errLogin := s.admins.RecordLogin(ctx, admin.ID, now); errLogin != nil {
		return nil, fmt.Errorf("auth: persist login: %w", errLogin)
	}
	admin.FailedLoginAttempts = 0
	admin.LockUntil = nil
	admin.LastLoginAt = &now

	pair, errIssue := s.issue(ctx, admin, meta)
	if errIssue != nil {
		return nil, errIssue
	}
	s.record(ctx, audit.EventLoginSuccess, admin.ID, meta, nil)
	return &Session{TokenPair: *pair, Admin: NewAdminView(admin)}, nil
}

// Refresh exchanges an active refresh token for a new token pair. Presenting
// a token that was already rotated revokes every session of its owner.
func (s *Service) Refresh(ctx context.Context, value string, meta RequestMeta) (*TokenPair, error) {
	if value == "" {
		return nil, ErrBadRequest
	}

	record, errFind := s.sessions.FindByToken(ctx, value)
	if errFind != nil {
		if errors.Is(errFind, store.ErrNotFound) {
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, fmt.Errorf("auth: find refresh token: %w", errFind)
	}
	if record.Admin == nil {
		return nil, ErrInvalidOrExpiredToken
	}

	now := s.now()
	if record.WasRotated() {
		return nil, s.reuseDetected(ctx, record.AdminID, now, meta)
	}
	if !record.IsActive(now) {
		return nil, ErrInvalidOrExpiredToken
	}

	access, errAccess := s.issuer.IssueAccessToken(record.Admin.ID, record.Admin.Role.String())
	if errAccess != nil {
		return nil, fmt.Errorf("auth: issue access token: %w", errAccess)
	}

	ip := optional(meta.IP)
	revoked, errRevoke := s.sessions.Revoke(ctx, record.ID, now, ip)
	if errRevoke != nil {
		return nil, fmt.Errorf("auth: revoke rotated token: %w", errRevoke)
	}
	if !revoked {
		// Another request rotated or revoked the token after we read it.
		return nil, s.reuseDetected(ctx, record.AdminID, now, meta)
	}

	successor, errCreate := s.createRefreshToken(ctx, record.AdminID, now, meta)
	if errCreate != nil {
		return nil, errCreate
	}
	if _, errLink := s.sessions.SetReplacedBy(ctx, record.ID, successor); errLink != nil {
		return nil, fmt.Errorf("auth: link rotated token: %w", errLink)
	}

	s.record(ctx, audit.EventTokenRefreshed, record.AdminID, meta, nil)
	return s.pair(access, successor), nil
}

// Logout revokes the given refresh token. Missing or unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, value string, meta RequestMeta) error {
	if value == "" {
		return nil
	}
	revoked, errRevoke := s.sessions.RevokeByToken(ctx, value, s.now(), optional(meta.IP))
	if errRevoke != nil {
		return fmt.Errorf("auth: revoke token: %w", errRevoke)
	}
	if revoked {
		s.record(ctx, audit.EventLogout, 0, meta, nil)
	}
	return nil
}

// Me returns the public view of the authenticated administrator.
func (s *Service) Me(ctx context.Context, identity Identity) (*AdminView, error) {
	admin, errFind := s.admins.FindByID(ctx, identity.AdminID)
	if errFind != nil {
		if errors.Is(errFind, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("auth: find admin: %w", errFind)
	}
	view := NewAdminView(admin)
	return &view, nil
}

// RevokeAllSessions revokes every refresh token of the caller.
func (s *Service) RevokeAllSessions(ctx context.Context, identity Identity, meta RequestMeta) error {
	n, errRevoke := s.sessions.RevokeAllForAdmin(ctx, identity.AdminID, s.now(), optional(meta.IP))
	if errRevoke != nil {
		return fmt.Errorf("auth: revoke sessions: %w", errRevoke)
	}
	s.record(ctx, audit.EventSessionsRevoked, identity.AdminID, meta, map[string]any{"revoked": n})
	return nil
}

// UnlockAccount clears the lockout state of target. Only super-admins may unlock.
func (s *Service) UnlockAccount(ctx context.Context, identity Identity, targetID uint64, meta RequestMeta) (*AdminView, error) {
	if !Authorize(SuperAdminRoles, identity.Role) {
		return nil, newError(KindForbidden, "Only super-admin can unlock accounts")
	}
	if errUpdate := s.admins.UpdateLockState(ctx, targetID, 0, nil); errUpdate != nil {
		if errors.Is(errUpdate, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("auth: unlock admin: %w", errUpdate)
	}
	admin, errFind := s.admins.FindByID(ctx, targetID)
	if errFind != nil {
		if errors.Is(errFind, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("auth: find admin: %w", errFind)
	}
	s.record(ctx, audit.EventAccountUnlocked, targetID, meta, map[string]any{"by": identity.AdminID})
	view := NewAdminView(admin)
	return &view, nil
}

// VerifyAccessToken resolves a bearer token to the caller identity.
func (s *Service) VerifyAccessToken(token string) (Identity, error) {
	claims, errVerify := s.issuer.VerifyAccessToken(token)
	if errVerify != nil {
		if errors.Is(errVerify, security.ErrExpiredToken) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrInvalidToken
	}
	role, errRole := models.ParseRole(claims.Role)
	if errRole != nil {
		return Identity{}, ErrInvalidToken
	}
	return Identity{AdminID: claims.AdminID, Role: role}, nil
}

func (s *Service) reuseDetected(ctx context.Context, adminID uint64, now time.Time, meta RequestMeta) error {
	n, errRevoke := s.sessions.RevokeAllForAdmin(ctx, adminID, now, optional(meta.IP))
	if errRevoke != nil {
		return fmt.Errorf("auth: revoke sessions after reuse: %w", errRevoke)
	}
	s.record(ctx, audit.EventTokenReuse, adminID, meta, map[string]any{"revoked": n})
	return ErrTokenReuseDetected
}

func (s *Service) issue(ctx context.Context, admin *models.Admin, meta RequestMeta) (*TokenPair, error) {
	access, errAccess := s.issuer.IssueAccessToken(admin.ID, admin.Role.String())
	if errAccess != nil {
		return nil, fmt.Errorf("auth: issue access token: %w", errAccess)
	}
	refresh, errRefresh := s.createRefreshToken(ctx, admin.ID, s.now(), meta)
	if errRefresh != nil {
		return nil, errRefresh
	}
	return s.pair(access, refresh), nil
}

func (s *Service) pair(access, refresh string) *TokenPair {
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.issuer.TTL() / time.Second),
	}
}

func (s *Service) createRefreshToken(ctx context.Context, adminID uint64, now time.Time, meta RequestMeta) (string, error) {
	value, errGenerate := security.GenerateRefreshToken()
	if errGenerate != nil {
		return "", fmt.Errorf("auth: generate refresh token: %w", errGenerate)
	}
	record := &models.RefreshToken{
		Token:       value,
		AdminID:     adminID,
		ExpiresAt:   now.Add(s.opts.RefreshTTL).UTC(),
		CreatedByIP: optional(meta.IP),
		UserAgent:   optional(meta.UserAgent),
	}
	if errCreate := s.sessions.Create(ctx, record); errCreate != nil {
		return "", fmt.Errorf("auth: store refresh token: %w", errCreate)
	}
	return value, nil
}

func (s *Service) record(ctx context.Context, eventType audit.EventType, adminID uint64, meta RequestMeta, metadata map[string]any) {
	if s.events == nil {
		return
	}
	s.events.Record(ctx, audit.Event{
		Type:      eventType,
		AdminID:   adminID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Metadata:  metadata,
	})
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
