// Package audit records security-relevant authentication events.
package audit

import (
	"context"
	"encoding/json"

	"github.com/estatehub/backoffice/internal/metrics"
	"github.com/estatehub/backoffice/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventType names an authentication event.
type EventType string

// Recorded event types.
const (
	EventRegister         EventType = "register"
	EventLoginSuccess     EventType = "login_success"
	EventLoginFailure     EventType = "login_failure"
	EventAccountLocked    EventType = "account_locked"
	EventTokenRefreshed   EventType = "token_refreshed"
	EventTokenReuse       EventType = "token_reuse_detected"
	EventLogout           EventType = "logout"
	EventSessionsRevoked  EventType = "sessions_revoked"
	EventAccountUnlocked  EventType = "account_unlocked"
	EventAdminProvisioned EventType = "admin_provisioned"
)

// Event is a single authentication event.
type Event struct {
	Type      EventType
	AdminID   uint64
	IP        string
	UserAgent string
	Metadata  map[string]any
}

// Recorder persists events to the auth_events table and mirrors them to the
// log and metrics. Failures to persist are logged, never returned.
type Recorder struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

// NewRecorder constructs a Recorder. db and m may be nil.
func NewRecorder(db *gorm.DB, m *metrics.Metrics) *Recorder {
	return &Recorder{db: db, metrics: m}
}

// Record stores the event.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if r == nil {
		return
	}
	fields := log.Fields{
		"event": string(event.Type),
		"ip":    event.IP,
	}
	if event.AdminID != 0 {
		fields["admin_id"] = event.AdminID
	}
	for key, value := range event.Metadata {
		fields[key] = value
	}
	entry := log.WithFields(fields)
	switch event.Type {
	case EventTokenReuse, EventAccountLocked:
		entry.Warn("auth event")
	case EventLoginFailure:
		entry.Info("auth event")
	default:
		entry.Debug("auth event")
	}

	r.metrics.AuthEvent(string(event.Type))

	if r.db == nil {
		return
	}
	row := models.AuthEvent{
		Type:      string(event.Type),
		IP:        event.IP,
		UserAgent: event.UserAgent,
	}
	if event.AdminID != 0 {
		adminID := event.AdminID
		row.AdminID = &adminID
	}
	if len(event.Metadata) > 0 {
		raw, errMarshal := json.Marshal(event.Metadata)
		if errMarshal == nil {
			row.Metadata = datatypes.JSON(raw)
		}
	}
	if errCreate := r.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		log.WithError(errCreate).WithField("event", string(event.Type)).Warn("audit: persist event failed")
	}
}

// ListForAdmin returns the most recent events for an admin, newest first.
func (r *Recorder) ListForAdmin(ctx context.Context, adminID uint64, limit int) ([]models.AuthEvent, error) {
	if r == nil || r.db == nil {
		return []models.AuthEvent{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	events := make([]models.AuthEvent, 0)
	errFind := r.db.WithContext(ctx).
		Where("admin_id = ?", adminID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&events).Error
	if errFind != nil {
		return nil, errFind
	}
	return events, nil
}
