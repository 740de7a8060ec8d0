// Package site persists the public landing-page resources: projects, client
// testimonials, contact submissions and newsletter subscriptions.
package site

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/estatehub/backoffice/internal/db"
	"github.com/estatehub/backoffice/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no row matches the requested id.
	ErrNotFound = errors.New("site: record not found")
	// ErrAlreadySubscribed is returned when an email is subscribed twice.
	ErrAlreadySubscribed = errors.New("site: email already subscribed")
)

// Store reads and writes site resources.
type Store struct {
	db *gorm.DB
}

// NewStore constructs a Store over conn.
func NewStore(conn *gorm.DB) *Store {
	return &Store{db: conn}
}

// Ping checks that the underlying database answers.
func (s *Store) Ping(ctx context.Context) error {
	return db.Ping(ctx, s.db)
}

func listNewest[T any](ctx context.Context, conn *gorm.DB) ([]T, error) {
	rows := make([]T, 0)
	if errFind := conn.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error; errFind != nil {
		return nil, errFind
	}
	return rows, nil
}

func findByID[T any](ctx context.Context, conn *gorm.DB, id uint64) (*T, error) {
	var row T
	if errFind := conn.WithContext(ctx).First(&row, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errFind
	}
	return &row, nil
}

// deleteByID removes the row and returns it as it was before deletion.
func deleteByID[T any](ctx context.Context, conn *gorm.DB, id uint64) (*T, error) {
	row, errFind := findByID[T](ctx, conn, id)
	if errFind != nil {
		return nil, errFind
	}
	res := conn.WithContext(ctx).Delete(row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return row, nil
}

// ListProjects returns all projects, newest first.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	return listNewest[models.Project](ctx, s.db)
}

// GetProject loads a project by id.
func (s *Store) GetProject(ctx context.Context, id uint64) (*models.Project, error) {
	return findByID[models.Project](ctx, s.db, id)
}

// CreateProject inserts a project.
func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	if project == nil {
		return fmt.Errorf("site: nil project")
	}
	return s.db.WithContext(ctx).Create(project).Error
}

// SaveProject writes every column of an existing project.
func (s *Store) SaveProject(ctx context.Context, project *models.Project) error {
	if project == nil || project.ID == 0 {
		return fmt.Errorf("site: project id is required")
	}
	return s.db.WithContext(ctx).Save(project).Error
}

// DeleteProject removes a project and returns the deleted row.
func (s *Store) DeleteProject(ctx context.Context, id uint64) (*models.Project, error) {
	return deleteByID[models.Project](ctx, s.db, id)
}

// ListClients returns all client testimonials, newest first.
func (s *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	return listNewest[models.Client](ctx, s.db)
}

// GetClient loads a client by id.
func (s *Store) GetClient(ctx context.Context, id uint64) (*models.Client, error) {
	return findByID[models.Client](ctx, s.db, id)
}

// CreateClient inserts a client.
func (s *Store) CreateClient(ctx context.Context, client *models.Client) error {
	if client == nil {
		return fmt.Errorf("site: nil client")
	}
	return s.db.WithContext(ctx).Create(client).Error
}

// SaveClient writes every column of an existing client.
func (s *Store) SaveClient(ctx context.Context, client *models.Client) error {
	if client == nil || client.ID == 0 {
		return fmt.Errorf("site: client id is required")
	}
	return s.db.WithContext(ctx).Save(client).Error
}

// DeleteClient removes a client and returns the deleted row.
func (s *Store) DeleteClient(ctx context.Context, id uint64) (*models.Client, error) {
	return deleteByID[models.Client](ctx, s.db, id)
}

// CreateContact records a contact form submission.
func (s *Store) CreateContact(ctx context.Context, submission *models.ContactSubmission) error {
	if submission == nil {
		return fmt.Errorf("site: nil contact submission")
	}
	submission.Email = strings.ToLower(strings.TrimSpace(submission.Email))
	return s.db.WithContext(ctx).Create(submission).Error
}

// ListContacts returns all contact submissions, newest first.
func (s *Store) ListContacts(ctx context.Context) ([]models.ContactSubmission, error) {
	return listNewest[models.ContactSubmission](ctx, s.db)
}

// DeleteContact removes a contact submission.
func (s *Store) DeleteContact(ctx context.Context, id uint64) error {
	_, errDelete := deleteByID[models.ContactSubmission](ctx, s.db, id)
	return errDelete
}

// Subscribe adds email to the newsletter list.
func (s *Store) Subscribe(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("site: email is required")
	}
	var count int64
	if errCount := s.db.WithContext(ctx).
		Model(&models.NewsletterSubscription{}).
		Where("email = ?", email).
		Count(&count).Error; errCount != nil {
		return nil, errCount
	}
	if count > 0 {
		return nil, ErrAlreadySubscribed
	}
	subscription := &models.NewsletterSubscription{Email: email}
	if errCreate := s.db.WithContext(ctx).Create(subscription).Error; errCreate != nil {
		if db.IsUniqueViolation(errCreate) {
			return nil, ErrAlreadySubscribed
		}
		return nil, errCreate
	}
	return subscription, nil
}

// ListSubscriptions returns all newsletter subscriptions, newest first.
func (s *Store) ListSubscriptions(ctx context.Context) ([]models.NewsletterSubscription, error) {
	return listNewest[models.NewsletterSubscription](ctx, s.db)
}

// DeleteSubscription removes a newsletter subscription.
func (s *Store) DeleteSubscription(ctx context.Context, id uint64) error {
	_, errDelete := deleteByID[models.NewsletterSubscription](ctx, s.db, id)
	return errDelete
}
