package service

import (
	"context"
	"strings"
	"time"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/LeoQ9904/back-ecommerce/internal/repository"
	"github.com/LeoQ9904/back-ecommerce/internal/search"
	"github.com/sirupsen/logrus"
)

type NotificationService struct {
	repo repository.NotificationRepository
	log  logrus.FieldLogger
	now  func() time.Time
}

func NewNotificationService(repo repository.NotificationRepository, log logrus.FieldLogger) *NotificationService {
	return &NotificationService{repo: repo, log: log, now: time.Now}
}

func (s *NotificationService) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	if strings.TrimSpace(n.Title) == "" {
		return nil, domain.Errorf(domain.ErrValidation, "title is required")
	}
	if strings.TrimSpace(n.Description) == "" {
		return nil, domain.Errorf(domain.ErrValidation, "description is required")
	}
	if n.Status == "" {
		n.Status = domain.NotificationActive
	}
	if !n.Status.Valid() {
		return nil, domain.Errorf(domain.ErrValidation, "invalid status %q", n.Status)
	}
	if n.Priority < 0 {
		return nil, domain.Errorf(domain.ErrValidation, "priority cannot be negative")
	}

	if err := s.repo.Create(ctx, n); err != nil {
		logFailure(s.log, err, "failed to create notification", logrus.Fields{"title": n.Title})
		return nil, err
	}
	return n, nil
}

func (s *NotificationService) FindAll(ctx context.Context) ([]domain.Notification, error) {
	return s.repo.FindAll(ctx)
}

// FindActive lists the notifications that should be shown right now, highest
// priority first.
func (s *NotificationService) FindActive(ctx context.Context) ([]domain.Notification, error) {
	return s.repo.FindActive(ctx, s.now())
}

func (s *NotificationService) FindByStatus(ctx context.Context, status domain.NotificationStatus) ([]domain.Notification, error) {
	if !status.Valid() {
		return nil, domain.Errorf(domain.ErrValidation, "invalid status %q", status)
	}
	return s.repo.FindByStatus(ctx, status)
}

func (s *NotificationService) Search(ctx context.Context, term string) ([]domain.Notification, error) {
	pred := search.BuildPredicate(term)
	if pred.Empty() {
		return nil, domain.Errorf(domain.ErrValidation, "search term is required")
	}
	return s.repo.Search(ctx, pred)
}

func (s *NotificationService) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *NotificationService) Update(ctx context.Context, id string, update domain.NotificationUpdate) (*domain.Notification, error) {
	if update.Status != nil && !update.Status.Valid() {
		return nil, domain.Errorf(domain.ErrValidation, "invalid status %q", *update.Status)
	}
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return nil, domain.Errorf(domain.ErrValidation, "title cannot be empty")
	}
	if update.Priority != nil && *update.Priority < 0 {
		return nil, domain.Errorf(domain.ErrValidation, "priority cannot be negative")
	}

	n, err := s.repo.Update(ctx, id, update)
	if err != nil {
		logFailure(s.log, err, "failed to update notification", logrus.Fields{"id": id})
		return nil, err
	}
	return n, nil
}

func (s *NotificationService) ToggleVisibility(ctx context.Context, id string) (*domain.Notification, error) {
	return s.repo.ToggleVisibility(ctx, id)
}

// ArchiveExpired archives every notification past its expiration date.
func (s *NotificationService) ArchiveExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.ArchiveExpired(ctx, s.now())
	if err != nil {
		logFailure(s.log, err, "failed to archive expired notifications", nil)
		return 0, err
	}
	if n > 0 {
		s.log.WithField("archived", n).Info("archived expired notifications")
	}
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
