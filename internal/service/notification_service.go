package service

import (
	"context"
	"errors"

	"tutorhub/internal/models"
	"tutorhub/internal/repository"

	"gorm.io/gorm"
)

// NotificationService lists back-office notification records for admins.
// Decisions on withdrawal requests flow through ApplicationService; this
// service is read-only over the records themselves.
type NotificationService struct {
	notesRepo repository.AdminNotificationRepository
}

// NewNotificationService returns a new NotificationService.
func NewNotificationService(notesRepo repository.AdminNotificationRepository) *NotificationService {
	return &NotificationService{notesRepo: notesRepo}
}

// ListNotifications returns notifications, optionally filtered by status.
func (s *NotificationService) ListNotifications(ctx context.Context, status models.NotificationStatus, limit, offset int) ([]models.AdminNotification, error) {
	if status != "" {
		switch status {
		case models.NotificationStatusPending, models.NotificationStatusApproved, models.NotificationStatusDeclined:
		default:
			return nil, models.NewValidationError("Unknown notification status filter")
		}
	}
	rows, err := s.notesRepo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

// GetNotification returns one notification record.
func (s *NotificationService) GetNotification(ctx context.Context, id uint) (*models.AdminNotification, error) {
	n, err := s.notesRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Notification", id)
		}
		return nil, models.NewInternalError(err)
	}
	return n, nil
}
