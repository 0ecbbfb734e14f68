package repository

import (
	"context"
	"time"

	"tutorhub/internal/models"

	"gorm.io/gorm"
)

// AdminNotificationRepository defines the interface for back-office
// notification records.
type AdminNotificationRepository interface {
	Create(ctx context.Context, n *models.AdminNotification) error
	GetByID(ctx context.Context, id uint) (*models.AdminNotification, error)
	List(ctx context.Context, status models.NotificationStatus, limit, offset int) ([]models.AdminNotification, error)
	MarkProcessed(ctx context.Context, applicationID uint, status models.NotificationStatus, processedBy uint, processedAt time.Time) error

	WithTx(tx *gorm.DB) AdminNotificationRepository
}

type adminNotificationRepository struct {
	db *gorm.DB
}

// NewAdminNotificationRepository creates a new admin-notification repository
func NewAdminNotificationRepository(db *gorm.DB) AdminNotificationRepository {
	return &adminNotificationRepository{db: db}
}

func (r *adminNotificationRepository) WithTx(tx *gorm.DB) AdminNotificationRepository {
	if tx == nil {
		return r
	}
	return &adminNotificationRepository{db: tx}
}

func (r *adminNotificationRepository) Create(ctx context.Context, n *models.AdminNotification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *adminNotificationRepository) GetByID(ctx context.Context, id uint) (*models.AdminNotification, error) {
	var n models.AdminNotification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *adminNotificationRepository) List(ctx context.Context, status models.NotificationStatus, limit, offset int) ([]models.AdminNotification, error) {
	var rows []models.AdminNotification
	q := r.db.WithContext(ctx).Order("requested_at DESC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&rows).Error
	return rows, err
}

// MarkProcessed stamps the decision on every pending notification for the
// application. Processing an already-processed notification is a no-op.
func (r *adminNotificationRepository) MarkProcessed(ctx context.Context, applicationID uint, status models.NotificationStatus, processedBy uint, processedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AdminNotification{}).
		Where("application_id = ? AND status = ?", applicationID, models.NotificationStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"processed_by": processedBy,
			"processed_at": processedAt,
		}).Error
}
