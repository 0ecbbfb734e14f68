package repository

import (
	"context"
	"time"

	"tutorhub/internal/models"

	"gorm.io/gorm"
)

// AdRepository defines the interface for ad placement data operations
type AdRepository interface {
	Create(ctx context.Context, ad *models.Ad) error
	GetByID(ctx context.Context, id uint) (*models.Ad, error)
	List(ctx context.Context, slot string, limit, offset int) ([]models.Ad, error)
	ListScheduledThrough(ctx context.Context, slot string, at time.Time) ([]models.Ad, error)
	Update(ctx context.Context, ad *models.Ad) error
	Delete(ctx context.Context, id uint) error
}

type adRepository struct {
	db *gorm.DB
}

// NewAdRepository creates a new ad repository
func NewAdRepository(db *gorm.DB) AdRepository {
	return &adRepository{db: db}
}

func (r *adRepository) Create(ctx context.Context, ad *models.Ad) error {
	return r.db.WithContext(ctx).Create(ad).Error
}

func (r *adRepository) GetByID(ctx context.Context, id uint) (*models.Ad, error) {
	var ad models.Ad
	if err := r.db.WithContext(ctx).First(&ad, id).Error; err != nil {
		return nil, err
	}
	return &ad, nil
}

func (r *adRepository) List(ctx context.Context, slot string, limit, offset int) ([]models.Ad, error) {
	var ads []models.Ad
	q := r.db.WithContext(ctx).Order("starts_at DESC").Limit(limit).Offset(offset)
	if slot != "" {
		q = q.Where("slot = ?", slot)
	}
	err := q.Find(&ads).Error
	return ads, err
}

// ListScheduledThrough returns ads whose window covers the given instant.
// Status overrides are applied by the caller via EffectiveStatus.
func (r *adRepository) ListScheduledThrough(ctx context.Context, slot string, at time.Time) ([]models.Ad, error) {
	var ads []models.Ad
	q := r.db.WithContext(ctx).
		Where("starts_at <= ? AND ends_at > ?", at, at).
		Order("starts_at ASC")
	if slot != "" {
		q = q.Where("slot = ?", slot)
	}
	err := q.Find(&ads).Error
	return ads, err
}

func (r *adRepository) Update(ctx context.Context, ad *models.Ad) error {
	return r.db.WithContext(ctx).Save(ad).Error
}

func (r *adRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Ad{}, id).Error
}
