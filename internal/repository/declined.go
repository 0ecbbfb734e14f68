package repository

import (
	"context"

	"tutorhub/internal/models"

	"gorm.io/gorm"
)

// DeclinedApplicationRepository archives declined applications. The archive
// is insert-only; rows are never updated or removed.
type DeclinedApplicationRepository interface {
	Create(ctx context.Context, declined *models.DeclinedApplication) error
	CreateBatch(ctx context.Context, declined []models.DeclinedApplication) error
	ListByPost(ctx context.Context, postID uint) ([]models.DeclinedApplication, error)
	ListByCandidate(ctx context.Context, candidateID uint, limit, offset int) ([]models.DeclinedApplication, error)

	WithTx(tx *gorm.DB) DeclinedApplicationRepository
}

type declinedApplicationRepository struct {
	db *gorm.DB
}

// NewDeclinedApplicationRepository creates a new declined-application repository
func NewDeclinedApplicationRepository(db *gorm.DB) DeclinedApplicationRepository {
	return &declinedApplicationRepository{db: db}
}

func (r *declinedApplicationRepository) WithTx(tx *gorm.DB) DeclinedApplicationRepository {
	if tx == nil {
		return r
	}
	return &declinedApplicationRepository{db: tx}
}

func (r *declinedApplicationRepository) Create(ctx context.Context, declined *models.DeclinedApplication) error {
	return r.db.WithContext(ctx).Create(declined).Error
}

func (r *declinedApplicationRepository) CreateBatch(ctx context.Context, declined []models.DeclinedApplication) error {
	if len(declined) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&declined).Error
}

func (r *declinedApplicationRepository) ListByPost(ctx context.Context, postID uint) ([]models.DeclinedApplication, error) {
	var rows []models.DeclinedApplication
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("declined_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *declinedApplicationRepository) ListByCandidate(ctx context.Context, candidateID uint, limit, offset int) ([]models.DeclinedApplication, error) {
	var rows []models.DeclinedApplication
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("declined_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}
