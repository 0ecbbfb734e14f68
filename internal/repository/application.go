package repository

import (
	"context"

	"tutorhub/internal/models"

	"gorm.io/gorm"
)

// ApplicationRepository defines the interface for application lifecycle data
// operations. WithTx rebinds the repository to a transaction so multi-step
// transitions commit atomically.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id uint) (*models.Application, error)
	FindByPostAndCandidate(ctx context.Context, postID, candidateID uint) (*models.Application, error)
	ListByPost(ctx context.Context, postID uint, statuses ...models.ApplicationStatus) ([]models.Application, error)
	ListByCandidate(ctx context.Context, candidateID uint, limit, offset int) ([]models.Application, error)
	ListPendingSiblings(ctx context.Context, postID, excludeID uint) ([]models.Application, error)
	DeletePendingByPost(ctx context.Context, postID, excludeID uint) (int64, error)
	Update(ctx context.Context, app *models.Application) error
	Delete(ctx context.Context, id uint) error

	WithTx(tx *gorm.DB) ApplicationRepository
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) WithTx(tx *gorm.DB) ApplicationRepository {
	if tx == nil {
		return r
	}
	return &applicationRepository{db: tx}
}

func (r *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *applicationRepository) GetByID(ctx context.Context, id uint) (*models.Application, error) {
	var app models.Application
	err := r.db.WithContext(ctx).
		Preload("Post").
		Preload("Candidate").
		First(&app, id).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) FindByPostAndCandidate(ctx context.Context, postID, candidateID uint) (*models.Application, error) {
	var app models.Application
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND candidate_id = ?", postID, candidateID).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) ListByPost(ctx context.Context, postID uint, statuses ...models.ApplicationStatus) ([]models.Application, error) {
	var apps []models.Application
	q := r.db.WithContext(ctx).
		Preload("Candidate").
		Where("post_id = ?", postID).
		Order("applied_at ASC")
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Find(&apps).Error
	return apps, err
}

func (r *applicationRepository) ListByCandidate(ctx context.Context, candidateID uint, limit, offset int) ([]models.Application, error) {
	var apps []models.Application
	err := r.db.WithContext(ctx).
		Preload("Post").
		Where("candidate_id = ?", candidateID).
		Order("applied_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepository) ListPendingSiblings(ctx context.Context, postID, excludeID uint) ([]models.Application, error) {
	var apps []models.Application
	err := r.db.WithContext(ctx).
		Preload("Candidate").
		Where("post_id = ? AND status = ? AND id <> ?", postID, models.ApplicationStatusPending, excludeID).
		Order("applied_at ASC").
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepository) DeletePendingByPost(ctx context.Context, postID, excludeID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("post_id = ? AND status = ? AND id <> ?", postID, models.ApplicationStatusPending, excludeID).
		Delete(&models.Application{})
	return res.RowsAffected, res.Error
}

func (r *applicationRepository) Update(ctx context.Context, app *models.Application) error {
	return r.db.WithContext(ctx).Save(app).Error
}

func (r *applicationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Application{}, id).Error
}
