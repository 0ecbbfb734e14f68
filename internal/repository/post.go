package repository

import (
	"context"
	"time"

	"tutorhub/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations, including
// the post's ordered applicants list.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetByCode(ctx context.Context, code string) (*models.Post, error)
	List(ctx context.Context, kind models.PostKind, status models.PostStatus, limit, offset int) ([]models.Post, error)
	Search(ctx context.Context, query string, limit, offset int) ([]models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	UpdateStatus(ctx context.Context, id uint, status models.PostStatus) error
	CountCreatedOn(ctx context.Context, day time.Time) (int64, error)

	HasApplicant(ctx context.Context, postID, candidateID uint) (bool, error)
	AppendApplicant(ctx context.Context, postID uint, ref models.CandidateRef) error
	RemoveApplicant(ctx context.Context, postID, candidateID uint) error
	ListApplicants(ctx context.Context, postID uint) ([]models.PostApplicant, error)

	WithTx(tx *gorm.DB) PostRepository
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) WithTx(tx *gorm.DB) PostRepository {
	if tx == nil {
		return r
	}
	return &postRepository{db: tx}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Preload("Owner").First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetByCode(ctx context.Context, code string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Preload("Owner").Where("code = ?", code).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, kind models.PostKind, status models.PostStatus, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	q := r.db.WithContext(ctx).
		Preload("Owner").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&posts).Error
	return posts, err
}

func (r *postRepository) Search(ctx context.Context, query string, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("title ILIKE ? OR description ILIKE ? OR code ILIKE ?", pattern, pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *postRepository) UpdateStatus(ctx context.Context, id uint, status models.PostStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *postRepository) CountCreatedOn(ctx context.Context, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&count).Error
	return count, err
}

func (r *postRepository) HasApplicant(ctx context.Context, postID, candidateID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PostApplicant{}).
		Where("post_id = ? AND candidate_id = ?", postID, candidateID).
		Count(&count).Error
	return count > 0, err
}

func (r *postRepository) AppendApplicant(ctx context.Context, postID uint, ref models.CandidateRef) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PostApplicant{}).
		Where("post_id = ?", postID).
		Count(&count).Error; err != nil {
		return err
	}

	applicant := models.PostApplicant{
		PostID:        postID,
		CandidateID:   ref.CandidateID,
		CandidateRole: ref.Role,
		Position:      int(count),
	}
	return r.db.WithContext(ctx).Create(&applicant).Error
}

// RemoveApplicant deletes every entry for the candidate; removing an
// already-absent candidate is a no-op.
func (r *postRepository) RemoveApplicant(ctx context.Context, postID, candidateID uint) error {
	return r.db.WithContext(ctx).
		Where("post_id = ? AND candidate_id = ?", postID, candidateID).
		Delete(&models.PostApplicant{}).Error
}

func (r *postRepository) ListApplicants(ctx context.Context, postID uint) ([]models.PostApplicant, error) {
	var applicants []models.PostApplicant
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("position ASC").
		Find(&applicants).Error
	return applicants, err
}
