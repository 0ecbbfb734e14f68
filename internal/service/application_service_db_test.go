package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tutorhub/internal/database"
	"tutorhub/internal/featureflags"
	"tutorhub/internal/models"
	"tutorhub/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openLifecycleDB opens an in-memory database with the same error
// translation setting the production connection uses, so constraint
// violations come back as gorm.ErrDuplicatedKey.
func openLifecycleDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// blindPrecheckAppRepo delegates to a real ApplicationRepository but never
// sees existing rows in FindByPostAndCandidate, simulating a concurrent
// insert landing between the pre-check and Create.
type blindPrecheckAppRepo struct {
	repository.ApplicationRepository
}

func (r blindPrecheckAppRepo) FindByPostAndCandidate(context.Context, uint, uint) (*models.Application, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r blindPrecheckAppRepo) WithTx(tx *gorm.DB) repository.ApplicationRepository {
	return blindPrecheckAppRepo{r.ApplicationRepository.WithTx(tx)}
}

func TestApplicationUniqueIndexTranslatesToDuplicatedKey(t *testing.T) {
	db := openLifecycleDB(t)
	apps := repository.NewApplicationRepository(db)

	first := &models.Application{
		PostID:        1,
		CandidateID:   9,
		CandidateRole: models.RoleTeacher,
		Status:        models.ApplicationStatusPending,
		AppliedAt:     time.Now(),
	}
	if err := apps.Create(context.Background(), first); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	second := &models.Application{
		PostID:        1,
		CandidateID:   9,
		CandidateRole: models.RoleTeacher,
		Status:        models.ApplicationStatusPending,
		AppliedAt:     time.Now(),
	}
	err := apps.Create(context.Background(), second)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected gorm.ErrDuplicatedKey from second insert, got %v", err)
	}
}

func TestApplyDuplicateRaceAgainstRealIndex(t *testing.T) {
	db := openLifecycleDB(t)

	owner := &models.User{Email: "owner@example.com", PasswordHash: "x", DisplayName: "Owner", Role: models.RoleGuardian}
	candidate := &models.User{Email: "cand@example.com", PasswordHash: "x", DisplayName: "Cand", Role: models.RoleTeacher}
	if err := db.Create(owner).Error; err != nil {
		t.Fatalf("create owner: %v", err)
	}
	if err := db.Create(candidate).Error; err != nil {
		t.Fatalf("create candidate: %v", err)
	}
	post := &models.Post{Code: "P-010125-90", Kind: models.PostKindTutoring, Title: "Algebra tutoring", OwnerID: owner.ID, Status: models.PostStatusOpen}
	if err := db.Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}

	apps := blindPrecheckAppRepo{repository.NewApplicationRepository(db)}
	svc := NewApplicationService(
		db,
		apps,
		repository.NewDeclinedApplicationRepository(db),
		repository.NewPostRepository(db),
		repository.NewUserRepository(db),
		repository.NewAdminNotificationRepository(db),
		nil,
		featureflags.NewManager(""),
	)

	ref := models.CandidateRef{CandidateID: candidate.ID, Role: models.RoleTeacher}
	if _, err := svc.Apply(context.Background(), post.ID, ref); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	// The blind pre-check misses the existing row; only the unique index
	// stands between the second insert and a duplicate application.
	_, err := svc.Apply(context.Background(), post.ID, ref)
	assertAppErrCode(t, err, "CONFLICT")

	var count int64
	if err := db.Model(&models.Application{}).
		Where("post_id = ? AND candidate_id = ?", post.ID, candidate.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count applications: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one application row, got %d", count)
	}

	var applicants int64
	if err := db.Model(&models.PostApplicant{}).
		Where("post_id = ? AND candidate_id = ?", post.ID, candidate.ID).
		Count(&applicants).Error; err != nil {
		t.Fatalf("count applicants: %v", err)
	}
	if applicants != 1 {
		t.Fatalf("expected exactly one applicant entry, got %d", applicants)
	}
}
