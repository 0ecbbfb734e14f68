package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"tutorhub/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestApplicationRepository_FindByPostAndCandidate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "post_id", "candidate_id", "status"}).
			AddRow(4, 5, 9, "pending")
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "applications" WHERE post_id = $1 AND candidate_id = $2`)).
			WithArgs(5, 9, 1).
			WillReturnRows(rows)

		app, err := repo.FindByPostAndCandidate(ctx, 5, 9)
		require.NoError(t, err)
		assert.Equal(t, uint(4), app.ID)
		assert.Equal(t, models.ApplicationStatusPending, app.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "applications" WHERE post_id = $1 AND candidate_id = $2`)).
			WithArgs(5, 99, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		app, err := repo.FindByPostAndCandidate(ctx, 5, 99)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.Nil(t, app)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestApplicationRepository_DeletePendingByPost(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "applications" WHERE post_id = $1 AND status = $2 AND id <> $3`)).
		WithArgs(5, string(models.ApplicationStatusPending), 4).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	deleted, err := repo.DeletePendingByPost(ctx, 5, 4)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "applications"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	app := &models.Application{
		PostID:        5,
		CandidateID:   9,
		CandidateRole: models.RoleTeacher,
		Status:        models.ApplicationStatusPending,
		AppliedAt:     time.Now(),
	}
	err := repo.Create(ctx, app)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_RemoveApplicant(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "post_applicants" WHERE post_id = $1 AND candidate_id = $2`)).
		WithArgs(5, 9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, repo.RemoveApplicant(ctx, 5, 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_AppendApplicant(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "post_applicants" WHERE post_id = $1`)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "post_applicants"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	err := repo.AppendApplicant(ctx, 5, models.CandidateRef{CandidateID: 9, Role: models.RoleTeacher})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminNotificationRepository_MarkProcessed(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAdminNotificationRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "admin_notifications" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.MarkProcessed(ctx, 4, models.NotificationStatusApproved, 2, time.Now())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
