package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tutorhub/internal/config"
	"tutorhub/internal/database"
	"tutorhub/internal/featureflags"
	"tutorhub/internal/linkmark"
	"tutorhub/internal/models"
	"tutorhub/internal/repository"
	"tutorhub/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestServer builds a Server over an in-memory sqlite database with all
// repositories and services wired, but no HTTP middleware stack.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	s := &Server{
		config:       &config.Config{JWTSecret: "test-secret"},
		db:           db,
		userRepo:     repository.NewUserRepository(db),
		postRepo:     repository.NewPostRepository(db),
		appRepo:      repository.NewApplicationRepository(db),
		declinedRepo: repository.NewDeclinedApplicationRepository(db),
		notesRepo:    repository.NewAdminNotificationRepository(db),
		invoiceRepo:  repository.NewInvoiceRepository(db),
		adRepo:       repository.NewAdRepository(db),
		featureFlags: featureflags.NewManager(""),
	}
	s.applicationService = service.NewApplicationService(
		db, s.appRepo, s.declinedRepo, s.postRepo, s.userRepo, s.notesRepo, nil, s.featureFlags)
	s.postService = service.NewPostService(s.postRepo, s.userRepo)
	s.userService = service.NewUserService(s.userRepo)
	s.notificationService = service.NewNotificationService(s.notesRepo)
	s.invoiceService = service.NewInvoiceService(s.invoiceRepo, s.userRepo)
	s.adService = service.NewAdService(s.adRepo)
	return s
}

// testApp registers the application lifecycle routes behind a stub identity.
func testApp(s *Server, userID uint, role models.Role) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals("userID", userID)
			c.Locals("userRole", role)
		}
		return c.Next()
	})

	app.Post("/api/posts/:id/applications", s.ApplyToPost)
	app.Get("/api/posts/:id/applications", s.GetPostApplications)
	app.Get("/api/applications/me", s.GetMyApplications)
	app.Post("/api/applications/:id/approve", s.ApproveApplication)
	app.Post("/api/applications/:id/decline", s.DeclineApplication)
	app.Post("/api/applications/:id/withdrawal", s.RequestWithdrawal)
	app.Post("/api/applications/:id/withdrawal/approve", s.ApproveWithdrawal)
	app.Post("/api/applications/:id/withdrawal/decline", s.DeclineWithdrawal)
	app.Get("/api/applications/:id", s.GetApplication)
	return app
}

func createUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Email:        fmt.Sprintf("%s-%d@example.com", role, time.Now().UnixNano()),
		PasswordHash: "x",
		DisplayName:  "Test " + string(role),
		Role:         role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

var testPostSeq int

func createOpenPost(t *testing.T, db *gorm.DB, owner *models.User, kind models.PostKind) *models.Post {
	t.Helper()
	testPostSeq++
	p := &models.Post{
		Code:    fmt.Sprintf("P-010125-%02d", testPostSeq%100),
		Kind:    kind,
		Title:   "Algebra tutoring",
		OwnerID: owner.ID,
		Status:  models.PostStatusOpen,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func createPendingApplication(t *testing.T, db *gorm.DB, post *models.Post, candidate *models.User) *models.Application {
	t.Helper()
	a := &models.Application{
		PostID:        post.ID,
		CandidateID:   candidate.ID,
		CandidateRole: candidate.Role,
		Status:        models.ApplicationStatusPending,
		AppliedAt:     time.Now(),
	}
	require.NoError(t, db.Create(a).Error)
	entry := &models.PostApplicant{
		PostID:        post.ID,
		CandidateID:   candidate.ID,
		CandidateRole: candidate.Role,
	}
	require.NoError(t, db.Create(entry).Error)
	return a
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestApplyToPost_CreatesPendingApplication(t *testing.T) {
	s := newTestServer(t)
	guardian := createUser(t, s.db, models.RoleGuardian)
	teacher := createUser(t, s.db, models.RoleTeacher)
	post := createOpenPost(t, s.db, guardian, models.PostKindTutoring)

	app := testApp(s, teacher.ID, teacher.Role)
	resp := postJSON(t, app, fmt.Sprintf("/api/posts/%d/applications", post.ID), nil)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Application
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, models.ApplicationStatusPending, created.Status)
	assert.Equal(t, teacher.ID, created.CandidateID)

	var applicants []models.PostApplicant
	require.NoError(t, s.db.Where("post_id = ?", post.ID).Find(&applicants).Error)
	assert.Len(t, applicants, 1)
}

func TestApplyToPost_DuplicateRejected(t *testing.T) {
	s := newTestServer(t)
	guardian := createUser(t, s.db, models.RoleGuardian)
	teacher := createUser(t, s.db, models.RoleTeacher)
	post := createOpenPost(t, s.db, guardian, models.PostKindTutoring)
	createPendingApplication(t, s.db, post, teacher)

	app := testApp(s, teacher.ID, teacher.Role)
	resp := postJSON(t, app, fmt.Sprintf("/api/posts/%d/applications", post.ID), nil)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestApplyToPost_OwnerRoleForbidden(t *testing.T) {
	s := newTestServer(t)
	guardian := createUser(t, s.db, models.RoleGuardian)
	post := createOpenPost(t, s.db, guardian, models.PostKindTutoring)

	app := testApp(s, guardian.ID, guardian.Role)
	resp := postJSON(t, app, fmt.Sprintf("/api/posts/%d/applications", post.ID), nil)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestApproveApplication_CascadesOverSiblings(t *testing.T) {
	s := newTestServer(t)
	guardian := createUser(t, s.db, models.RoleGuardian)
	winner := createUser(t, s.db, models.RoleTeacher)
	loserA := createUser(t, s.db, models.RoleTeacher)
	loserB := createUser(t, s.db, models.RoleTeacher)
	post := createOpenPost(t, s.db, guardian, models.PostKindTutoring)

	winning := createPendingApplication(t, s.db, post, winner)
	createPendingApplication(t, s.db, post, loserA)
	createPendingApplication(t, s.db, post, loserB)

	app := testApp(s, guardian.ID, guardian.Role)
	resp := postJSON(t, app, fmt.Sprintf("/api/applications/%d/approve", winning.ID), nil)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var approved models.Application
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&approved))
	assert.Equal(t, models.ApplicationStatusApproved, approved.Status)

	// Siblings are gone from the live table and archived with a post link.
	var remaining int64
	require.NoError(t, s.db.Model(&models.Application{}).
		Where("post_id = ?", post.ID).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)

	var archived []models.DeclinedApplication
	require.NoError(t, s.db.Where("post_id = ?", post.ID).Find(&archived).Error)
	require.Len(t, archived, 2)
	for _, d := range archived {
		assert.True(t, d.AutoDeclined)
		assert.True(t, linkmark.ContainsLink(d.DeclineReason, post.ID))
	}

	var filled models.Post
	require.NoError(t, s.db.First(&filled, post.ID).Error)
	assert.Equal(t, models.PostStatusFilled, filled.Status)
}

func TestApproveApplication_StrangerForbidden(t *testing.T) {
	s := newTestServer(t)
	guardian := createUser(t, s.db, models.RoleGuardian)
	teacher := createUser(t, s.db, models.RoleTeacher)
	stranger := createUser(t, s.db, models.RoleGuardian)
	post := createOpenPost(t, s.db, guardian, models.PostKindTutoring)
	application := createPendingApplication(t, s.db, post, teacher)

	app := testApp(s, stranger.ID, stranger.Role)
	resp := postJSON(t, app, fmt.Sprintf("/api/applications/%d/approve", application.ID), nil)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDeclineApplication_ArchivesAndRemoves(t *testing.T) {
	s := newTestServer(t)
	guardian := createUser(t, s.db, models.RoleGuardian)
	teacher := createUser(t, s.db, models.RoleTeacher)
	post := createOpenPost(t, s.db, guardian, models.PostKindTutoring)
	application := createPendingApplication(t, s.db, post, teacher)

	app := testApp(s, guardian.ID, guardian.Role)
	resp := postJSON(t, app, fmt.Sprintf("/api/applications/%d/decline", application.ID),
		fiber.Map{"reason": "Looking for more experience"})
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var live int64
	require.NoError(t, s.db.Model(&models.Application{}).
		Where("id = ?", application.ID).Count(&live).Error)
	assert.Zero(t, live)

	var archived models.DeclinedApplication
	require.NoError(t, s.db.Where("original_application_id = ?", application.ID).
		First(&archived).Error)
	assert.False(t, archived.AutoDeclined)
	assert.Equal(t, "Looking for more experience", archived.DeclineReason)
}

func TestDeclineApplication_ReasonRequired(t *testing.T) {
	s := newTestServer(t)
	guardian := createUser(t, s.db, models.RoleGuardian)
	teacher := createUser(t, s.db, models.RoleTeacher)
	post := createOpenPost(t, s.db, guardian, models.PostKindTutoring)
	application := createPendingApplication(t, s.db, post, teacher)

	app := testApp(s, guardian.ID, guardian.Role)
	resp := postJSON(t, app, fmt.Sprintf("/api/applications/%d/decline", application.ID),
		fiber.Map{"reason": ""})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWithdrawalFlow_DeclineRestoresPreviousStatus(t *testing.T) {
	s := newTestServer(t)
	guardian := createUser(t, s.db, models.RoleGuardian)
	teacher := createUser(t, s.db, models.RoleTeacher)
	admin := createUser(t, s.db, models.RoleAdmin)
	post := createOpenPost(t, s.db, guardian, models.PostKindTutoring)
	application := createPendingApplication(t, s.db, post, teacher)

	// Approve first so the withdrawal has a non-default status to restore.
	ownerApp := testApp(s, guardian.ID, guardian.Role)
	resp := postJSON(t, ownerApp, fmt.Sprintf("/api/applications/%d/approve", application.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	candidateApp := testApp(s, teacher.ID, teacher.Role)
	resp = postJSON(t, candidateApp, fmt.Sprintf("/api/applications/%d/withdrawal", application.ID),
		fiber.Map{"note": "Moving abroad"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	var pendingNotes int64
	require.NoError(t, s.db.Model(&models.AdminNotification{}).
		Where("application_id = ? AND status = ?", application.ID, models.NotificationStatusPending).
		Count(&pendingNotes).Error)
	assert.Equal(t, int64(1), pendingNotes)

	adminApp := testApp(s, admin.ID, admin.Role)
	resp = postJSON(t, adminApp, fmt.Sprintf("/api/applications/%d/withdrawal/decline", application.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer func() { _ = resp.Body.Close() }()

	var restored models.Application
	require.NoError(t, s.db.First(&restored, application.ID).Error)
	assert.Equal(t, models.ApplicationStatusApproved, restored.Status)
	assert.Nil(t, restored.WithdrawalRequestedAt)
	assert.Empty(t, restored.WithdrawalNote)

	var note models.AdminNotification
	require.NoError(t, s.db.Where("application_id = ?", application.ID).First(&note).Error)
	assert.Equal(t, models.NotificationStatusDeclined, note.Status)
}

func TestWithdrawalFlow_ApproveRemovesApplicant(t *testing.T) {
	s := newTestServer(t)
	guardian := createUser(t, s.db, models.RoleGuardian)
	teacher := createUser(t, s.db, models.RoleTeacher)
	admin := createUser(t, s.db, models.RoleAdmin)
	post := createOpenPost(t, s.db, guardian, models.PostKindTutoring)
	application := createPendingApplication(t, s.db, post, teacher)

	candidateApp := testApp(s, teacher.ID, teacher.Role)
	resp := postJSON(t, candidateApp, fmt.Sprintf("/api/applications/%d/withdrawal", application.ID),
		fiber.Map{"note": ""})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	adminApp := testApp(s, admin.ID, admin.Role)
	resp = postJSON(t, adminApp, fmt.Sprintf("/api/applications/%d/withdrawal/approve", application.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer func() { _ = resp.Body.Close() }()

	var withdrawn models.Application
	require.NoError(t, s.db.First(&withdrawn, application.ID).Error)
	assert.Equal(t, models.ApplicationStatusWithdrawn, withdrawn.Status)

	var applicants int64
	require.NoError(t, s.db.Model(&models.PostApplicant{}).
		Where("post_id = ? AND candidate_id = ?", post.ID, teacher.ID).
		Count(&applicants).Error)
	assert.Zero(t, applicants)
}

func TestRequestWithdrawal_NonOwnerUnauthorized(t *testing.T) {
	s := newTestServer(t)
	guardian := createUser(t, s.db, models.RoleGuardian)
	teacher := createUser(t, s.db, models.RoleTeacher)
	other := createUser(t, s.db, models.RoleTeacher)
	post := createOpenPost(t, s.db, guardian, models.PostKindTutoring)
	application := createPendingApplication(t, s.db, post, teacher)

	app := testApp(s, other.ID, other.Role)
	resp := postJSON(t, app, fmt.Sprintf("/api/applications/%d/withdrawal", application.ID),
		fiber.Map{"note": "not mine"})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetPostApplications_OwnerOnly(t *testing.T) {
	s := newTestServer(t)
	guardian := createUser(t, s.db, models.RoleGuardian)
	teacher := createUser(t, s.db, models.RoleTeacher)
	stranger := createUser(t, s.db, models.RoleClient)
	post := createOpenPost(t, s.db, guardian, models.PostKindTutoring)
	createPendingApplication(t, s.db, post, teacher)

	ownerApp := testApp(s, guardian.ID, guardian.Role)
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/posts/%d/applications", post.ID), nil)
	resp, err := ownerApp.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	strangerApp := testApp(s, stranger.ID, stranger.Role)
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/posts/%d/applications", post.ID), nil)
	resp, err = strangerApp.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
