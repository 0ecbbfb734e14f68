// Package service contains the business logic layer between the HTTP
// handlers and the repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tutorhub/internal/featureflags"
	"tutorhub/internal/linkmark"
	"tutorhub/internal/models"
	"tutorhub/internal/notifications"
	"tutorhub/internal/observability"
	"tutorhub/internal/repository"

	"gorm.io/gorm"
)

// FlagArchiveManualDeclines gates the uniform archival policy for manual
// declines. When off, a manual decline only flips the status in place.
const FlagArchiveManualDeclines = "archive_manual_declines"

// ApplicationService governs the application lifecycle state machine:
// apply, approve (with the auto-decline cascade), decline, and the
// withdrawal request/approval/rejection flow.
type ApplicationService struct {
	db         *gorm.DB
	apps       repository.ApplicationRepository
	declined   repository.DeclinedApplicationRepository
	posts      repository.PostRepository
	users      repository.UserRepository
	adminNotes repository.AdminNotificationRepository
	notifier   *notifications.Notifier
	flags      *featureflags.Manager

	// now is swappable for deterministic tests.
	now func() time.Time
}

// NewApplicationService returns a new ApplicationService. db may be nil in
// tests; transitions then run without a wrapping transaction.
func NewApplicationService(
	db *gorm.DB,
	apps repository.ApplicationRepository,
	declined repository.DeclinedApplicationRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	adminNotes repository.AdminNotificationRepository,
	notifier *notifications.Notifier,
	flags *featureflags.Manager,
) *ApplicationService {
	return &ApplicationService{
		db:         db,
		apps:       apps,
		declined:   declined,
		posts:      posts,
		users:      users,
		adminNotes: adminNotes,
		notifier:   notifier,
		flags:      flags,
		now:        time.Now,
	}
}

// transact runs fn inside a database transaction with transaction-bound
// repositories. Without a db handle it runs fn directly against the
// service's repositories.
func (s *ApplicationService) transact(ctx context.Context, fn func(apps repository.ApplicationRepository, declined repository.DeclinedApplicationRepository, posts repository.PostRepository, notes repository.AdminNotificationRepository) error) error {
	if s.db == nil {
		return fn(s.apps, s.declined, s.posts, s.adminNotes)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.apps.WithTx(tx), s.declined.WithTx(tx), s.posts.WithTx(tx), s.adminNotes.WithTx(tx))
	})
}

// Apply creates a pending application for the candidate and appends them to
// the post's applicants list, both inside one transaction. The unique index
// on (post_id, candidate_id) closes the check-then-insert race; a constraint
// violation surfaces as the same Conflict as the pre-check.
func (s *ApplicationService) Apply(ctx context.Context, postID uint, candidate models.CandidateRef) (app *models.Application, err error) {
	defer func() { observability.RecordTransition("apply", err) }()

	if !candidate.Role.IsCandidate() {
		return nil, models.NewForbiddenError("Only teachers and freelancers can apply to posts")
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, models.NewInternalError(err)
	}
	if post.Status != models.PostStatusOpen {
		return nil, models.NewConflictError("This post is no longer accepting applications")
	}
	if post.OwnerID == candidate.CandidateID {
		return nil, models.NewForbiddenError("You cannot apply to your own post")
	}
	if post.Kind == models.PostKindTutoring && candidate.Role != models.RoleTeacher {
		return nil, models.NewForbiddenError("Only teachers can apply to tutoring posts")
	}
	if post.Kind == models.PostKindFreelance && candidate.Role != models.RoleFreelancer {
		return nil, models.NewForbiddenError("Only freelancers can apply to freelance posts")
	}

	if _, err := s.apps.FindByPostAndCandidate(ctx, postID, candidate.CandidateID); err == nil {
		return nil, models.NewConflictError("You have already applied to this post")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	app = &models.Application{
		PostID:        postID,
		CandidateID:   candidate.CandidateID,
		CandidateRole: candidate.Role,
		Status:        models.ApplicationStatusPending,
		AppliedAt:     s.now(),
	}

	err = s.transact(ctx, func(apps repository.ApplicationRepository, _ repository.DeclinedApplicationRepository, posts repository.PostRepository, _ repository.AdminNotificationRepository) error {
		if err := apps.Create(ctx, app); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.NewConflictError("You have already applied to this post")
			}
			return models.NewInternalError(err)
		}

		listed, err := posts.HasApplicant(ctx, postID, candidate.CandidateID)
		if err != nil {
			return models.NewInternalError(err)
		}
		if !listed {
			if err := posts.AppendApplicant(ctx, postID, candidate); err != nil {
				return models.NewInternalError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// autoDeclineReason builds the archived decline reason for siblings of an
// approved application. The embedded link marker references the filled post.
func autoDeclineReason(post *models.Post) string {
	return fmt.Sprintf("The position for %s has been filled by another candidate.",
		linkmark.Format(post.ID, post.Title))
}

// Approve marks the application as the post's winner and auto-declines every
// other pending application for the post. The whole cascade runs in one
// transaction: if archiving or deleting any sibling fails, the approval
// rolls back and every sibling stays pending.
func (s *ApplicationService) Approve(ctx context.Context, applicationID, approverID uint, approverIsAdmin bool) (app *models.Application, err error) {
	defer func() { observability.RecordTransition("approve", err) }()

	app, err = s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Post.OwnerID != approverID && !approverIsAdmin {
		return nil, models.NewForbiddenError("Only the post owner can approve applications")
	}
	if app.Status != models.ApplicationStatusPending {
		return nil, models.NewConflictError("Only pending applications can be approved")
	}
	if app.Post.Status == models.PostStatusFilled {
		return nil, models.NewConflictError("This post already has an approved application")
	}

	var cascadeSize int
	err = s.transact(ctx, func(apps repository.ApplicationRepository, declined repository.DeclinedApplicationRepository, posts repository.PostRepository, _ repository.AdminNotificationRepository) error {
		siblings, err := apps.ListPendingSiblings(ctx, app.PostID, app.ID)
		if err != nil {
			return models.NewInternalError(err)
		}
		cascadeSize = len(siblings)

		now := s.now()
		reason := autoDeclineReason(&app.Post)
		archived := make([]models.DeclinedApplication, 0, len(siblings))
		for _, sib := range siblings {
			archived = append(archived, models.DeclinedApplication{
				OriginalApplicationID: sib.ID,
				PostID:                sib.PostID,
				CandidateID:           sib.CandidateID,
				CandidateRole:         sib.CandidateRole,
				Status:                models.ApplicationStatusDeclined,
				AppliedAt:             sib.AppliedAt,
				DeclinedAt:            now,
				DeclineReason:         reason,
				AutoDeclined:          true,
			})
		}
		if err := declined.CreateBatch(ctx, archived); err != nil {
			return models.NewInternalError(err)
		}

		deletedCount, err := apps.DeletePendingByPost(ctx, app.PostID, app.ID)
		if err != nil {
			return models.NewInternalError(err)
		}
		if deletedCount != int64(len(siblings)) {
			return models.NewConflictError("Applications for this post changed while approving; please retry")
		}

		app.Status = models.ApplicationStatusApproved
		if err := apps.Update(ctx, app); err != nil {
			return models.NewInternalError(err)
		}
		if err := posts.UpdateStatus(ctx, app.PostID, models.PostStatusFilled); err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.AutoDeclineCascadeSize.Observe(float64(cascadeSize))
	return app, nil
}

// Decline turns down a pending application. Declines are archived with
// auto_declined=false and the active record removed, mirroring the approve
// cascade's audit trail; the archival can be feature-flagged off during
// rollout, falling back to an in-place status flip.
func (s *ApplicationService) Decline(ctx context.Context, applicationID, declinerID uint, declinerIsAdmin bool, reason string) (app *models.Application, err error) {
	defer func() { observability.RecordTransition("decline", err) }()

	app, err = s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Post.OwnerID != declinerID && !declinerIsAdmin {
		return nil, models.NewForbiddenError("Only the post owner can decline applications")
	}
	if app.Status != models.ApplicationStatusPending {
		return nil, models.NewConflictError("Only pending applications can be declined")
	}
	if reason == "" {
		return nil, models.NewValidationError("A decline reason is required")
	}

	archive := true
	if s.flags != nil && s.flags.Raw()[FlagArchiveManualDeclines] != "" {
		archive = s.flags.Enabled(FlagArchiveManualDeclines, app.CandidateID)
	}

	now := s.now()
	err = s.transact(ctx, func(apps repository.ApplicationRepository, declined repository.DeclinedApplicationRepository, _ repository.PostRepository, _ repository.AdminNotificationRepository) error {
		if !archive {
			app.Status = models.ApplicationStatusDeclined
			app.DeclineReason = reason
			if err := apps.Update(ctx, app); err != nil {
				return models.NewInternalError(err)
			}
			return nil
		}

		if err := declined.Create(ctx, &models.DeclinedApplication{
			OriginalApplicationID: app.ID,
			PostID:                app.PostID,
			CandidateID:           app.CandidateID,
			CandidateRole:         app.CandidateRole,
			Status:                models.ApplicationStatusDeclined,
			AppliedAt:             app.AppliedAt,
			DeclinedAt:            now,
			DeclineReason:         reason,
			AutoDeclined:          false,
		}); err != nil {
			return models.NewInternalError(err)
		}
		if err := apps.Delete(ctx, app.ID); err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	app.Status = models.ApplicationStatusDeclined
	app.DeclineReason = reason
	return app, nil
}

// RequestWithdrawal moves an application into withdrawal-requested and
// notifies the back office. The current status is stored in previous_status
// so a rejected request restores it exactly: an approved application whose
// withdrawal is declined stays approved.
func (s *ApplicationService) RequestWithdrawal(ctx context.Context, applicationID, requesterID uint, note string) (app *models.Application, err error) {
	defer func() { observability.RecordTransition("request-withdrawal", err) }()

	app, err = s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.CandidateID != requesterID {
		return nil, models.NewUnauthorizedError("You can only withdraw your own application")
	}

	switch app.Status {
	case models.ApplicationStatusWithdrawn:
		return nil, models.NewConflictError("This application has already been withdrawn")
	case models.ApplicationStatusWithdrawalRequested:
		return nil, models.NewConflictError("A withdrawal request is already pending for this application")
	case models.ApplicationStatusCompleted:
		return nil, models.NewConflictError("A completed application cannot be withdrawn")
	}

	now := s.now()
	candidateName := ""
	if candidate, err := s.users.GetByID(ctx, app.CandidateID); err == nil {
		candidateName = app.CandidateRef().DisplayName(candidate)
	}

	notification := &models.AdminNotification{
		Type:          models.NotificationTypeWithdrawalRequest,
		ApplicationID: app.ID,
		CandidateID:   app.CandidateID,
		CandidateName: candidateName,
		PostID:        app.PostID,
		Note:          note,
		Status:        models.NotificationStatusPending,
		RequestedAt:   now,
	}

	err = s.transact(ctx, func(apps repository.ApplicationRepository, _ repository.DeclinedApplicationRepository, _ repository.PostRepository, notes repository.AdminNotificationRepository) error {
		app.PreviousStatus = app.Status
		app.Status = models.ApplicationStatusWithdrawalRequested
		app.WithdrawalRequestedAt = &now
		app.WithdrawalRequestedBy = &requesterID
		app.WithdrawalNote = note
		if err := apps.Update(ctx, app); err != nil {
			return models.NewInternalError(err)
		}
		if err := notes.Create(ctx, notification); err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Publish after commit; the feed is best-effort and the stored record
	// is the source of truth.
	_ = s.notifier.PublishAdmin(ctx, notification)
	return app, nil
}

// ApproveWithdrawal resolves a withdrawal request in the candidate's favour:
// the application becomes withdrawn and the candidate leaves the post's
// applicants list. Removing an already-absent candidate is a no-op.
func (s *ApplicationService) ApproveWithdrawal(ctx context.Context, applicationID, adminID uint) (app *models.Application, err error) {
	defer func() { observability.RecordTransition("approve-withdrawal", err) }()

	app, err = s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationStatusWithdrawalRequested {
		return nil, models.NewConflictError("No withdrawal request is pending for this application")
	}

	now := s.now()
	err = s.transact(ctx, func(apps repository.ApplicationRepository, _ repository.DeclinedApplicationRepository, posts repository.PostRepository, notes repository.AdminNotificationRepository) error {
		app.Status = models.ApplicationStatusWithdrawn
		app.PreviousStatus = ""
		if err := apps.Update(ctx, app); err != nil {
			return models.NewInternalError(err)
		}
		if err := posts.RemoveApplicant(ctx, app.PostID, app.CandidateID); err != nil {
			return models.NewInternalError(err)
		}
		if err := notes.MarkProcessed(ctx, app.ID, models.NotificationStatusApproved, adminID, now); err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// DeclineWithdrawal resolves a withdrawal request against the candidate: the
// application's previous status is restored exactly and all withdrawal
// fields are cleared.
func (s *ApplicationService) DeclineWithdrawal(ctx context.Context, applicationID, adminID uint) (app *models.Application, err error) {
	defer func() { observability.RecordTransition("decline-withdrawal", err) }()

	app, err = s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationStatusWithdrawalRequested {
		return nil, models.NewConflictError("No withdrawal request is pending for this application")
	}

	restored := app.PreviousStatus
	if restored == "" {
		restored = models.ApplicationStatusPending
	}

	now := s.now()
	err = s.transact(ctx, func(apps repository.ApplicationRepository, _ repository.DeclinedApplicationRepository, _ repository.PostRepository, notes repository.AdminNotificationRepository) error {
		app.Status = restored
		app.PreviousStatus = ""
		app.WithdrawalRequestedAt = nil
		app.WithdrawalRequestedBy = nil
		app.WithdrawalNote = ""
		if err := apps.Update(ctx, app); err != nil {
			return models.NewInternalError(err)
		}
		if err := notes.MarkProcessed(ctx, app.ID, models.NotificationStatusDeclined, adminID, now); err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// GetApplication returns one application with its post and candidate loaded.
func (s *ApplicationService) GetApplication(ctx context.Context, applicationID uint) (*models.Application, error) {
	return s.getApplication(ctx, applicationID)
}

// ListByPost returns a post's applications, optionally filtered by status.
func (s *ApplicationService) ListByPost(ctx context.Context, postID uint, statuses ...models.ApplicationStatus) ([]models.Application, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, models.NewInternalError(err)
	}
	apps, err := s.apps.ListByPost(ctx, postID, statuses...)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return apps, nil
}

// ListByCandidate returns a candidate's applications, newest first.
func (s *ApplicationService) ListByCandidate(ctx context.Context, candidateID uint, limit, offset int) ([]models.Application, error) {
	apps, err := s.apps.ListByCandidate(ctx, candidateID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return apps, nil
}

// ListDeclinedByPost returns a post's archived declines, newest first.
func (s *ApplicationService) ListDeclinedByPost(ctx context.Context, postID uint) ([]models.DeclinedApplication, error) {
	rows, err := s.declined.ListByPost(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

func (s *ApplicationService) getApplication(ctx context.Context, applicationID uint) (*models.Application, error) {
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Application", applicationID)
		}
		return nil, models.NewInternalError(err)
	}
	return app, nil
}
