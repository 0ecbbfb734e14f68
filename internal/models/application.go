package models

import (
	"time"
)

// ApplicationStatus represents the lifecycle status of an application.
type ApplicationStatus string

const (
	// ApplicationStatusPending awaits a decision by the post owner.
	ApplicationStatusPending ApplicationStatus = "pending"
	// ApplicationStatusApproved was chosen as the post's winner.
	ApplicationStatusApproved ApplicationStatus = "approved"
	// ApplicationStatusDeclined was turned down.
	ApplicationStatusDeclined ApplicationStatus = "declined"
	// ApplicationStatusWithdrawalRequested awaits an admin decision on a
	// candidate-initiated withdrawal.
	ApplicationStatusWithdrawalRequested ApplicationStatus = "withdrawal-requested"
	// ApplicationStatusWithdrawn was retracted with admin approval.
	ApplicationStatusWithdrawn ApplicationStatus = "withdrawn"
	// ApplicationStatusCompleted finished its engagement.
	ApplicationStatusCompleted ApplicationStatus = "completed"
	// ApplicationStatusRejected was rejected outside the decline flow.
	ApplicationStatusRejected ApplicationStatus = "rejected"
	// ApplicationStatusAccepted was accepted outside the approve flow.
	ApplicationStatusAccepted ApplicationStatus = "accepted"
)

// Application represents one candidate's request to fill one post.
//
// The composite unique index on (post_id, candidate_id) guarantees at most
// one active application per candidate per post at the storage layer; the
// service-level existence check alone would leave a check-then-insert race.
type Application struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	PostID        uint              `gorm:"not null;uniqueIndex:idx_application_post_candidate" json:"post_id"`
	Post          Post              `gorm:"foreignKey:PostID" json:"post,omitempty"`
	CandidateID   uint              `gorm:"not null;uniqueIndex:idx_application_post_candidate" json:"candidate_id"`
	Candidate     User              `gorm:"foreignKey:CandidateID" json:"candidate,omitempty"`
	CandidateRole Role              `gorm:"type:varchar(20);not null" json:"candidate_role"`
	Status        ApplicationStatus `gorm:"type:varchar(30);default:'pending';index" json:"status"`
	AppliedAt     time.Time         `gorm:"not null" json:"applied_at"`

	// Withdrawal fields, set while a withdrawal request is in flight.
	// PreviousStatus records what to restore if the request is declined,
	// so an approved application does not silently revert to pending.
	WithdrawalRequestedAt *time.Time        `json:"withdrawal_requested_at,omitempty"`
	WithdrawalRequestedBy *uint             `json:"withdrawal_requested_by,omitempty"`
	WithdrawalNote        string            `json:"withdrawal_note,omitempty"`
	PreviousStatus        ApplicationStatus `gorm:"type:varchar(30)" json:"previous_status,omitempty"`

	// Decline fields, set when the application is declined in place.
	DeclineReason string `json:"decline_reason,omitempty"`
	AutoDeclined  bool   `gorm:"default:false" json:"auto_declined"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Application) TableName() string {
	return "applications"
}

// CandidateRef returns the application's candidate reference.
func (a *Application) CandidateRef() CandidateRef {
	return CandidateRef{CandidateID: a.CandidateID, Role: a.CandidateRole}
}

// WithdrawalAllowed reports whether a withdrawal may be requested from the
// current status. The disallowed states each carry their own user-facing
// message, so callers branch on status rather than on this alone.
func (a *Application) WithdrawalAllowed() bool {
	switch a.Status {
	case ApplicationStatusWithdrawn,
		ApplicationStatusWithdrawalRequested,
		ApplicationStatusCompleted:
		return false
	}
	return true
}
