package models

import (
	"time"
)

// DeclinedApplication is an archival copy of an application that was
// declined. Records are insert-only: they are never mutated or deleted by
// the normal flow, so the audit trail of every decline survives the removal
// of the active record.
type DeclinedApplication struct {
	ID                    uint              `gorm:"primaryKey" json:"id"`
	OriginalApplicationID uint              `gorm:"not null;index" json:"original_application_id"`
	PostID                uint              `gorm:"not null;index" json:"post_id"`
	CandidateID           uint              `gorm:"not null;index" json:"candidate_id"`
	CandidateRole         Role              `gorm:"type:varchar(20);not null" json:"candidate_role"`
	Status                ApplicationStatus `gorm:"type:varchar(30)" json:"status"`
	AppliedAt             time.Time         `json:"applied_at"`
	DeclinedAt            time.Time         `gorm:"not null" json:"declined_at"`

	// DeclineReason may embed a link marker referencing the winning post;
	// see the linkmark package.
	DeclineReason string `gorm:"not null" json:"decline_reason"`

	// AutoDeclined is true when the decline was the cascade side effect of
	// approving a competing application, false for a manual decline.
	AutoDeclined bool `gorm:"default:false" json:"auto_declined"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (DeclinedApplication) TableName() string {
	return "declined_applications"
}
