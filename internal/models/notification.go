package models

import (
	"time"
)

// NotificationType identifies what an admin notification is about.
type NotificationType string

const (
	// NotificationTypeWithdrawalRequest asks an admin to decide a
	// candidate's withdrawal request.
	NotificationTypeWithdrawalRequest NotificationType = "withdrawal-request"
)

// NotificationStatus represents the processing state of a notification.
type NotificationStatus string

const (
	// NotificationStatusPending awaits an admin decision.
	NotificationStatusPending NotificationStatus = "pending"
	// NotificationStatusApproved was resolved in the candidate's favour.
	NotificationStatusApproved NotificationStatus = "approved"
	// NotificationStatusDeclined was resolved against the candidate.
	NotificationStatusDeclined NotificationStatus = "declined"
)

// AdminNotification is a record surfaced to administrators when a workflow
// needs a back-office decision.
type AdminNotification struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	Type          NotificationType   `gorm:"type:varchar(30);not null;index" json:"type"`
	ApplicationID uint               `gorm:"not null;index" json:"application_id"`
	CandidateID   uint               `gorm:"not null" json:"candidate_id"`
	CandidateName string             `json:"candidate_name"`
	PostID        uint               `gorm:"not null" json:"post_id"`
	Note          string             `json:"note,omitempty"`
	Status        NotificationStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	RequestedAt   time.Time          `gorm:"not null" json:"requested_at"`
	ProcessedAt   *time.Time         `json:"processed_at,omitempty"`
	ProcessedBy   *uint              `json:"processed_by,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (AdminNotification) TableName() string {
	return "admin_notifications"
}
