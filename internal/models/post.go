package models

import (
	"time"

	"gorm.io/gorm"
)

// PostKind distinguishes tutoring requirements from freelance jobs.
type PostKind string

const (
	// PostKindTutoring is a tutoring requirement posted by a guardian.
	PostKindTutoring PostKind = "tutoring"
	// PostKindFreelance is a freelance job posted by a client.
	PostKindFreelance PostKind = "freelance"
)

// PostStatus represents the lifecycle status of a post.
type PostStatus string

const (
	// PostStatusOpen accepts new applications.
	PostStatusOpen PostStatus = "open"
	// PostStatusFilled has an approved application.
	PostStatusFilled PostStatus = "filled"
	// PostStatusClosed was closed by its owner without a winner.
	PostStatusClosed PostStatus = "closed"
)

// Post represents an open teaching or freelance requirement that
// candidates can apply to.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Code        string     `gorm:"uniqueIndex;not null" json:"code"`
	Kind        PostKind   `gorm:"type:varchar(20);not null;index" json:"kind"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	OwnerID     uint       `gorm:"not null;index" json:"owner_id"`
	Owner       User       `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Status      PostStatus `gorm:"type:varchar(20);default:'open';index" json:"status"`

	// Applicants is ordered by position; membership is independent of the
	// application lifecycle (auto-declined candidates stay listed until a
	// withdrawal is approved).
	Applicants []PostApplicant `gorm:"foreignKey:PostID" json:"applicants,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM
func (Post) TableName() string {
	return "posts"
}

// PostApplicant is one entry in a post's ordered applicants list.
type PostApplicant struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PostID        uint      `gorm:"not null;uniqueIndex:idx_post_applicant" json:"post_id"`
	CandidateID   uint      `gorm:"not null;uniqueIndex:idx_post_applicant" json:"candidate_id"`
	CandidateRole Role      `gorm:"type:varchar(20);not null" json:"candidate_role"`
	Position      int       `gorm:"not null" json:"position"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (PostApplicant) TableName() string {
	return "post_applicants"
}

// Ref returns the applicant's candidate reference.
func (a PostApplicant) Ref() CandidateRef {
	return CandidateRef{CandidateID: a.CandidateID, Role: a.CandidateRole}
}
