package models

import (
	"time"

	"gorm.io/gorm"
)

// Role identifies what a user does on the platform.
type Role string

const (
	// RoleGuardian posts tutoring requirements on behalf of a student.
	RoleGuardian Role = "guardian"
	// RoleClient posts freelance job requirements.
	RoleClient Role = "client"
	// RoleTeacher applies to tutoring posts.
	RoleTeacher Role = "teacher"
	// RoleFreelancer applies to freelance posts.
	RoleFreelancer Role = "freelancer"
	// RoleAdmin operates the back-office.
	RoleAdmin Role = "admin"
)

// IsCandidate reports whether the role may apply to posts.
func (r Role) IsCandidate() bool {
	return r == RoleTeacher || r == RoleFreelancer
}

// IsOwner reports whether the role may create posts.
func (r Role) IsOwner() bool {
	return r == RoleGuardian || r == RoleClient
}

// User represents an account of any role.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	DisplayName  string         `gorm:"not null" json:"display_name"`
	Role         Role           `gorm:"type:varchar(20);not null;index" json:"role"`
	IsAdmin      bool           `gorm:"default:false" json:"is_admin"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// CandidateRef identifies a candidate together with their role.
// The original system branched on which of two reference fields was
// populated; a tagged pair keeps both halves in one place.
type CandidateRef struct {
	CandidateID uint `gorm:"not null" json:"candidate_id"`
	Role        Role `gorm:"type:varchar(20);not null" json:"candidate_role"`
}

// Identify returns the stable identity of the candidate.
func (c CandidateRef) Identify() uint {
	return c.CandidateID
}

// DisplayName resolves the candidate's display name from the user record.
func (c CandidateRef) DisplayName(u *User) string {
	if u == nil {
		return ""
	}
	return u.DisplayName
}
