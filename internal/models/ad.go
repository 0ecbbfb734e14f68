package models

import (
	"time"
)

// AdStatus represents the scheduling state of an ad placement.
type AdStatus string

const (
	// AdStatusScheduled has not started yet.
	AdStatusScheduled AdStatus = "scheduled"
	// AdStatusActive is currently within its scheduled window.
	AdStatusActive AdStatus = "active"
	// AdStatusExpired is past its scheduled window.
	AdStatusExpired AdStatus = "expired"
	// AdStatusPaused is an explicit admin override.
	AdStatusPaused AdStatus = "paused"
)

// Ad is a promotional placement with a scheduled display window.
type Ad struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Title    string    `gorm:"not null" json:"title"`
	Slot     string    `gorm:"type:varchar(40);not null;index" json:"slot"`
	ImageURL string    `json:"image_url,omitempty"`
	TargetURL string   `json:"target_url,omitempty"`
	StartsAt time.Time `gorm:"not null" json:"starts_at"`
	EndsAt   time.Time `gorm:"not null" json:"ends_at"`

	// StatusOverride, when set, wins over the clock-derived status.
	StatusOverride AdStatus  `gorm:"type:varchar(20)" json:"status_override,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Ad) TableName() string {
	return "ads"
}

// EffectiveStatus derives the ad's status from the clock unless an explicit
// override is set.
func (a *Ad) EffectiveStatus(now time.Time) AdStatus {
	if a.StatusOverride != "" {
		return a.StatusOverride
	}
	switch {
	case now.Before(a.StartsAt):
		return AdStatusScheduled
	case now.After(a.EndsAt):
		return AdStatusExpired
	default:
		return AdStatusActive
	}
}
