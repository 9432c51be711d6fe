package models

import (
	"time"
)

// Role is the platform role carried in the identity claims.
type Role string

const (
	RoleAthlete Role = "athlete"
	RoleCoach   Role = "coach"
	RoleScout   Role = "scout"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAthlete, RoleCoach, RoleScout:
		return true
	}
	return false
}

// User is the local view of a platform account. Identity fields are mirrored
// by the profile sync worker; XP and streak columns are owned by this service.
type User struct {
	ID       string `gorm:"primaryKey;type:varchar(64)" json:"id"` // identity provider subject
	Username string `gorm:"index" json:"username"`
	Email    string `json:"email,omitempty"`
	Role     Role   `gorm:"type:varchar(16);not null;default:'athlete'" json:"role"`

	XPTotal         int64 `gorm:"not null;default:0" json:"xp_total"`
	IsPremiumMember bool  `gorm:"not null;default:false" json:"is_premium_member"`

	CurrentStreak  int        `gorm:"not null;default:0" json:"current_streak"`
	LastStreakDate *time.Time `json:"last_streak_date,omitempty"` // UTC midnight of the last counted day

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
