package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Challenge is posted by a coach and answered by athletes with video submissions.
type Challenge struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	CoachID     string    `gorm:"type:varchar(64);index:idx_challenges_coach_created,priority:1;not null" json:"coach_id"`
	Title       string    `gorm:"not null" json:"title"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	XPValue     int64     `gorm:"not null" json:"xp_value"`
	CreatedAt   time.Time `gorm:"index:idx_challenges_coach_created,priority:2" json:"created_at"`
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
