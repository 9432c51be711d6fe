package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationChallengeSubmission NotificationType = "challenge_submission"
	NotificationChallengeReview     NotificationType = "challenge_review"
)

// Notification is a row describing an event for the recipient's inbox.
type Notification struct {
	ID           string           `gorm:"primaryKey;type:uuid" json:"id"`
	Type         NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	FromUserID   string           `gorm:"type:varchar(64);not null" json:"from_user_id"`
	ToUserID     string           `gorm:"type:varchar(64);not null;index:idx_notifications_to_created,priority:1" json:"to_user_id"`
	ChallengeID  *string          `gorm:"type:uuid" json:"challenge_id,omitempty"`
	SubmissionID *string          `gorm:"type:uuid" json:"submission_id,omitempty"`
	ReviewResult *string          `gorm:"type:varchar(16)" json:"review_result,omitempty"`
	Message      string           `gorm:"type:text" json:"message"`
	Metadata     datatypes.JSON   `json:"metadata,omitempty"`
	Read         bool             `gorm:"column:is_read;not null;default:false;index" json:"read"`
	CreatedAt    time.Time        `gorm:"index:idx_notifications_to_created,priority:2" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
