package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionDenied   SubmissionStatus = "denied"
)

// Submission is an athlete's video answer to a challenge. One per (challenge, athlete).
type Submission struct {
	ID            string           `gorm:"primaryKey;type:uuid" json:"id"`
	ChallengeID   string           `gorm:"type:uuid;not null;uniqueIndex:uniq_submission_challenge_athlete,priority:1" json:"challenge_id"`
	AthleteID     string           `gorm:"type:varchar(64);not null;uniqueIndex:uniq_submission_challenge_athlete,priority:2;index:idx_submissions_athlete_submitted,priority:1" json:"athlete_id"`
	VideoURL      string           `gorm:"type:text;not null" json:"video_url"`
	Status        SubmissionStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	SubmittedAt   time.Time        `gorm:"not null;index:idx_submissions_athlete_submitted,priority:2" json:"submitted_at"`
	ReviewedAt    *time.Time       `json:"reviewed_at,omitempty"`
	ReviewedBy    *string          `gorm:"type:varchar(64)" json:"reviewed_by,omitempty"`
	ReviewComment *string          `gorm:"type:text" json:"review_comment,omitempty"`

	Challenge *Challenge `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
