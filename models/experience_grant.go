package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EarnedFor is the reason an XP grant was made.
type EarnedFor string

const (
	EarnedForChallengePost       EarnedFor = "challenge_post"
	EarnedForChallengeSubmission EarnedFor = "challenge_submission"
	EarnedForChallengeReview     EarnedFor = "challenge_review"
)

// ExperienceGrant is one entry of the append-only XP ledger.
// DedupKey is unique so a second award for the same event collapses into a no-op insert.
type ExperienceGrant struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string    `gorm:"type:varchar(64);not null;index" json:"user_id"`
	ChallengeID  string    `gorm:"type:uuid;not null;index" json:"challenge_id"`
	SubmissionID *string   `gorm:"type:uuid" json:"submission_id,omitempty"`
	PointsEarned int64     `gorm:"not null" json:"points_earned"`
	EarnedFor    EarnedFor `gorm:"type:varchar(32);not null" json:"earned_for"`
	DedupKey     string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	EarnedAt     time.Time `gorm:"not null" json:"earned_at"`
}

// GrantDedupKey builds the natural key (user, challenge, submission-or-none, reason).
func GrantDedupKey(userID, challengeID string, submissionID *string, earnedFor EarnedFor) string {
	sub := "-"
	if submissionID != nil && *submissionID != "" {
		sub = *submissionID
	}
	return strings.Join([]string{userID, challengeID, sub, string(earnedFor)}, "|")
}

func (g *ExperienceGrant) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.DedupKey == "" {
		g.DedupKey = GrantDedupKey(g.UserID, g.ChallengeID, g.SubmissionID, g.EarnedFor)
	}
	return nil
}
