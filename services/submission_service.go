package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"findplayer/models"
	"findplayer/utils"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// SubmissionService runs the athlete side of the challenge workflow.
type SubmissionService struct {
	DB       *gorm.DB
	Clock    clockwork.Clock
	Quota    *QuotaGuard
	Streaks  *StreakTracker
	Notifier NotificationSink
	Videos   VideoVerifier
}

func NewSubmissionService(db *gorm.DB, clock clockwork.Clock, quota *QuotaGuard, streaks *StreakTracker, notifier NotificationSink) *SubmissionService {
	return &SubmissionService{DB: db, Clock: clock, Quota: quota, Streaks: streaks, Notifier: notifier}
}

// Submit records an athlete's video for a challenge.
// Rejections (role, quota, duplicate, bad input) happen before any write. Once the
// submission row is inserted, notification and streak failures are only logged.
func (s *SubmissionService) Submit(ctx context.Context, actor Actor, challengeID, videoURL string) (*models.Submission, error) {
	if actor.Role != models.RoleAthlete {
		return nil, ErrForbidden
	}
	videoURL = strings.TrimSpace(videoURL)
	if err := validateVideoURL(videoURL); err != nil {
		return nil, err
	}

	challenge, err := s.loadChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	if _, err := s.Quota.enforce(ctx, actor.UserID, QuotaSubmission); err != nil {
		return nil, err
	}

	if existing, err := s.existing(ctx, challenge.ID, actor.UserID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, &ConflictError{Existing: existing}
	}

	if s.Videos != nil {
		if err := s.Videos.VerifyVideo(ctx, videoURL); err != nil {
			if errors.Is(err, utils.ErrObjectMissing) {
				return nil, validationErr("video_url", err.Error())
			}
			return nil, fmt.Errorf("verify video: %w", err)
		}
	}

	now := s.Clock.Now().UTC()
	sub := &models.Submission{
		ID:          uuid.NewString(),
		ChallengeID: challenge.ID,
		AthleteID:   actor.UserID,
		VideoURL:    videoURL,
		Status:      models.SubmissionPending,
		SubmittedAt: now,
	}
	if err := s.DB.WithContext(ctx).Create(sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race against a concurrent submit for the same pair.
			existing, findErr := s.existing(ctx, challenge.ID, actor.UserID)
			if findErr == nil && existing != nil {
				return nil, &ConflictError{Existing: existing}
			}
			return nil, &ConflictError{}
		}
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	log.Printf("🎬 [SUBMIT] %s submitted %s for challenge %s", actor.UserID, sub.ID, challenge.ID)

	if s.Notifier != nil {
		n := &models.Notification{
			Type:         models.NotificationChallengeSubmission,
			FromUserID:   actor.UserID,
			ToUserID:     challenge.CoachID,
			ChallengeID:  &challenge.ID,
			SubmissionID: &sub.ID,
			Message:      fmt.Sprintf("New submission for %q", challenge.Title),
			Metadata:     metadataJSON(map[string]any{"video_url": videoURL}),
		}
		if err := s.Notifier.Notify(ctx, n); err != nil {
			log.Printf("⚠️ [SUBMIT] notification for submission %s failed: %v", sub.ID, err)
		}
	}

	if s.Streaks != nil {
		if _, err := s.Streaks.BumpStreak(ctx, actor.UserID, now); err != nil {
			log.Printf("⚠️ [SUBMIT] streak update for %s failed: %v", actor.UserID, err)
		}
	}

	return sub, nil
}

// ListForChallenge returns a challenge's submissions; only its coach may read them.
func (s *SubmissionService) ListForChallenge(ctx context.Context, actor Actor, challengeID string, status models.SubmissionStatus) ([]models.Submission, error) {
	if actor.Role != models.RoleCoach {
		return nil, ErrForbidden
	}
	challenge, err := s.loadChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge.CoachID != actor.UserID {
		return nil, notFound("challenge " + challengeID)
	}
	q := s.DB.WithContext(ctx).Where("challenge_id = ?", challenge.ID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Submission
	err = q.Order("submitted_at ASC").Find(&out).Error
	return out, err
}

// Mine lists the athlete's own submissions, newest first.
func (s *SubmissionService) Mine(ctx context.Context, actor Actor) ([]models.Submission, error) {
	var out []models.Submission
	err := s.DB.WithContext(ctx).
		Preload("Challenge").
		Where("athlete_id = ?", actor.UserID).
		Order("submitted_at DESC").
		Find(&out).Error
	return out, err
}

func (s *SubmissionService) loadChallenge(ctx context.Context, id string) (*models.Challenge, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound("challenge " + id)
	}
	var c models.Challenge
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("challenge " + id)
		}
		return nil, err
	}
	return &c, nil
}

func (s *SubmissionService) existing(ctx context.Context, challengeID, athleteID string) (*models.Submission, error) {
	var sub models.Submission
	err := s.DB.WithContext(ctx).
		Where("challenge_id = ? AND athlete_id = ?", challengeID, athleteID).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func validateVideoURL(raw string) error {
	if raw == "" {
		return validationErr("video_url", "is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return validationErr("video_url", "must be an absolute http(s) URL")
	}
	return nil
}
