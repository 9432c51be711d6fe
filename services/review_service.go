package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"findplayer/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type ReviewAction string

const (
	ReviewApprove ReviewAction = "approve"
	ReviewDeny    ReviewAction = "deny"
)

func (a ReviewAction) status() models.SubmissionStatus {
	if a == ReviewApprove {
		return models.SubmissionApproved
	}
	return models.SubmissionDenied
}

// ReviewService runs the coach side of the challenge workflow.
type ReviewService struct {
	DB       *gorm.DB
	Clock    clockwork.Clock
	Ledger   *ExperienceLedger
	Streaks  *StreakTracker
	Notifier NotificationSink
	ReviewXP int64
}

func NewReviewService(db *gorm.DB, clock clockwork.Clock, ledger *ExperienceLedger, streaks *StreakTracker, notifier NotificationSink, reviewXP int64) *ReviewService {
	return &ReviewService{DB: db, Clock: clock, Ledger: ledger, Streaks: streaks, Notifier: notifier, ReviewXP: reviewXP}
}

// Review approves or denies a submission on a challenge the coach owns.
//
// Allowed transitions are pending to approved or denied, and approved to denied
// or back. Repeating the current status is a conflict. The status write is a
// compare-and-swap on the status that was read, so two concurrent reviews
// cannot both win.
// XP, streak and notification side effects run after the status is committed
// and their failures are logged, never returned.
func (s *ReviewService) Review(ctx context.Context, actor Actor, submissionID string, action ReviewAction, comment string) (*models.Submission, error) {
	if actor.Role != models.RoleCoach {
		return nil, ErrForbidden
	}

	sub, challenge, err := s.loadOwned(ctx, actor.UserID, submissionID)
	if err != nil {
		return nil, err
	}

	comment = strings.TrimSpace(comment)
	switch action {
	case ReviewApprove:
	case ReviewDeny:
		if comment == "" {
			return nil, validationErr("comment", "is required when denying")
		}
	default:
		return nil, validationErr("action", "must be approve or deny")
	}

	newStatus := action.status()
	if sub.Status == newStatus {
		return nil, ErrReviewConflict
	}

	now := s.Clock.Now().UTC()
	var commentPtr *string
	if comment != "" {
		commentPtr = &comment
	}
	reviewer := actor.UserID

	res := s.DB.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND status = ? AND status <> ?", sub.ID, sub.Status, newStatus).
		Updates(map[string]any{
			"status":         newStatus,
			"reviewed_at":    now,
			"reviewed_by":    reviewer,
			"review_comment": commentPtr,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("update submission: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrReviewConflict
	}
	previous := sub.Status
	sub.Status = newStatus
	sub.ReviewedAt = &now
	sub.ReviewedBy = &reviewer
	sub.ReviewComment = commentPtr
	log.Printf("📝 [REVIEW] %s %s submission %s (was %s)", actor.UserID, newStatus, sub.ID, previous)

	s.applySideEffects(ctx, actor, sub, challenge, action, now)

	sub.Challenge = challenge
	return sub, nil
}

func (s *ReviewService) applySideEffects(ctx context.Context, actor Actor, sub *models.Submission, challenge *models.Challenge, action ReviewAction, now time.Time) {
	subID := sub.ID

	if action == ReviewDeny && s.Ledger != nil {
		if _, err := s.Ledger.RevokeXP(ctx, sub.AthleteID, challenge.ID, &subID, models.EarnedForChallengeSubmission); err != nil {
			log.Printf("⚠️ [REVIEW] XP revoke for submission %s failed: %v", subID, err)
		}
	}

	if s.Ledger != nil {
		// The two awards touch different users and are independent.
		var g errgroup.Group
		if s.ReviewXP > 0 {
			g.Go(func() error {
				_, err := s.Ledger.AwardXP(ctx, actor.UserID, challenge.ID, &subID, s.ReviewXP, models.EarnedForChallengeReview)
				if err != nil {
					return fmt.Errorf("review XP for coach %s: %w", actor.UserID, err)
				}
				return nil
			})
		}
		if action == ReviewApprove {
			g.Go(func() error {
				_, err := s.Ledger.AwardXP(ctx, sub.AthleteID, challenge.ID, &subID, challenge.XPValue, models.EarnedForChallengeSubmission)
				if err != nil {
					return fmt.Errorf("submission XP for athlete %s: %w", sub.AthleteID, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			log.Printf("⚠️ [REVIEW] XP award for submission %s failed: %v", subID, err)
		}
	}

	if action == ReviewApprove && s.Streaks != nil {
		first, err := s.firstApprovalToday(ctx, sub.AthleteID, subID, now)
		if err != nil {
			log.Printf("⚠️ [REVIEW] approval lookup for %s failed: %v", sub.AthleteID, err)
		} else if first {
			if _, err := s.Streaks.BumpStreak(ctx, sub.AthleteID, now); err != nil {
				log.Printf("⚠️ [REVIEW] streak update for %s failed: %v", sub.AthleteID, err)
			}
		}
	}

	if s.Notifier != nil {
		result := string(action.status())
		msg := fmt.Sprintf("Your submission to %q was %s", challenge.Title, result)
		n := &models.Notification{
			Type:         models.NotificationChallengeReview,
			FromUserID:   actor.UserID,
			ToUserID:     sub.AthleteID,
			ChallengeID:  &challenge.ID,
			SubmissionID: &subID,
			ReviewResult: &result,
			Message:      msg,
		}
		if sub.ReviewComment != nil {
			n.Metadata = metadataJSON(map[string]any{"comment": *sub.ReviewComment})
		}
		if err := s.Notifier.Notify(ctx, n); err != nil {
			log.Printf("⚠️ [REVIEW] notification for submission %s failed: %v", subID, err)
		}
	}
}

// firstApprovalToday reports whether no other submission of the athlete was
// approved earlier on the same UTC day.
func (s *ReviewService) firstApprovalToday(ctx context.Context, athleteID, excludeID string, now time.Time) (bool, error) {
	start := Day(now)
	end := start.AddDate(0, 0, 1)
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Submission{}).
		Where("athlete_id = ? AND status = ? AND id <> ?", athleteID, models.SubmissionApproved, excludeID).
		Where("reviewed_at >= ? AND reviewed_at < ?", start, end).
		Count(&count).Error
	return count == 0, err
}

// loadOwned fetches the submission and its challenge, hiding other coaches' rows.
func (s *ReviewService) loadOwned(ctx context.Context, coachID, submissionID string) (*models.Submission, *models.Challenge, error) {
	if _, err := uuid.Parse(submissionID); err != nil {
		return nil, nil, notFound("submission " + submissionID)
	}
	db := s.DB.WithContext(ctx)

	var sub models.Submission
	if err := db.Where("id = ?", submissionID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, notFound("submission " + submissionID)
		}
		return nil, nil, err
	}
	var challenge models.Challenge
	if err := db.Where("id = ?", sub.ChallengeID).First(&challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, notFound("submission " + submissionID)
		}
		return nil, nil, err
	}
	if challenge.CoachID != coachID {
		return nil, nil, notFound("submission " + submissionID)
	}
	return &sub, &challenge, nil
}
