package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"findplayer/models"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AwardResult is the user's XP state after an award attempt.
type AwardResult struct {
	XPTotal int64 `json:"xp_total"`
	Level   int   `json:"level"`
	Awarded bool  `json:"awarded"`
}

// ExperienceLedger records XP grants and keeps users.xp_total in step with them.
type ExperienceLedger struct {
	DB          *gorm.DB
	Curve       LevelCurve
	Clock       clockwork.Clock
	Leaderboard *Leaderboard
}

func NewExperienceLedger(db *gorm.DB, curve LevelCurve, clock clockwork.Clock) *ExperienceLedger {
	return &ExperienceLedger{DB: db, Curve: curve, Clock: clock}
}

func (l *ExperienceLedger) LevelForXP(xp int64) int {
	return l.Curve.LevelForXP(xp)
}

// AwardXP grants points at most once per (user, challenge, submission, reason).
// The grant insert and the xp_total increment commit together; a duplicate
// dedup key makes the call a no-op that reports Awarded=false.
func (l *ExperienceLedger) AwardXP(ctx context.Context, userID, challengeID string, submissionID *string, points int64, earnedFor models.EarnedFor) (*AwardResult, error) {
	if points <= 0 {
		return nil, validationErr("points", "must be positive")
	}

	var result AwardResult
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("user " + userID)
			}
			return err
		}

		grant := models.ExperienceGrant{
			UserID:       userID,
			ChallengeID:  challengeID,
			SubmissionID: submissionID,
			PointsEarned: points,
			EarnedFor:    earnedFor,
			EarnedAt:     l.Clock.Now().UTC(),
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedup_key"}},
			DoNothing: true,
		}).Create(&grant)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return l.readTotals(tx, userID, &result)
			}
			return fmt.Errorf("insert grant: %w", res.Error)
		}

		if res.RowsAffected == 1 {
			if err := tx.Model(&models.User{}).
				Where("id = ?", userID).
				UpdateColumn("xp_total", gorm.Expr("xp_total + ?", points)).Error; err != nil {
				return fmt.Errorf("increment xp_total: %w", err)
			}
			result.Awarded = true
		}
		return l.readTotals(tx, userID, &result)
	})
	if err != nil {
		return nil, err
	}

	if result.Awarded {
		log.Printf("🎮 [LEDGER] +%d XP → %s (challenge=%s, reason=%s) total=%d level=%d",
			points, userID, challengeID, earnedFor, result.XPTotal, result.Level)
		l.adjustLeaderboard(ctx, userID, points)
	}
	return &result, nil
}

// RevokeXP deletes the matching grant, if any, and subtracts its points.
// It reports whether a grant was removed.
func (l *ExperienceLedger) RevokeXP(ctx context.Context, userID, challengeID string, submissionID *string, earnedFor models.EarnedFor) (bool, error) {
	key := models.GrantDedupKey(userID, challengeID, submissionID, earnedFor)

	var points int64
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var grant models.ExperienceGrant
		if err := tx.Where("dedup_key = ?", key).First(&grant).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		// Conditional delete so two concurrent revokes subtract once.
		res := tx.Where("id = ?", grant.ID).Delete(&models.ExperienceGrant{})
		if res.Error != nil {
			return fmt.Errorf("delete grant: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("xp_total", gorm.Expr(
				"CASE WHEN xp_total >= ? THEN xp_total - ? ELSE 0 END", grant.PointsEarned, grant.PointsEarned,
			)).Error; err != nil {
			return fmt.Errorf("decrement xp_total: %w", err)
		}
		points = grant.PointsEarned
		return nil
	})
	if err != nil {
		return false, err
	}

	if points > 0 {
		log.Printf("↩️ [LEDGER] -%d XP → %s (challenge=%s, reason=%s)", points, userID, challengeID, earnedFor)
		l.adjustLeaderboard(ctx, userID, -points)
		return true, nil
	}
	return false, nil
}

// Progress returns the user's XP, level and streak snapshot.
func (l *ExperienceLedger) Progress(ctx context.Context, userID string) (*models.User, LevelProgress, error) {
	var user models.User
	if err := l.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, LevelProgress{}, notFound("user " + userID)
		}
		return nil, LevelProgress{}, err
	}
	return &user, l.Curve.Progress(user.XPTotal), nil
}

// Grants lists a user's ledger entries, newest first.
func (l *ExperienceLedger) Grants(ctx context.Context, userID string, limit int) ([]models.ExperienceGrant, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var grants []models.ExperienceGrant
	err := l.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Limit(limit).
		Find(&grants).Error
	return grants, err
}

func (l *ExperienceLedger) readTotals(tx *gorm.DB, userID string, out *AwardResult) error {
	var user models.User
	if err := tx.Select("id", "xp_total").Where("id = ?", userID).First(&user).Error; err != nil {
		return err
	}
	out.XPTotal = user.XPTotal
	out.Level = l.Curve.LevelForXP(user.XPTotal)
	return nil
}

func (l *ExperienceLedger) adjustLeaderboard(ctx context.Context, userID string, delta int64) {
	if l.Leaderboard == nil {
		return
	}
	if err := l.Leaderboard.Adjust(ctx, userID, delta); err != nil {
		log.Printf("⚠️ [LEDGER] leaderboard update failed for %s: %v", userID, err)
	}
}
