package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"findplayer/models"

	"gorm.io/gorm"
)

const streakCASAttempts = 3

// StreakTracker maintains the consecutive-day activity counter on users.
type StreakTracker struct {
	DB *gorm.DB
}

func NewStreakTracker(db *gorm.DB) *StreakTracker {
	return &StreakTracker{DB: db}
}

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// nextStreak applies the continuity rule for an activity on today.
func nextStreak(current int, last *time.Time, today time.Time) int {
	if last == nil {
		return 1
	}
	lastDay := Day(*last)
	switch {
	case lastDay.Equal(today):
		return current
	case lastDay.Equal(today.AddDate(0, 0, -1)):
		return current + 1
	default:
		return 1
	}
}

// BumpStreak records activity for today and returns the new streak value.
// The write is a compare-and-swap on the values that were read.
func (s *StreakTracker) BumpStreak(ctx context.Context, userID string, today time.Time) (int, error) {
	today = Day(today)
	db := s.DB.WithContext(ctx)

	for attempt := 0; attempt < streakCASAttempts; attempt++ {
		var user models.User
		if err := db.Select("id", "current_streak", "last_streak_date").Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, notFound("user " + userID)
			}
			return 0, err
		}

		next := nextStreak(user.CurrentStreak, user.LastStreakDate, today)
		if user.LastStreakDate != nil && Day(*user.LastStreakDate).Equal(today) {
			return next, nil
		}

		q := db.Model(&models.User{}).Where("id = ? AND current_streak = ?", userID, user.CurrentStreak)
		if user.LastStreakDate == nil {
			q = q.Where("last_streak_date IS NULL")
		} else {
			q = q.Where("last_streak_date = ?", *user.LastStreakDate)
		}
		res := q.UpdateColumns(map[string]any{
			"current_streak":   next,
			"last_streak_date": today,
		})
		if res.Error != nil {
			return 0, fmt.Errorf("update streak: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			return next, nil
		}
	}
	return 0, ErrStreakContention
}

// ResetStale zeroes streaks whose last counted day is neither today nor yesterday.
func (s *StreakTracker) ResetStale(ctx context.Context, today time.Time) (int64, error) {
	yesterday := Day(today).AddDate(0, 0, -1)
	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("current_streak > 0 AND (last_streak_date IS NULL OR last_streak_date < ?)", yesterday).
		UpdateColumn("current_streak", 0)
	if res.Error != nil {
		return 0, fmt.Errorf("reset stale streaks: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		log.Printf("🧹 [STREAK] reset %d stale streak(s) before %s", res.RowsAffected, yesterday.Format(time.DateOnly))
	}
	return res.RowsAffected, nil
}
