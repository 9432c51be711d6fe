package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"findplayer/models"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

type QuotaAction string

const (
	QuotaSubmission        QuotaAction = "submission"
	QuotaChallengeCreation QuotaAction = "challenge_creation"
)

// QuotaPolicy is the per-tier limit over a rolling window.
type QuotaPolicy struct {
	Free    int
	Premium int
	Window  time.Duration
}

type Quota struct {
	Action    QuotaAction   `json:"action"`
	Current   int64         `json:"current"`
	Max       int64         `json:"max"`
	Remaining int64         `json:"remaining"`
	IsPremium bool          `json:"is_premium"`
	Window    time.Duration `json:"-"`
	WindowSec int64         `json:"window_seconds"`
}

func (q Quota) Exceeded() bool {
	return q.Current >= q.Max
}

// QuotaGuard counts a user's recent actions against their tier's limit.
type QuotaGuard struct {
	DB       *gorm.DB
	Clock    clockwork.Clock
	Policies map[QuotaAction]QuotaPolicy
}

func NewQuotaGuard(db *gorm.DB, clock clockwork.Clock, policies map[QuotaAction]QuotaPolicy) *QuotaGuard {
	return &QuotaGuard{DB: db, Clock: clock, Policies: policies}
}

// Role is the only role that performs the action.
func (a QuotaAction) Role() models.Role {
	if a == QuotaChallengeCreation {
		return models.RoleCoach
	}
	return models.RoleAthlete
}

func ParseQuotaAction(s string) (QuotaAction, error) {
	switch a := QuotaAction(s); a {
	case QuotaSubmission, QuotaChallengeCreation:
		return a, nil
	}
	return "", validationErr("action", fmt.Sprintf("unknown quota action %q", s))
}

// CheckQuota reports usage in [now-window, now]. Enforcement is up to the caller.
func (g *QuotaGuard) CheckQuota(ctx context.Context, userID string, action QuotaAction) (*Quota, error) {
	policy, ok := g.Policies[action]
	if !ok {
		return nil, validationErr("action", fmt.Sprintf("no quota policy for %q", action))
	}

	db := g.DB.WithContext(ctx)

	var user models.User
	if err := db.Select("id", "is_premium_member").Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user " + userID)
		}
		return nil, err
	}

	now := g.Clock.Now().UTC()
	since := now.Add(-policy.Window)

	var current int64
	var err error
	switch action {
	case QuotaSubmission:
		err = db.Model(&models.Submission{}).
			Where("athlete_id = ? AND submitted_at >= ? AND submitted_at <= ?", userID, since, now).
			Count(&current).Error
	case QuotaChallengeCreation:
		err = db.Model(&models.Challenge{}).
			Where("coach_id = ? AND created_at >= ? AND created_at <= ?", userID, since, now).
			Count(&current).Error
	}
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", action, err)
	}

	limit := int64(policy.Free)
	if user.IsPremiumMember {
		limit = int64(policy.Premium)
	}
	remaining := limit - current
	if remaining < 0 {
		remaining = 0
	}

	return &Quota{
		Action:    action,
		Current:   current,
		Max:       limit,
		Remaining: remaining,
		IsPremium: user.IsPremiumMember,
		Window:    policy.Window,
		WindowSec: int64(policy.Window / time.Second),
	}, nil
}

// CheckQuotaFor is CheckQuota for the caller, who must hold the action's role.
func (g *QuotaGuard) CheckQuotaFor(ctx context.Context, actor Actor, action QuotaAction) (*Quota, error) {
	if actor.Role != action.Role() {
		return nil, ErrForbidden
	}
	return g.CheckQuota(ctx, actor.UserID, action)
}

// enforce fails with QuotaExceededError when the user is at or over the limit.
func (g *QuotaGuard) enforce(ctx context.Context, userID string, action QuotaAction) (*Quota, error) {
	q, err := g.CheckQuota(ctx, userID, action)
	if err != nil {
		return nil, err
	}
	if q.Exceeded() {
		return q, &QuotaExceededError{Quota: *q}
	}
	return q, nil
}
