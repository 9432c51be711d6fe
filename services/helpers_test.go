package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"findplayer/database/databasetest"
	"findplayer/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

type fixture struct {
	db            *gorm.DB
	clock         *clockwork.FakeClock
	ledger        *ExperienceLedger
	quota         *QuotaGuard
	streaks       *StreakTracker
	notifications *NotificationService
	challenges    *ChallengeService
	submissions   *SubmissionService
	reviews       *ReviewService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := databasetest.Open(t)
	clock := clockwork.NewFakeClockAt(testNow)

	f := &fixture{db: db, clock: clock}
	f.ledger = NewExperienceLedger(db, StandardCurve, clock)
	f.quota = NewQuotaGuard(db, clock, map[QuotaAction]QuotaPolicy{
		QuotaSubmission:        {Free: 1, Premium: 3, Window: 24 * time.Hour},
		QuotaChallengeCreation: {Free: 3, Premium: 5, Window: 7 * 24 * time.Hour},
	})
	f.streaks = NewStreakTracker(db)
	f.notifications = NewNotificationService(db, clock)
	f.challenges = NewChallengeService(db, clock, f.quota, f.ledger, 20)
	f.submissions = NewSubmissionService(db, clock, f.quota, f.streaks, f.notifications)
	f.reviews = NewReviewService(db, clock, f.ledger, f.streaks, f.notifications, 10)
	return f
}

func (f *fixture) addUser(t *testing.T, id string, role models.Role, premium bool) *models.User {
	t.Helper()
	u := &models.User{ID: id, Username: id, Role: role, IsPremiumMember: premium}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) addChallenge(t *testing.T, coachID string, xp int64) *models.Challenge {
	t.Helper()
	id := uuid.NewString()
	c := &models.Challenge{
		ID:        id,
		CoachID:   coachID,
		Title:     "Challenge " + id[:8],
		Slug:      "challenge-" + id[:8],
		XPValue:   xp,
		CreatedAt: f.clock.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, f.db.Create(c).Error)
	return c
}

func (f *fixture) reload(t *testing.T, id string) *models.User {
	t.Helper()
	var u models.User
	require.NoError(t, f.db.Where("id = ?", id).First(&u).Error)
	return &u
}

func athlete(id string) Actor { return Actor{UserID: id, Role: models.RoleAthlete} }
func coach(id string) Actor   { return Actor{UserID: id, Role: models.RoleCoach} }

func strPtr(s string) *string { return &s }

// recordingSink captures notifications and can be told to fail.
type recordingSink struct {
	mu   sync.Mutex
	sent []*models.Notification
	fail bool
}

func (r *recordingSink) Notify(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("sink down")
	}
	r.sent = append(r.sent, n)
	return nil
}
