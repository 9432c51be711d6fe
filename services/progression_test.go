package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"findplayer/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwardXPIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "ath-1", models.RoleAthlete, false)
	challengeID := uuid.NewString()
	subID := strPtr(uuid.NewString())

	first, err := f.ledger.AwardXP(ctx, "ath-1", challengeID, subID, 150, models.EarnedForChallengeSubmission)
	require.NoError(t, err)
	assert.True(t, first.Awarded)
	assert.Equal(t, int64(150), first.XPTotal)
	assert.Equal(t, 2, first.Level)

	again, err := f.ledger.AwardXP(ctx, "ath-1", challengeID, subID, 150, models.EarnedForChallengeSubmission)
	require.NoError(t, err)
	assert.False(t, again.Awarded)
	assert.Equal(t, int64(150), again.XPTotal)

	var grants int64
	require.NoError(t, f.db.Model(&models.ExperienceGrant{}).Where("user_id = ?", "ath-1").Count(&grants).Error)
	assert.Equal(t, int64(1), grants)
	assert.Equal(t, int64(150), f.reload(t, "ath-1").XPTotal)
}

func TestAwardXPDistinguishesReasonAndSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "coach-1", models.RoleCoach, false)
	challengeID := uuid.NewString()

	_, err := f.ledger.AwardXP(ctx, "coach-1", challengeID, nil, 20, models.EarnedForChallengePost)
	require.NoError(t, err)
	res, err := f.ledger.AwardXP(ctx, "coach-1", challengeID, strPtr(uuid.NewString()), 10, models.EarnedForChallengeReview)
	require.NoError(t, err)
	assert.True(t, res.Awarded)
	res, err = f.ledger.AwardXP(ctx, "coach-1", challengeID, strPtr(uuid.NewString()), 10, models.EarnedForChallengeReview)
	require.NoError(t, err)
	assert.True(t, res.Awarded)
	assert.Equal(t, int64(40), res.XPTotal)
}

func TestAwardXPConcurrentDuplicatesCountOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "ath-1", models.RoleAthlete, false)
	challengeID := uuid.NewString()
	subID := strPtr(uuid.NewString())

	var wg sync.WaitGroup
	awarded := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.ledger.AwardXP(ctx, "ath-1", challengeID, subID, 75, models.EarnedForChallengeSubmission)
			if assert.NoError(t, err) {
				awarded <- res.Awarded
			}
		}()
	}
	wg.Wait()
	close(awarded)

	wins := 0
	for a := range awarded {
		if a {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, int64(75), f.reload(t, "ath-1").XPTotal)
}

func TestAwardXPRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "ath-1", models.RoleAthlete, false)

	_, err := f.ledger.AwardXP(ctx, "ath-1", uuid.NewString(), nil, 0, models.EarnedForChallengePost)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.ledger.AwardXP(ctx, "ghost", uuid.NewString(), nil, 10, models.EarnedForChallengePost)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRevokeXP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "ath-1", models.RoleAthlete, false)
	challengeID := uuid.NewString()
	subID := strPtr(uuid.NewString())

	_, err := f.ledger.AwardXP(ctx, "ath-1", challengeID, subID, 120, models.EarnedForChallengeSubmission)
	require.NoError(t, err)

	removed, err := f.ledger.RevokeXP(ctx, "ath-1", challengeID, subID, models.EarnedForChallengeSubmission)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, int64(0), f.reload(t, "ath-1").XPTotal)

	removed, err = f.ledger.RevokeXP(ctx, "ath-1", challengeID, subID, models.EarnedForChallengeSubmission)
	require.NoError(t, err)
	assert.False(t, removed)

	// After a revoke the same event may be granted again.
	res, err := f.ledger.AwardXP(ctx, "ath-1", challengeID, subID, 120, models.EarnedForChallengeSubmission)
	require.NoError(t, err)
	assert.True(t, res.Awarded)
}

func TestProgressAndGrants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "ath-1", models.RoleAthlete, false)

	for i := 0; i < 3; i++ {
		_, err := f.ledger.AwardXP(ctx, "ath-1", uuid.NewString(), strPtr(uuid.NewString()), 100, models.EarnedForChallengeSubmission)
		require.NoError(t, err)
	}

	user, p, err := f.ledger.Progress(ctx, "ath-1")
	require.NoError(t, err)
	assert.Equal(t, int64(300), user.XPTotal)
	assert.Equal(t, 3, p.Level)

	grants, err := f.ledger.Grants(ctx, "ath-1", 2)
	require.NoError(t, err)
	assert.Len(t, grants, 2)

	_, _, err = f.ledger.Progress(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
