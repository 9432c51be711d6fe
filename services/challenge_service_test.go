package services

import (
	"context"
	"testing"

	"findplayer/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChallenge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "coach-1", models.RoleCoach, false)

	c, err := f.challenges.CreateChallenge(ctx, coach("coach-1"), CreateChallengeInput{
		Title:       "  Weak Foot Volleys ",
		Description: "20 in a row",
		XPValue:     120,
	})
	require.NoError(t, err)
	assert.Equal(t, "Weak Foot Volleys", c.Title)
	assert.Equal(t, "weak-foot-volleys", c.Slug)
	assert.True(t, c.CreatedAt.Equal(testNow))

	assert.Equal(t, int64(20), f.reload(t, "coach-1").XPTotal, "posting a challenge earns XP")

	dup, err := f.challenges.CreateChallenge(ctx, coach("coach-1"), CreateChallengeInput{Title: "Weak foot volleys", XPValue: 50})
	require.NoError(t, err)
	assert.Equal(t, "weak-foot-volleys-"+dup.ID[:8], dup.Slug)

	got, err := f.challenges.GetChallenge(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Slug, got.Slug)
}

func TestCreateChallengeRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "coach-1", models.RoleCoach, false)

	_, err := f.challenges.CreateChallenge(ctx, athlete("ath-1"), CreateChallengeInput{Title: "x", XPValue: 10})
	assert.ErrorIs(t, err, ErrForbidden)

	var verr *ValidationError
	_, err = f.challenges.CreateChallenge(ctx, coach("coach-1"), CreateChallengeInput{Title: " ", XPValue: 10})
	assert.ErrorAs(t, err, &verr)
	_, err = f.challenges.CreateChallenge(ctx, coach("coach-1"), CreateChallengeInput{Title: "x", XPValue: 0})
	assert.ErrorAs(t, err, &verr)
}

func TestCreateChallengeQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "coach-1", models.RoleCoach, false)

	for i := 0; i < 3; i++ {
		_, err := f.challenges.CreateChallenge(ctx, coach("coach-1"), CreateChallengeInput{Title: "Sprint", XPValue: 10})
		require.NoError(t, err)
	}
	_, err := f.challenges.CreateChallenge(ctx, coach("coach-1"), CreateChallengeInput{Title: "Sprint", XPValue: 10})
	var qerr *QuotaExceededError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, QuotaChallengeCreation, qerr.Quota.Action)
}

func TestListChallenges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "coach-1", models.RoleCoach, false)
	f.addUser(t, "coach-2", models.RoleCoach, false)
	f.addChallenge(t, "coach-1", 10)
	f.addChallenge(t, "coach-1", 10)
	f.addChallenge(t, "coach-2", 10)

	all, total, err := f.challenges.ListChallenges(ctx, "", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 2)

	mine, total, err := f.challenges.ListChallenges(ctx, "coach-2", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, mine, 1)

	_, err = f.challenges.GetChallenge(ctx, "bogus")
	assert.ErrorIs(t, err, ErrNotFound)
}
