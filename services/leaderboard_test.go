package services

import (
	"context"
	"testing"

	"findplayer/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedXP(t *testing.T, f *fixture, xp map[string]int64) {
	t.Helper()
	for id, points := range xp {
		f.addUser(t, id, models.RoleAthlete, false)
		if points > 0 {
			_, err := f.ledger.AwardXP(context.Background(), id, uuid.NewString(), nil, points, models.EarnedForChallengeSubmission)
			require.NoError(t, err)
		}
	}
}

func TestLeaderboardRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t)
	ctx := context.Background()
	lb := NewLeaderboard(client, f.db, StandardCurve)

	seedXP(t, f, map[string]int64{"a": 500, "b": 120})
	require.NoError(t, lb.Rebuild(ctx))

	f.ledger.Leaderboard = lb
	f.addUser(t, "c", models.RoleAthlete, false)
	_, err := f.ledger.AwardXP(ctx, "c", uuid.NewString(), nil, 300, models.EarnedForChallengeSubmission)
	require.NoError(t, err)

	top, err := lb.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "a", top[0].UserID)
	assert.Equal(t, "a", top[0].Username)
	assert.Equal(t, "c", top[1].UserID)
	assert.Equal(t, int64(300), top[1].XP)
	assert.Equal(t, 3, top[1].Level)

	pos, err := lb.Position(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(3), pos)

	pos, err = lb.Position(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, pos)
}

func TestLeaderboardFallsBackToDatabase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lb := NewLeaderboard(nil, f.db, StandardCurve)
	seedXP(t, f, map[string]int64{"a": 90, "b": 700, "z": 0})

	require.NoError(t, lb.Rebuild(ctx))
	require.NoError(t, lb.Adjust(ctx, "a", 5))

	top, err := lb.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].UserID)
	assert.Equal(t, 1, top[1].Level)

	pos, err := lb.Position(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), pos)

	pos, err = lb.Position(ctx, "z")
	require.NoError(t, err)
	assert.Zero(t, pos)

	_, err = lb.Position(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
