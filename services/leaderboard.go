package services

import (
	"context"
	"errors"
	"fmt"

	"findplayer/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const leaderboardKey = "findplayer:leaderboard:xp"

type LeaderboardEntry struct {
	Position int    `json:"position"`
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	XP       int64  `json:"xp"`
	Level    int    `json:"level"`
}

// Leaderboard mirrors users.xp_total into a Redis sorted set. With no Redis
// client it reads straight from the users table.
type Leaderboard struct {
	Redis *redis.Client
	DB    *gorm.DB
	Curve LevelCurve
}

func NewLeaderboard(client *redis.Client, db *gorm.DB, curve LevelCurve) *Leaderboard {
	return &Leaderboard{Redis: client, DB: db, Curve: curve}
}

func (lb *Leaderboard) Adjust(ctx context.Context, userID string, delta int64) error {
	if lb.Redis == nil {
		return nil
	}
	return lb.Redis.ZIncrBy(ctx, leaderboardKey, float64(delta), userID).Err()
}

// Rebuild replaces the sorted set with the current users table.
func (lb *Leaderboard) Rebuild(ctx context.Context) error {
	if lb.Redis == nil {
		return nil
	}
	var users []models.User
	if err := lb.DB.WithContext(ctx).Select("id", "xp_total").Where("xp_total > 0").Find(&users).Error; err != nil {
		return err
	}
	members := make([]redis.Z, 0, len(users))
	for _, u := range users {
		members = append(members, redis.Z{Score: float64(u.XPTotal), Member: u.ID})
	}
	pipe := lb.Redis.TxPipeline()
	pipe.Del(ctx, leaderboardKey)
	if len(members) > 0 {
		pipe.ZAdd(ctx, leaderboardKey, members...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (lb *Leaderboard) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	if lb.Redis == nil {
		return lb.topFromDB(ctx, limit)
	}

	zs, err := lb.Redis.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard range: %w", err)
	}
	entries := make([]LeaderboardEntry, 0, len(zs))
	ids := make([]string, 0, len(zs))
	for i, z := range zs {
		id, _ := z.Member.(string)
		xp := int64(z.Score)
		entries = append(entries, LeaderboardEntry{Position: i + 1, UserID: id, XP: xp, Level: lb.Curve.LevelForXP(xp)})
		ids = append(ids, id)
	}
	lb.attachUsernames(ctx, entries, ids)
	return entries, nil
}

// Position is the user's 1-based rank, or 0 when the user has no XP yet.
func (lb *Leaderboard) Position(ctx context.Context, userID string) (int64, error) {
	if lb.Redis == nil {
		var user models.User
		if err := lb.DB.WithContext(ctx).Select("id", "xp_total").Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, notFound("user " + userID)
			}
			return 0, err
		}
		if user.XPTotal == 0 {
			return 0, nil
		}
		var ahead int64
		if err := lb.DB.WithContext(ctx).Model(&models.User{}).Where("xp_total > ?", user.XPTotal).Count(&ahead).Error; err != nil {
			return 0, err
		}
		return ahead + 1, nil
	}

	rank, err := lb.Redis.ZRevRank(ctx, leaderboardKey, userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rank + 1, nil
}

func (lb *Leaderboard) topFromDB(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	var users []models.User
	if err := lb.DB.WithContext(ctx).
		Select("id", "username", "xp_total").
		Where("xp_total > 0").
		Order("xp_total DESC").Order("id ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{
			Position: i + 1,
			UserID:   u.ID,
			Username: u.Username,
			XP:       u.XPTotal,
			Level:    lb.Curve.LevelForXP(u.XPTotal),
		})
	}
	return entries, nil
}

func (lb *Leaderboard) attachUsernames(ctx context.Context, entries []LeaderboardEntry, ids []string) {
	if len(ids) == 0 || lb.DB == nil {
		return
	}
	var users []models.User
	if err := lb.DB.WithContext(ctx).Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	for i := range entries {
		entries[i].Username = names[entries[i].UserID]
	}
}
