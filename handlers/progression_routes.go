// handlers/progression_routes.go
package handlers

import (
	"strconv"

	"findplayer/middleware"
	"findplayer/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressionRoutes(router fiber.Router, ledger *services.ExperienceLedger, leaderboard *services.Leaderboard) {
	router.Get("/user/progress", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		user, progress, err := ledger.Progress(c.UserContext(), userID)
		if err != nil {
			return respondError(c, err)
		}

		response := fiber.Map{
			"id":               user.ID,
			"xp":               user.XPTotal,
			"level":            progress.Level,
			"rank_name":        progress.RankName,
			"level_floor_xp":   progress.LevelFloorXP,
			"next_level_xp":    progress.NextLevelXP,
			"xp_to_next_level": progress.XPToNextLevel,
			"is_max_level":     progress.IsMaxLevel,
			"current_streak":   user.CurrentStreak,
			"last_streak_date": user.LastStreakDate,
			"is_premium":       user.IsPremiumMember,
		}
		if leaderboard != nil {
			if pos, err := leaderboard.Position(c.UserContext(), userID); err == nil {
				response["leaderboard_position"] = pos
			}
		}
		return c.JSON(response)
	})

	router.Get("/user/progress/history", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		grants, err := ledger.Grants(c.UserContext(), middleware.UserID(c), limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(grants)
	})

	router.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "10"))
		top, err := leaderboard.Top(c.UserContext(), limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(top)
	})
}
