package handlers

import (
	"findplayer/middleware"
	"findplayer/services"

	"github.com/gofiber/fiber/v2"
)

// Services bundles everything the HTTP layer calls.
type Services struct {
	Challenges    *services.ChallengeService
	Submissions   *services.SubmissionService
	Reviews       *services.ReviewService
	Quota         *services.QuotaGuard
	Ledger        *services.ExperienceLedger
	Leaderboard   *services.Leaderboard
	Notifications *services.NotificationService
}

// SetupRoutes mounts the health check, the notification stream and every
// header-authenticated route behind PrincipalMiddleware.
func SetupRoutes(app *fiber.App, s Services) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupNotificationStream(app, s.Notifications)

	secured := app.Group("/", middleware.PrincipalMiddleware())
	SetupChallengeRoutes(secured, s.Challenges, s.Submissions, s.Reviews, s.Quota)
	SetupProgressionRoutes(secured, s.Ledger, s.Leaderboard)
	SetupNotificationRoutes(secured, s.Notifications)
}
