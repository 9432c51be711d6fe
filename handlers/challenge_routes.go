// handlers/challenge_routes.go
package handlers

import (
	"strconv"

	"findplayer/middleware"
	"findplayer/models"
	"findplayer/services"

	"github.com/gofiber/fiber/v2"
)

type createChallengeRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	XPValue     int64  `json:"xp_value" validate:"required,min=1"`
}

type submitRequest struct {
	VideoURL string `json:"video_url" validate:"required,url"`
}

type reviewRequest struct {
	Action  string `json:"action"`
	Comment string `json:"comment" validate:"max=2000"`
}

func actor(c *fiber.Ctx) services.Actor {
	return services.Actor{UserID: middleware.UserID(c), Role: middleware.Role(c)}
}

func SetupChallengeRoutes(router fiber.Router, challenges *services.ChallengeService, submissions *services.SubmissionService, reviews *services.ReviewService, quota *services.QuotaGuard) {
	router.Post("/challenges", func(c *fiber.Ctx) error {
		var req createChallengeRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		ch, err := challenges.CreateChallenge(c.UserContext(), actor(c), services.CreateChallengeInput{
			Title:       req.Title,
			Description: req.Description,
			XPValue:     req.XPValue,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(ch)
	})

	router.Get("/challenges", func(c *fiber.Ctx) error {
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		list, total, err := challenges.ListChallenges(c.UserContext(), c.Query("coach_id"), page, size)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"challenges": list, "total": total, "page": page})
	})

	router.Get("/challenges/:id", func(c *fiber.Ctx) error {
		ch, err := challenges.GetChallenge(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(ch)
	})

	router.Post("/challenges/:id/submissions", func(c *fiber.Ctx) error {
		if middleware.Role(c) != models.RoleAthlete {
			return respondError(c, services.ErrForbidden)
		}
		var req submitRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		sub, err := submissions.Submit(c.UserContext(), actor(c), c.Params("id"), req.VideoURL)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(sub)
	})

	router.Get("/challenges/:id/submissions", func(c *fiber.Ctx) error {
		list, err := submissions.ListForChallenge(c.UserContext(), actor(c), c.Params("id"), models.SubmissionStatus(c.Query("status")))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	})

	router.Get("/submissions/mine", func(c *fiber.Ctx) error {
		list, err := submissions.Mine(c.UserContext(), actor(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	})

	router.Post("/submissions/:id/review", func(c *fiber.Ctx) error {
		if middleware.Role(c) != models.RoleCoach {
			return respondError(c, services.ErrForbidden)
		}
		var req reviewRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		sub, err := reviews.Review(c.UserContext(), actor(c), c.Params("id"), services.ReviewAction(req.Action), req.Comment)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(sub)
	})

	router.Get("/quota/:action", func(c *fiber.Ctx) error {
		action, err := services.ParseQuotaAction(c.Params("action"))
		if err != nil {
			return respondError(c, err)
		}
		q, err := quota.CheckQuotaFor(c.UserContext(), actor(c), action)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(q)
	})
}
