package handlers

import (
	"errors"
	"log"
	"strings"

	"findplayer/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// parseBody decodes the JSON body into req and runs its `validate` tags.
func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return &services.ValidationError{Message: "invalid JSON body"}
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &services.ValidationError{
				Field:   strings.ToLower(fe.Field()),
				Message: "failed " + fe.Tag() + " validation",
			}
		}
		return &services.ValidationError{Message: err.Error()}
	}
	return nil
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	var (
		verr *services.ValidationError
		qerr *services.QuotaExceededError
		cerr *services.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "validation failed",
			"field": verr.Field,
			"cause": verr.Message,
		})
	case errors.As(err, &qerr):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "quota exceeded",
			"quota": qerr.Quota,
		})
	case errors.As(err, &cerr):
		body := fiber.Map{"error": cerr.Error()}
		if cerr.Existing != nil {
			body["submission"] = cerr.Existing
		}
		return c.Status(fiber.StatusConflict).JSON(body)
	case errors.Is(err, services.ErrReviewConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	log.Printf("❌ [HTTP] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
