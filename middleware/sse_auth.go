// middleware/sse_auth.go
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SSEAuthMiddleware lets EventSource clients, which cannot set headers, pass
// the bearer token as the `token` query parameter. Gateway headers and an
// Authorization header still take precedence.
//
// Usage:
//
//	app.Get("/notifications/stream", middleware.SSEAuthMiddleware(), handler)
func SSEAuthMiddleware() fiber.Handler {
	principal := PrincipalMiddleware()
	return func(c *fiber.Ctx) error {
		if c.Get("X-User-ID") == "" && c.Get(fiber.HeaderAuthorization) == "" {
			token := strings.TrimSpace(c.Query("token"))
			if token == "" {
				log.Printf("[SSEAuth] ❌ Missing token query param for %s", c.Path())
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "missing token in query",
				})
			}
			c.Request().Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		}
		return principal(c)
	}
}
