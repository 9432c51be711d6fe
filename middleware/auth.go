// middleware/auth.go
package middleware

import (
	"log"
	"strings"

	"findplayer/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	LocalUserID = "user_id"
	LocalRole   = "user_role"

	CustomRoleClaim = "custom:role"
)

// Principal is the caller as presented by the identity provider.
type Principal struct {
	SubjectID  string
	Role       string
	CustomRole string
}

// EffectiveRole prefers the application-specific custom claim.
func (p Principal) EffectiveRole() models.Role {
	role := p.CustomRole
	if role == "" {
		role = p.Role
	}
	return models.Role(strings.ToLower(strings.TrimSpace(role)))
}

// PrincipalMiddleware attaches the caller's id and role to the request.
// Gateway headers win; otherwise claims are read from the bearer token. The
// token signature is verified upstream and is not re-checked here.
func PrincipalMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := principalFromHeaders(c)
		if !ok {
			var err error
			p, err = principalFromBearer(c.Get(fiber.HeaderAuthorization))
			if err != nil {
				log.Printf("❌ [USER_CTX] %v | Path: %s", err, c.Path())
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "missing or unreadable identity claims",
				})
			}
		}

		role := p.EffectiveRole()
		if p.SubjectID == "" || !role.Valid() {
			log.Printf("❌ [USER_CTX] incomplete principal (sub=%q role=%q) | Path: %s", p.SubjectID, role, c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "identity claims must carry a subject and a known role",
			})
		}

		c.Locals(LocalUserID, p.SubjectID)
		c.Locals(LocalRole, role)
		return c.Next()
	}
}

func principalFromHeaders(c *fiber.Ctx) (Principal, bool) {
	userID := strings.TrimSpace(c.Get("X-User-ID"))
	if userID == "" {
		return Principal{}, false
	}
	return Principal{SubjectID: userID, Role: c.Get("X-User-Role")}, true
}

func principalFromBearer(header string) (Principal, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" {
		return Principal{}, jwt.ErrTokenMalformed
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return Principal{}, err
	}
	sub, _ := claims.GetSubject()
	return Principal{
		SubjectID:  sub,
		Role:       stringClaim(claims, "role"),
		CustomRole: stringClaim(claims, CustomRoleClaim),
	}, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

// UserID and Role read what PrincipalMiddleware stored.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

func Role(c *fiber.Ctx) models.Role {
	role, _ := c.Locals(LocalRole).(models.Role)
	return role
}
