package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"findplayer/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPrincipalApp() *fiber.App {
	app := fiber.New()
	app.Use(PrincipalMiddleware())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": UserID(c), "role": Role(c)})
	})
	return app
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-secret"))
	require.NoError(t, err)
	return tok
}

func TestPrincipalFromGatewayHeaders(t *testing.T) {
	app := newPrincipalApp()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", "coach-1")
	req.Header.Set("X-User-Role", "Coach")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPrincipalFromBearerClaims(t *testing.T) {
	p, err := principalFromBearer("Bearer " + signed(t, jwt.MapClaims{
		"sub":           "athlete-9",
		"role":          "scout",
		CustomRoleClaim: "athlete",
	}))
	require.NoError(t, err)
	assert.Equal(t, "athlete-9", p.SubjectID)
	assert.Equal(t, models.RoleAthlete, p.EffectiveRole())

	app := newPrincipalApp()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, jwt.MapClaims{"sub": "scout-2", "role": "scout"}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPrincipalRejectsMissingOrUnknownRole(t *testing.T) {
	app := newPrincipalApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("X-User-Role", "admin")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGatewayAuthMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(GatewayAuthMiddleware("s3cret"))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(GatewayTokenHeader, "wrong")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(GatewayTokenHeader, "s3cret")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	open := fiber.New()
	open.Use(GatewayAuthMiddleware(""))
	open.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })
	resp, err = open.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestSSEAuthFromQueryToken(t *testing.T) {
	app := fiber.New()
	app.Get("/stream", SSEAuthMiddleware(), func(c *fiber.Ctx) error {
		return c.SendString(UserID(c) + ":" + string(Role(c)))
	})

	tok := signed(t, jwt.MapClaims{"sub": "ath-3", "custom:role": "athlete"})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/stream?token="+tok, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/stream", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	req.Header.Set("X-User-ID", "coach-1")
	req.Header.Set("X-User-Role", "coach")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
