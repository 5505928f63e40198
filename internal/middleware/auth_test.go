package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dc-panel/internal/config"
)

func setupAuthConfig(t *testing.T) {
	t.Helper()
	config.AppConfig = &config.Config{
		JWT: config.JWTConfig{
			Secret: "test-secret",
			Expiry: time.Hour,
		},
	}
}

func protectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"role": c.Locals("role")})
	})
	app.Delete("/thing", AuthRequired(), AdminRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"deleted": true})
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	setupAuthConfig(t)
	app := protectedApp()

	req := httptest.NewRequest("GET", "/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := GenerateToken(1, "alice", "user")
	require.NoError(t, err)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthRequiredAcceptsCookie(t *testing.T) {
	setupAuthConfig(t)
	app := protectedApp()

	token, err := GenerateToken(1, "alice", "user")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", "token="+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminRequired(t *testing.T) {
	setupAuthConfig(t)
	app := protectedApp()

	userToken, err := GenerateToken(2, "bob", "user")
	require.NoError(t, err)

	req := httptest.NewRequest("DELETE", "/thing", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	adminToken, err := GenerateToken(1, "alice", "admin")
	require.NoError(t, err)

	req = httptest.NewRequest("DELETE", "/thing", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
