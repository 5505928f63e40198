package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dc-panel/internal/config"
	"dc-panel/internal/database"
	"dc-panel/internal/models"
)

func setupAuthTest(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	database.DB = db

	config.AppConfig = &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", Expiry: time.Hour},
	}

	user := models.User{Username: "operator", Email: "op@example.com", Role: "admin"}
	require.NoError(t, user.SetPassword("hunter2"))
	require.NoError(t, db.Create(&user).Error)

	app := fiber.New()
	app.Post("/api/auth/login", Login)
	return app
}

func postLogin(t *testing.T, app *fiber.App, body LoginRequest) (int, map[string]interface{}) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func TestLogin(t *testing.T) {
	app := setupAuthTest(t)

	status, body := postLogin(t, app, LoginRequest{Username: "operator", Password: "wrong"})
	assert.Equal(t, 401, status)
	assert.Equal(t, "Invalid credentials", body["error"])

	status, body = postLogin(t, app, LoginRequest{Username: "operator", Password: "hunter2"})
	require.Equal(t, 200, status)
	assert.NotEmpty(t, body["token"])

	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "operator", user["username"])
	assert.Equal(t, "admin", user["role"])
	assert.Equal(t, false, user["two_factor_enabled"])
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, user, "two_factor_secret")
}

func TestLoginChallenges2FA(t *testing.T) {
	app := setupAuthTest(t)

	require.NoError(t, database.DB.Model(&models.User{}).
		Where("username = ?", "operator").
		Updates(map[string]interface{}{
			"two_factor_enabled": true,
			"two_factor_secret":  "JBSWY3DPEHPK3PXP",
		}).Error)

	status, body := postLogin(t, app, LoginRequest{Username: "operator", Password: "hunter2"})
	require.Equal(t, 200, status)
	assert.Equal(t, true, body["requires_2fa"])
	assert.NotContains(t, body, "token")

	status, body = postLogin(t, app, LoginRequest{
		Username: "operator", Password: "hunter2", TOTPCode: "000000",
	})
	assert.Equal(t, 401, status)
	assert.Equal(t, "Invalid 2FA code", body["error"])
}
