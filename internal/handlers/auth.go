package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pquerna/otp/totp"

	"dc-panel/internal/database"
	"dc-panel/internal/middleware"
	"dc-panel/internal/models"
)

const sessionCookie = "token"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

// currentUser loads the user row behind the authenticated request.
func currentUser(c *fiber.Ctx) (*models.User, error) {
	userID := c.Locals("userID").(uint)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// userPayload is the user shape returned to the UI. The password hash and
// TOTP secret never leave the server.
func userPayload(user *models.User) fiber.Map {
	return fiber.Map{
		"id":                 user.ID,
		"username":           user.Username,
		"email":              user.Email,
		"role":               user.Role,
		"two_factor_enabled": user.TwoFactorEnabled,
	}
}

func setSessionCookie(c *fiber.Ctx, token string, maxAge int) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		HTTPOnly: true,
		MaxAge:   maxAge,
		Path:     "/",
	})
}

// Login checks credentials, walks the 2FA challenge when enabled, and hands
// out a JWT both in the body and as a session cookie.
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var user models.User
	if err := database.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid credentials"})
	}
	if !user.CheckPassword(req.Password) {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid credentials"})
	}

	if user.TwoFactorEnabled {
		// First round trip carries no code; the UI re-submits with one.
		if req.TOTPCode == "" {
			return c.JSON(fiber.Map{"requires_2fa": true})
		}
		if !totp.Validate(req.TOTPCode, user.TwoFactorSecret) {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid 2FA code"})
		}
	}

	token, err := middleware.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to generate token"})
	}

	setSessionCookie(c, token, 86400)

	return c.JSON(fiber.Map{
		"token": token,
		"user":  userPayload(&user),
	})
}

func Logout(c *fiber.Ctx) error {
	setSessionCookie(c, "", -1)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func GetProfile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(userPayload(user))
}

// Setup2FA generates a TOTP secret and stores it pending verification.
// 2FA only turns on once Verify2FA confirms the user can produce codes.
func Setup2FA(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "DC Panel",
		AccountName: user.Username,
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to generate 2FA secret"})
	}

	user.TwoFactorSecret = key.Secret()
	if err := database.DB.Save(user).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"secret":  key.Secret(),
		"qr_code": key.URL(),
	})
}

func Verify2FA(c *fiber.Ctx) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := currentUser(c)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}
	if user.TwoFactorSecret == "" {
		return c.Status(400).JSON(fiber.Map{"error": "2FA not set up"})
	}
	if !totp.Validate(req.Code, user.TwoFactorSecret) {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid 2FA code"})
	}

	user.TwoFactorEnabled = true
	if err := database.DB.Save(user).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "2FA enabled"})
}

func Disable2FA(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}

	user.TwoFactorEnabled = false
	user.TwoFactorSecret = ""
	if err := database.DB.Save(user).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "2FA disabled"})
}
