package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/ssh"

	"dc-panel/internal/database"
	"dc-panel/internal/models"
)

// GetSSHKeys lists keys; revoked ones are kept for audit and flagged.
func GetSSHKeys(c *fiber.Ctx) error {
	var keys []models.SSHKey
	if err := database.DB.Order("created_at desc").Find(&keys).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(keys)
}

// CreateSSHKey validates and fingerprints a public key before storing it.
func CreateSSHKey(c *fiber.Ctx) error {
	type Request struct {
		Name      string `json:"name"`
		PublicKey string `json:"public_key"`
	}

	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name == "" || req.PublicKey == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "name and public_key are required",
		})
	}

	pub, comment, _, _, err := ssh.ParseAuthorizedKey([]byte(req.PublicKey))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid public key: " + err.Error(),
		})
	}

	key := models.SSHKey{
		Name:        req.Name,
		PublicKey:   req.PublicKey,
		Fingerprint: ssh.FingerprintSHA256(pub),
		Comment:     comment,
	}
	if err := database.DB.Create(&key).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(key)
}

// RevokeSSHKey marks a key revoked. The executor removes it from managed
// hosts on its next key sync; rotation is create-new then revoke-old.
func RevokeSSHKey(c *fiber.Ctx) error {
	var key models.SSHKey
	if err := database.DB.First(&key, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Key not found",
		})
	}

	if key.RevokedAt == nil {
		now := time.Now().UTC()
		key.RevokedAt = &now
		if err := database.DB.Save(&key).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	return c.JSON(key)
}

func DeleteSSHKey(c *fiber.Ctx) error {
	if err := database.DB.Delete(&models.SSHKey{}, c.Params("id")).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
	})
}
