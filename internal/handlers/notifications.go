package handlers

import (
	"github.com/gofiber/fiber/v2"

	"dc-panel/internal/database"
	"dc-panel/internal/services/notify"
)

// GetNotificationSettings returns the webhook configuration.
func GetNotificationSettings(c *fiber.Ctx) error {
	settings, err := notify.Settings()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(settings)
}

// UpdateNotificationSettings changes the webhook configuration.
func UpdateNotificationSettings(c *fiber.Ctx) error {
	type Request struct {
		Enabled            *bool   `json:"enabled"`
		WebhookURL         *string `json:"webhook_url"`
		NotifyJobFailed    *bool   `json:"notify_job_failed"`
		NotifyJobDone      *bool   `json:"notify_job_done"`
		NotifyExecutorDown *bool   `json:"notify_executor_down"`
	}

	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	settings, err := notify.Settings()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if req.Enabled != nil {
		settings.Enabled = *req.Enabled
	}
	if req.WebhookURL != nil {
		settings.WebhookURL = *req.WebhookURL
	}
	if req.NotifyJobFailed != nil {
		settings.NotifyJobFailed = *req.NotifyJobFailed
	}
	if req.NotifyJobDone != nil {
		settings.NotifyJobDone = *req.NotifyJobDone
	}
	if req.NotifyExecutorDown != nil {
		settings.NotifyExecutorDown = *req.NotifyExecutorDown
	}

	if err := database.DB.Save(settings).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(settings)
}

// TestNotification fires a test event at the configured webhook.
func TestNotification(c *fiber.Ctx) error {
	notify.Dispatch(notify.Event{
		Type:    notify.EventTest,
		Message: "Test notification from DC Panel",
	})
	return c.JSON(fiber.Map{
		"success": true,
	})
}
