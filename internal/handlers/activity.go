package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"dc-panel/internal/database"
	"dc-panel/internal/models"
	"dc-panel/internal/services/retention"
)

// GetActivityLogs returns a page of command log entries, newest first.
func GetActivityLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	query := database.DB.Model(&models.CommandLog{})
	if success := c.Query("success"); success != "" {
		query = query.Where("success = ?", success == "true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var logs []models.CommandLog
	if err := query.Order("timestamp desc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&logs).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"items": logs,
		"total": total,
	})
}

// GetActivitySettings returns the retention configuration.
func GetActivitySettings(c *fiber.Ctx) error {
	settings, err := retention.LoadSettings(database.DB)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(settings)
}

// UpdateActivitySettings changes the retention configuration.
func UpdateActivitySettings(c *fiber.Ctx) error {
	type Request struct {
		AutoCleanupEnabled *bool `json:"auto_cleanup_enabled"`
		LogRetentionDays   *int  `json:"log_retention_days"`
	}

	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	settings, err := retention.LoadSettings(database.DB)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if req.AutoCleanupEnabled != nil {
		settings.AutoCleanupEnabled = *req.AutoCleanupEnabled
	}
	if req.LogRetentionDays != nil {
		if *req.LogRetentionDays < 1 {
			return c.Status(400).JSON(fiber.Map{
				"error": "log_retention_days must be at least 1",
			})
		}
		settings.LogRetentionDays = *req.LogRetentionDays
	}

	if err := database.DB.Save(&settings).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(settings)
}

// RunCleanup is the retention cleanup entry point. The body is optional;
// a malformed body falls back to defaults rather than failing.
func RunCleanup(c *fiber.Ctx) error {
	type Request struct {
		Preview       bool `json:"preview"`
		RetentionDays int  `json:"retentionDays"`
	}

	var req Request
	if len(c.Body()) > 0 {
		_ = c.BodyParser(&req)
	}

	result, err := retention.Execute(database.DB, retention.Options{
		Preview:       req.Preview,
		RetentionDays: req.RetentionDays,
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(result)
}
