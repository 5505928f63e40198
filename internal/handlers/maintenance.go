package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"dc-panel/internal/database"
	"dc-panel/internal/models"
)

// GetMaintenanceWindows lists windows, upcoming first.
func GetMaintenanceWindows(c *fiber.Ctx) error {
	query := database.DB.Model(&models.MaintenanceWindow{})
	if c.Query("upcoming") == "true" {
		query = query.Where("ends_at > ?", time.Now().UTC())
	}

	var windows []models.MaintenanceWindow
	if err := query.Order("starts_at").Find(&windows).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(windows)
}

type maintenanceRequest struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	TargetServers string    `json:"target_servers"`
}

func (r *maintenanceRequest) validate() string {
	if r.Title == "" {
		return "title is required"
	}
	if r.StartsAt.IsZero() || r.EndsAt.IsZero() {
		return "starts_at and ends_at are required"
	}
	if !r.EndsAt.After(r.StartsAt) {
		return "ends_at must be after starts_at"
	}
	return ""
}

func CreateMaintenanceWindow(c *fiber.Ctx) error {
	var req maintenanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if msg := req.validate(); msg != "" {
		return c.Status(400).JSON(fiber.Map{
			"error": msg,
		})
	}

	window := models.MaintenanceWindow{
		Title:         req.Title,
		Description:   req.Description,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
		TargetServers: req.TargetServers,
	}
	if err := database.DB.Create(&window).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(window)
}

func UpdateMaintenanceWindow(c *fiber.Ctx) error {
	var window models.MaintenanceWindow
	if err := database.DB.First(&window, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Maintenance window not found",
		})
	}

	var req maintenanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if msg := req.validate(); msg != "" {
		return c.Status(400).JSON(fiber.Map{
			"error": msg,
		})
	}

	window.Title = req.Title
	window.Description = req.Description
	window.TargetServers = req.TargetServers
	if !window.StartsAt.Equal(req.StartsAt) {
		// Rescheduled windows get a fresh reminder.
		window.StartsAt = req.StartsAt
		window.NotifiedAt = nil
	}
	window.EndsAt = req.EndsAt

	if err := database.DB.Save(&window).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(window)
}

func DeleteMaintenanceWindow(c *fiber.Ctx) error {
	if err := database.DB.Delete(&models.MaintenanceWindow{}, c.Params("id")).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
	})
}
