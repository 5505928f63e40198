package handlers

import (
	"github.com/gofiber/fiber/v2"

	"dc-panel/internal/services/executor"
)

// GetExecutors lists known executors with their staleness state.
func GetExecutors(c *fiber.Ctx) error {
	statuses, err := executor.List()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(statuses)
}

// ExecutorHeartbeat ingests a liveness record from the external executor.
func ExecutorHeartbeat(c *fiber.Ctx) error {
	var req executor.HeartbeatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.ExecutorID == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "executor_id is required",
		})
	}
	if req.IP == "" {
		req.IP = c.IP()
	}

	if err := executor.Ingest(req); err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}
