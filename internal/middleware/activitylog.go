package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"dc-panel/internal/database"
	"dc-panel/internal/models"
)

const maxPayloadBytes = 4096

// ActivityLog appends a command_logs row for every mutating API call. Rows
// are written after the handler completes so the success flag and duration
// are real; the write happens off the request path and is best-effort.
func ActivityLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		start := time.Now()
		reqBody := truncatePayload(c.Body())

		err := c.Next()

		entry := models.CommandLog{
			Timestamp:      start,
			Action:         c.Method() + " " + c.Route().Path,
			Method:         c.Method(),
			Path:           c.Path(),
			Success:        err == nil && c.Response().StatusCode() < 400,
			DurationMs:     time.Since(start).Milliseconds(),
			RequestPayload: reqBody,
			IP:             c.IP(),
		}
		if userID, ok := c.Locals("userID").(uint); ok {
			entry.UserID = userID
		}
		if err != nil {
			entry.ErrorMessage = err.Error()
		} else if !entry.Success {
			entry.ErrorMessage = truncatePayload(c.Response().Body())
		} else {
			entry.ResponsePayload = truncatePayload(c.Response().Body())
		}

		go func() {
			database.DB.Create(&entry)
		}()

		return err
	}
}

func truncatePayload(b []byte) string {
	if len(b) > maxPayloadBytes {
		b = b[:maxPayloadBytes]
	}
	return string(b)
}
