package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"dc-panel/internal/services/jobs"
)

// GetJobs returns a page of jobs. top_level=true hides sub-jobs.
func GetJobs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))

	list, total, err := jobs.List(jobs.ListOptions{
		Status:   c.Query("status"),
		JobType:  c.Query("job_type"),
		TopLevel: c.Query("top_level") == "true",
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"items": list,
		"total": total,
	})
}

// GetJob returns one job with its sub-jobs.
func GetJob(c *fiber.Ctx) error {
	job, err := jobs.Get(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{
				"error": "Job not found",
			})
		}
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	subs, err := jobs.SubJobs(job.ID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"job":      job,
		"sub_jobs": subs,
	})
}

// CreateJob enqueues a job for the external executor.
func CreateJob(c *fiber.Ctx) error {
	type Request struct {
		JobType     string                 `json:"job_type"`
		TargetScope map[string]interface{} `json:"target_scope"`
		Details     map[string]interface{} `json:"details"`
	}

	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.JobType == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "job_type is required",
		})
	}

	job, err := jobs.Enqueue(req.JobType, req.TargetScope, req.Details)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(job)
}

// GetCancelOptions tells the cancel dialog what it may offer: whether
// graceful mode is available, whether it was already signalled, and whether
// a force cancel should carry the firmware-flash warning.
func GetCancelOptions(c *fiber.Ctx) error {
	job, err := jobs.Get(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{
				"error": "Job not found",
			})
		}
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(jobs.OptionsFor(job))
}

// CancelJob writes cancellation intent. Backend errors are surfaced
// verbatim; the caller decides whether to re-trigger.
func CancelJob(c *fiber.Ctx) error {
	type Request struct {
		Mode string `json:"mode"`
	}

	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	err := jobs.RequestCancel(c.Params("id"), req.Mode)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{
			"success": true,
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(404).JSON(fiber.Map{
			"error": "Job not found",
		})
	case errors.Is(err, jobs.ErrGracefulNotSupported),
		errors.Is(err, jobs.ErrJobFinished),
		errors.Is(err, jobs.ErrUnknownMode):
		return c.Status(400).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
