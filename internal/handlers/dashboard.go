package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"dc-panel/internal/database"
	"dc-panel/internal/models"
	"dc-panel/internal/services/executor"
	"dc-panel/internal/services/monitor"
)

// GetDashboard returns the summary counters for the landing page.
func GetDashboard(c *fiber.Ctx) error {
	var serverCount, clusterCount, activeJobs, failedJobs int64
	database.DB.Model(&models.Server{}).Count(&serverCount)
	database.DB.Model(&models.Cluster{}).Count(&clusterCount)
	database.DB.Model(&models.Job{}).
		Where("status IN ?", []string{models.JobStatusPending, models.JobStatusRunning}).
		Count(&activeJobs)
	database.DB.Model(&models.Job{}).
		Where("status = ? AND completed_at > ?", models.JobStatusFailed, time.Now().UTC().Add(-24*time.Hour)).
		Count(&failedJobs)

	executors, err := executor.List()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	online := 0
	for _, ex := range executors {
		if ex.State != models.ExecutorOffline {
			online++
		}
	}

	var upcoming []models.MaintenanceWindow
	database.DB.Where("ends_at > ?", time.Now().UTC()).Order("starts_at").Limit(5).Find(&upcoming)

	return c.JSON(fiber.Map{
		"servers":          serverCount,
		"clusters":         clusterCount,
		"active_jobs":      activeJobs,
		"failed_jobs_24h":  failedJobs,
		"executors":        len(executors),
		"executors_online": online,
		"maintenance":      upcoming,
	})
}

// GetHostStats returns panel-host health for the dashboard footer.
func GetHostStats(c *fiber.Ctx) error {
	stats, err := monitor.GetHostStats()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get host stats",
		})
	}
	return c.JSON(stats)
}
