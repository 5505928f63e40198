package scheduler

import (
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"dc-panel/internal/config"
	"dc-panel/internal/database"
	"dc-panel/internal/models"
	"dc-panel/internal/services/executor"
	"dc-panel/internal/services/jobs"
	"dc-panel/internal/services/notify"
	"dc-panel/internal/services/retention"
)

var scheduler *cron.Cron

// Init starts the in-process background schedule: nightly retention cleanup,
// executor staleness sweeps and maintenance-window reminders.
func Init(cfg config.SchedulerConfig) {
	scheduler = cron.New()

	mustAdd(cfg.CleanupSchedule, "retention cleanup", runCleanup)
	mustAdd(cfg.ExecutorSweep, "executor sweep", executor.SweepOffline)
	mustAdd(cfg.ExecutorSweep, "job notifications", jobs.SweepTerminalNotifications)
	mustAdd(cfg.MaintenanceSchedule, "maintenance check", checkMaintenanceWindows)

	scheduler.Start()
	logrus.Info("⏰ Background scheduler started")
}

func mustAdd(spec, name string, fn func()) {
	if _, err := scheduler.AddFunc(spec, fn); err != nil {
		logrus.WithError(err).WithField("schedule", spec).Errorf("failed to schedule %s", name)
	}
}

func runCleanup() {
	// Execute honors auto_cleanup_enabled on its own; a disabled run is a
	// logged no-op.
	if _, err := retention.Execute(database.DB, retention.Options{}); err != nil {
		logrus.WithError(err).Error("scheduled cleanup failed")
	}
}

// checkMaintenanceWindows fires a single reminder for windows starting
// within the next hour.
func checkMaintenanceWindows() {
	now := time.Now().UTC()
	horizon := now.Add(time.Hour)

	var windows []models.MaintenanceWindow
	err := database.DB.
		Where("notified_at IS NULL AND starts_at > ? AND starts_at <= ?", now, horizon).
		Find(&windows).Error
	if err != nil {
		logrus.WithError(err).Warn("maintenance check failed")
		return
	}

	for _, w := range windows {
		if err := database.DB.Model(&models.MaintenanceWindow{}).
			Where("id = ? AND notified_at IS NULL", w.ID).
			Update("notified_at", now).Error; err != nil {
			logrus.WithError(err).WithField("window_id", w.ID).Warn("failed to mark window notified")
			continue
		}

		notify.Dispatch(notify.Event{
			Type:    notify.EventMaintenanceDue,
			Message: "Maintenance window \"" + w.Title + "\" starts at " + w.StartsAt.Format(time.RFC3339),
			Data: map[string]interface{}{
				"window_id": strconv.Itoa(int(w.ID)),
			},
		})
	}
}

// Stop halts the schedule. Entries already running finish on their own.
func Stop() {
	if scheduler != nil {
		scheduler.Stop()
	}
}
