package executor

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/clause"

	"dc-panel/internal/database"
	"dc-panel/internal/models"
	"dc-panel/internal/services/notify"
)

// HeartbeatRequest is what the external executor POSTs on every poll.
type HeartbeatRequest struct {
	ExecutorID    string `json:"executor_id"`
	Hostname      string `json:"hostname"`
	IP            string `json:"ip"`
	PollCount     int64  `json:"poll_count"`
	JobsProcessed int64  `json:"jobs_processed"`
	LastError     string `json:"last_error,omitempty"`
}

// Status is a heartbeat row with its computed staleness.
type Status struct {
	models.ExecutorHeartbeat
	State string `json:"state"`
}

// Ingest upserts the single heartbeat row for an executor. A fresh
// heartbeat also clears any recorded offline transition.
func Ingest(req HeartbeatRequest) error {
	hb := models.ExecutorHeartbeat{
		ExecutorID:    req.ExecutorID,
		Hostname:      req.Hostname,
		IP:            req.IP,
		LastSeenAt:    time.Now().UTC(),
		PollCount:     req.PollCount,
		JobsProcessed: req.JobsProcessed,
		LastError:     req.LastError,
	}

	return database.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "executor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"hostname", "ip", "last_seen_at", "poll_count", "jobs_processed", "last_error", "offline_since",
		}),
	}).Create(&hb).Error
}

// List returns all known executors with their staleness state.
func List() ([]Status, error) {
	var rows []models.ExecutorHeartbeat
	if err := database.DB.Order("last_seen_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	statuses := make([]Status, 0, len(rows))
	for _, hb := range rows {
		statuses = append(statuses, Status{ExecutorHeartbeat: hb, State: hb.Staleness(now)})
	}
	return statuses, nil
}

// SweepOffline records executors that have gone offline since the last sweep
// and fires a notification once per transition.
func SweepOffline() {
	var rows []models.ExecutorHeartbeat
	if err := database.DB.Where("offline_since IS NULL").Find(&rows).Error; err != nil {
		logrus.WithError(err).Warn("executor sweep failed")
		return
	}

	now := time.Now().UTC()
	for _, hb := range rows {
		if hb.Staleness(now) != models.ExecutorOffline {
			continue
		}

		if err := database.DB.Model(&models.ExecutorHeartbeat{}).
			Where("executor_id = ? AND offline_since IS NULL", hb.ExecutorID).
			Update("offline_since", now).Error; err != nil {
			logrus.WithError(err).WithField("executor_id", hb.ExecutorID).Warn("failed to mark executor offline")
			continue
		}

		logrus.WithFields(logrus.Fields{
			"executor_id": hb.ExecutorID,
			"last_seen":   hb.LastSeenAt,
		}).Warn("executor went offline")

		notify.Dispatch(notify.Event{
			Type:    notify.EventExecutorOffline,
			Message: "Executor " + hb.ExecutorID + " on " + hb.Hostname + " stopped sending heartbeats",
		})
	}
}
