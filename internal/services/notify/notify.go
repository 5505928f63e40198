package notify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"dc-panel/internal/database"
	"dc-panel/internal/models"
)

// Event types
const (
	EventJobCompleted    = "job_completed"
	EventJobFailed       = "job_failed"
	EventJobCancelled    = "job_cancelled"
	EventExecutorOffline = "executor_offline"
	EventMaintenanceDue  = "maintenance_due"
	EventTest            = "test"
)

// Event is the webhook payload.
type Event struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

var client = &http.Client{Timeout: 10 * time.Second}

// Settings returns the singleton notification configuration, creating the
// default row on first access.
func Settings() (*models.NotificationSettings, error) {
	var s models.NotificationSettings
	if err := database.DB.Where("id = ?", 1).FirstOrCreate(&s, models.NotificationSettings{ID: 1}).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func wanted(s *models.NotificationSettings, eventType string) bool {
	switch eventType {
	case EventJobCompleted:
		return s.NotifyJobDone
	case EventJobFailed, EventJobCancelled:
		return s.NotifyJobFailed
	case EventExecutorOffline:
		return s.NotifyExecutorDown
	default:
		return true
	}
}

// Dispatch posts the event to the configured webhook. Failures are logged
// and dropped; there is no retry at this layer.
func Dispatch(event Event) {
	s, err := Settings()
	if err != nil {
		logrus.WithError(err).Warn("notify: failed to load settings")
		return
	}
	if !s.Enabled || s.WebhookURL == "" || !wanted(s, event.Type) {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Warn("notify: failed to encode event")
		return
	}

	resp, err := client.Post(s.WebhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		logrus.WithError(err).WithField("type", event.Type).Warn("notify: webhook delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		logrus.WithFields(logrus.Fields{
			"type":   event.Type,
			"status": resp.StatusCode,
		}).Warn("notify: webhook rejected event")
	}
}
