package models

import (
	"time"
)

// CommandLog is an append-only record of an API call. Rows are written once
// by the activity-log middleware (or the executor, through the ingest API),
// never updated, and deleted only by the retention cleanup.
type CommandLog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Timestamp       time.Time `gorm:"index;not null" json:"timestamp"`
	UserID          uint      `gorm:"index" json:"user_id"`
	Action          string    `gorm:"size:100;not null" json:"action"`
	Method          string    `gorm:"size:10" json:"method"`
	Path            string    `gorm:"size:255" json:"path"`
	Success         bool      `json:"success"`
	DurationMs      int64     `json:"duration_ms"`
	ErrorMessage    string    `gorm:"type:text" json:"error_message,omitempty"`
	RequestPayload  string    `gorm:"type:text" json:"request_payload,omitempty"`
	ResponsePayload string    `gorm:"type:text" json:"response_payload,omitempty"`
	IP              string    `gorm:"size:45" json:"ip"`
}

func (CommandLog) TableName() string {
	return "command_logs"
}

// ActivitySettings is the single-row retention configuration. It is loaded
// by the caller and handed to the cleanup service, never fetched inside it.
type ActivitySettings struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	AutoCleanupEnabled bool       `gorm:"default:true" json:"auto_cleanup_enabled"`
	LogRetentionDays   int        `gorm:"default:30" json:"log_retention_days"`
	LastCleanupAt      *time.Time `json:"last_cleanup_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (ActivitySettings) TableName() string {
	return "activity_settings"
}
