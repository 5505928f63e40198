package models

import (
	"time"
)

// ExecutorHeartbeat is the most-recent liveness record per executor process.
// Written exclusively by the external executor via the ingest endpoint;
// read-only everywhere else in the panel.
type ExecutorHeartbeat struct {
	ExecutorID    string     `gorm:"primaryKey;size:64" json:"executor_id"`
	Hostname      string     `gorm:"size:255" json:"hostname"`
	IP            string     `gorm:"size:45" json:"ip"`
	LastSeenAt    time.Time  `gorm:"index;not null" json:"last_seen_at"`
	PollCount     int64      `json:"poll_count"`
	JobsProcessed int64      `json:"jobs_processed"`
	LastError     string     `gorm:"type:text" json:"last_error,omitempty"`
	OfflineSince  *time.Time `json:"offline_since,omitempty"`
}

func (ExecutorHeartbeat) TableName() string {
	return "executor_heartbeats"
}

// Executor staleness states, classified purely from heartbeat age.
const (
	ExecutorOnline  = "online"
	ExecutorIdle    = "idle"
	ExecutorOffline = "offline"
)

const (
	executorOnlineWindow = 30 * time.Second
	executorIdleWindow   = 120 * time.Second
)

// Staleness classifies the heartbeat at the given instant: under 30s online,
// under 120s idle, otherwise offline.
func (h *ExecutorHeartbeat) Staleness(now time.Time) string {
	age := now.Sub(h.LastSeenAt)
	switch {
	case age < executorOnlineWindow:
		return ExecutorOnline
	case age < executorIdleWindow:
		return ExecutorIdle
	default:
		return ExecutorOffline
	}
}
