package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Job is a unit of asynchronous work executed by the external job executor.
// The panel only creates rows and writes cancellation intent; the executor
// owns status/progress transitions and every other key inside Details.
type Job struct {
	ID          string            `gorm:"primaryKey;size:36" json:"id"`
	JobType     string            `gorm:"size:50;not null;index" json:"job_type"`
	Status      string            `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Details     datatypes.JSONMap `gorm:"type:json" json:"details"`
	TargetScope datatypes.JSONMap `gorm:"type:json" json:"target_scope"`
	ParentJobID *string           `gorm:"size:36;index" json:"parent_job_id"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at"`

	// NotifiedAt marks that the terminal-transition webhook for this job
	// has fired. Panel-internal, never exposed to the executor or the UI.
	NotifiedAt *time.Time `gorm:"index" json:"-"`
}

// Job status constants. Transitions are monotonic: a job never returns to
// pending, and completed_at is set exactly once, on entering a terminal state.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// Job type constants
const (
	JobTypeRollingUpdate          = "rolling_update"
	JobTypePrepareHostUpdate      = "prepare_host_update"
	JobTypeClusterSafetyCheck     = "cluster_safety_check"
	JobTypeServerGroupSafetyCheck = "server_group_safety_check"
	JobTypeDiscovery              = "discovery"
	JobTypeClusterSync            = "cluster_sync"
	JobTypePowerControl           = "power_control"
	JobTypeFirmwareUpdate         = "firmware_update"
)

// Reserved keys inside Details. The panel only ever writes the two
// cancellation keys; current_step and phase are written by the executor and
// read here for the firmware-flash warning.
const (
	DetailGracefulCancel            = "graceful_cancel"
	DetailGracefulCancelRequestedAt = "graceful_cancel_requested_at"
	DetailCurrentStep               = "current_step"
	DetailPhase                     = "phase"
)

// gracefulCancellable lists the job types whose executor checks the
// graceful_cancel flag between steps. Everything else only supports force.
var gracefulCancellable = map[string]bool{
	JobTypeRollingUpdate:          true,
	JobTypePrepareHostUpdate:      true,
	JobTypeClusterSafetyCheck:     true,
	JobTypeServerGroupSafetyCheck: true,
}

// GracefulCancelSupported reports whether jobType honors the cooperative
// cancellation flag.
func GracefulCancelSupported(jobType string) bool {
	return gracefulCancellable[jobType]
}

func (Job) TableName() string {
	return "jobs"
}

// Terminal reports whether the job has reached a final status.
func (j *Job) Terminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

func (j *Job) detailString(key string) string {
	if j.Details == nil {
		return ""
	}
	if v, ok := j.Details[key].(string); ok {
		return v
	}
	return ""
}

// CurrentStep returns the executor-reported step description, if any.
func (j *Job) CurrentStep() string {
	return j.detailString(DetailCurrentStep)
}

// Phase returns the executor-reported phase, if any.
func (j *Job) Phase() string {
	return j.detailString(DetailPhase)
}

// GracefulCancelRequested reports whether a graceful cancel has already been
// signalled on this job. The executor is free to echo the flag back as a
// JSON number, so both encodings count.
func (j *Job) GracefulCancelRequested() bool {
	if j.Details == nil {
		return false
	}
	switch v := j.Details[DetailGracefulCancel].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	}
	return false
}

// FirmwareFlashInProgress reports whether the executor is mid firmware flash.
// Interrupting a flash can leave hardware unbootable, so force cancel should
// warn first. Advisory only, never blocking.
func (j *Job) FirmwareFlashInProgress() bool {
	if strings.Contains(strings.ToLower(j.CurrentStep()), "firmware") {
		return true
	}
	return j.Phase() == "firmware_updates"
}
