package models

import (
	"time"

	"gorm.io/gorm"
)

// MaintenanceWindow is a scheduled maintenance slot for a set of servers.
// TargetServers is a comma-separated list of server ids; empty means
// site-wide.
type MaintenanceWindow struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Title         string         `gorm:"size:255;not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	StartsAt      time.Time      `gorm:"index;not null" json:"starts_at"`
	EndsAt        time.Time      `gorm:"not null" json:"ends_at"`
	TargetServers string         `gorm:"type:text" json:"target_servers"`
	NotifiedAt    *time.Time     `json:"notified_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// SSHKey is a named public key pushed to managed hosts by executor jobs.
// Rotation is create-new then revoke-old; revoked keys are kept for audit.
type SSHKey struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"uniqueIndex;size:100;not null" json:"name"`
	PublicKey   string         `gorm:"type:text;not null" json:"public_key"`
	Fingerprint string         `gorm:"size:100;index" json:"fingerprint"`
	Comment     string         `gorm:"size:255" json:"comment"`
	RevokedAt   *time.Time     `json:"revoked_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// NotificationSettings is the single-row webhook configuration.
type NotificationSettings struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Enabled            bool      `gorm:"default:false" json:"enabled"`
	WebhookURL         string    `gorm:"size:500" json:"webhook_url"`
	NotifyJobFailed    bool      `gorm:"default:true" json:"notify_job_failed"`
	NotifyJobDone      bool      `gorm:"default:false" json:"notify_job_done"`
	NotifyExecutorDown bool      `gorm:"default:true" json:"notify_executor_down"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (NotificationSettings) TableName() string {
	return "notification_settings"
}
