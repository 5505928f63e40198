package models

import (
	"time"

	"gorm.io/gorm"
)

// Server is a physical rack server tracked in the inventory. Power state and
// firmware fields are refreshed by executor jobs, not by the panel.
type Server struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Hostname        string         `gorm:"uniqueIndex;size:255;not null" json:"hostname"`
	IdracAddress    string         `gorm:"size:45" json:"idrac_address"`
	Model           string         `gorm:"size:100" json:"model"`
	ServiceTag      string         `gorm:"size:50;index" json:"service_tag"`
	ClusterID       *uint          `gorm:"index" json:"cluster_id"`
	RackLocation    string         `gorm:"size:50" json:"rack_location"`
	PowerState      string         `gorm:"size:20" json:"power_state"` // on, off, unknown
	FirmwareVersion string         `gorm:"size:50" json:"firmware_version"`
	LastSyncedAt    *time.Time     `json:"last_synced_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// Cluster is a vCenter cluster whose health counters are written back by
// cluster_sync jobs.
type Cluster struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"uniqueIndex;size:255;not null" json:"name"`
	VcenterHost  string         `gorm:"size:255" json:"vcenter_host"`
	HostCount    int            `json:"host_count"`
	VMCount      int            `json:"vm_count"`
	Health       string         `gorm:"size:20" json:"health"` // green, yellow, red, unknown
	LastSyncedAt *time.Time     `json:"last_synced_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// PDU is a power distribution unit reachable over its management API.
type PDU struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Address   string         `gorm:"size:45;not null" json:"address"`
	Model     string         `gorm:"size:100" json:"model"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PDUOutlet maps a single outlet to the server it feeds. Outlet state is
// owned by power_control jobs.
type PDUOutlet struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PDUID     uint      `gorm:"not null;index" json:"pdu_id"`
	Outlet    int       `gorm:"not null" json:"outlet"`
	ServerID  *uint     `gorm:"index" json:"server_id"`
	State     string    `gorm:"size:20" json:"state"` // on, off, unknown
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
