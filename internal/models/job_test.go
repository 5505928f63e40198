package models

import (
	"testing"

	"gorm.io/datatypes"
)

func TestGracefulCancelSupported(t *testing.T) {
	supported := []string{
		JobTypeRollingUpdate,
		JobTypePrepareHostUpdate,
		JobTypeClusterSafetyCheck,
		JobTypeServerGroupSafetyCheck,
	}
	for _, jt := range supported {
		if !GracefulCancelSupported(jt) {
			t.Errorf("expected %s to support graceful cancel", jt)
		}
	}

	unsupported := []string{JobTypeDiscovery, JobTypeClusterSync, JobTypePowerControl, JobTypeFirmwareUpdate, "bogus"}
	for _, jt := range unsupported {
		if GracefulCancelSupported(jt) {
			t.Errorf("expected %s to reject graceful cancel", jt)
		}
	}
}

func TestFirmwareFlashInProgress(t *testing.T) {
	cases := []struct {
		name    string
		details datatypes.JSONMap
		want    bool
	}{
		{"no details", nil, false},
		{"unrelated step", datatypes.JSONMap{DetailCurrentStep: "evacuating VMs from host-3"}, false},
		{"firmware in step", datatypes.JSONMap{DetailCurrentStep: "flashing firmware on host-3"}, true},
		{"firmware uppercase", datatypes.JSONMap{DetailCurrentStep: "FIRMWARE update 2/4"}, true},
		{"firmware phase", datatypes.JSONMap{DetailPhase: "firmware_updates"}, true},
		{"other phase", datatypes.JSONMap{DetailPhase: "health_checks"}, false},
	}

	for _, tc := range cases {
		job := Job{Details: tc.details}
		if got := job.FirmwareFlashInProgress(); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestGracefulCancelRequested(t *testing.T) {
	cases := []struct {
		name    string
		details datatypes.JSONMap
		want    bool
	}{
		{"no details", nil, false},
		{"missing key", datatypes.JSONMap{DetailCurrentStep: "step"}, false},
		{"bool true", datatypes.JSONMap{DetailGracefulCancel: true}, true},
		{"bool false", datatypes.JSONMap{DetailGracefulCancel: false}, false},
		{"numeric true", datatypes.JSONMap{DetailGracefulCancel: float64(1)}, true},
		{"numeric false", datatypes.JSONMap{DetailGracefulCancel: float64(0)}, false},
	}

	for _, tc := range cases {
		job := Job{Details: tc.details}
		if got := job.GracefulCancelRequested(); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
