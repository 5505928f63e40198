package models

import (
	"testing"
	"time"
)

func TestHeartbeatStaleness(t *testing.T) {
	now := time.Now().UTC()

	cases := []struct {
		age  time.Duration
		want string
	}{
		{0, ExecutorOnline},
		{29 * time.Second, ExecutorOnline},
		{30 * time.Second, ExecutorIdle},
		{119 * time.Second, ExecutorIdle},
		{120 * time.Second, ExecutorOffline},
		{time.Hour, ExecutorOffline},
	}

	for _, tc := range cases {
		hb := ExecutorHeartbeat{LastSeenAt: now.Add(-tc.age)}
		if got := hb.Staleness(now); got != tc.want {
			t.Errorf("age %v: expected %s, got %s", tc.age, tc.want, got)
		}
	}
}
