package jobs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dc-panel/internal/database"
	"dc-panel/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Job{}, &models.NotificationSettings{}))

	database.DB = db
	return db
}

func createJob(t *testing.T, db *gorm.DB, job *models.Job) *models.Job {
	t.Helper()
	require.NoError(t, db.Create(job).Error)
	return job
}

func TestGracefulCancelPreservesDetails(t *testing.T) {
	db := setupTestDB(t)

	job := createJob(t, db, &models.Job{
		ID:      "job-1",
		JobType: models.JobTypeRollingUpdate,
		Status:  models.JobStatusRunning,
		Details: datatypes.JSONMap{
			"current_step": "evacuating host-1",
			"progress":     3,
			"total_hosts":  8,
		},
	})

	require.NoError(t, RequestCancel(job.ID, ModeGraceful))

	got, err := Get(job.ID)
	require.NoError(t, err)

	// Status is untouched: graceful cancel is a signal, not a transition.
	assert.Equal(t, models.JobStatusRunning, got.Status)
	assert.Nil(t, got.CompletedAt)

	// Executor-owned keys survive.
	assert.Equal(t, "evacuating host-1", got.Details["current_step"])
	assert.Equal(t, float64(3), got.Details["progress"])
	assert.Equal(t, float64(8), got.Details["total_hosts"])

	// And exactly the two cancellation keys were added.
	assert.Equal(t, true, got.Details[models.DetailGracefulCancel])
	requestedAt, ok := got.Details[models.DetailGracefulCancelRequestedAt].(string)
	require.True(t, ok, "graceful_cancel_requested_at should be a timestamp string")
	ts, err := time.Parse(time.RFC3339, requestedAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), ts, time.Minute)
	assert.True(t, got.GracefulCancelRequested())
}

func TestGracefulCancelSeedsEmptyDetails(t *testing.T) {
	db := setupTestDB(t)

	job := createJob(t, db, &models.Job{
		ID:      "job-2",
		JobType: models.JobTypeClusterSafetyCheck,
		Status:  models.JobStatusPending,
	})

	require.NoError(t, RequestCancel(job.ID, ModeGraceful))

	got, err := Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, got.Status)
	assert.True(t, got.GracefulCancelRequested())
}

func TestGracefulCancelRejectedForUnsupportedType(t *testing.T) {
	db := setupTestDB(t)

	job := createJob(t, db, &models.Job{
		ID:      "job-3",
		JobType: models.JobTypeDiscovery,
		Status:  models.JobStatusRunning,
	})

	err := RequestCancel(job.ID, ModeGraceful)
	assert.ErrorIs(t, err, ErrGracefulNotSupported)

	got, err := Get(job.ID)
	require.NoError(t, err)
	assert.False(t, got.GracefulCancelRequested())
	assert.Equal(t, models.JobStatusRunning, got.Status)
}

func TestGracefulCancelRejectedOnTerminalJob(t *testing.T) {
	db := setupTestDB(t)

	now := time.Now().UTC()
	job := createJob(t, db, &models.Job{
		ID:          "job-4",
		JobType:     models.JobTypeRollingUpdate,
		Status:      models.JobStatusCompleted,
		CompletedAt: &now,
	})

	err := RequestCancel(job.ID, ModeGraceful)
	assert.ErrorIs(t, err, ErrJobFinished)
}

func TestForceCancelIsTerminalAndIdempotent(t *testing.T) {
	db := setupTestDB(t)

	job := createJob(t, db, &models.Job{
		ID:      "job-5",
		JobType: models.JobTypeFirmwareUpdate,
		Status:  models.JobStatusRunning,
		Details: datatypes.JSONMap{"current_step": "flashing BIOS"},
	})

	require.NoError(t, RequestCancel(job.ID, ModeForce))

	first, err := Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, first.Status)
	require.NotNil(t, first.CompletedAt)
	completedAt := *first.CompletedAt

	// Second force cancel: no error, completed_at untouched.
	require.NoError(t, RequestCancel(job.ID, ModeForce))

	second, err := Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, second.Status)
	require.NotNil(t, second.CompletedAt)
	assert.True(t, second.CompletedAt.Equal(completedAt), "completed_at must be set exactly once")
}

func TestForceCancelWorksForAnyJobType(t *testing.T) {
	db := setupTestDB(t)

	job := createJob(t, db, &models.Job{
		ID:      "job-6",
		JobType: models.JobTypeDiscovery,
		Status:  models.JobStatusPending,
	})

	require.NoError(t, RequestCancel(job.ID, ModeForce))

	got, err := Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, got.Status)
	assert.NotNil(t, got.CompletedAt)
}

func TestUnknownCancelMode(t *testing.T) {
	db := setupTestDB(t)

	job := createJob(t, db, &models.Job{
		ID:      "job-7",
		JobType: models.JobTypeRollingUpdate,
		Status:  models.JobStatusRunning,
	})

	assert.ErrorIs(t, RequestCancel(job.ID, "politely"), ErrUnknownMode)
}

func TestCancelOptions(t *testing.T) {
	setupTestDB(t)

	rolling := &models.Job{
		JobType: models.JobTypeRollingUpdate,
		Status:  models.JobStatusRunning,
		Details: datatypes.JSONMap{"phase": "firmware_updates"},
	}
	opts := OptionsFor(rolling)
	assert.True(t, opts.GracefulAllowed)
	assert.True(t, opts.FirmwareWarning)
	assert.False(t, opts.AlreadySignalled)

	discovery := &models.Job{
		JobType: models.JobTypeDiscovery,
		Status:  models.JobStatusRunning,
	}
	opts = OptionsFor(discovery)
	assert.False(t, opts.GracefulAllowed)
	assert.False(t, opts.FirmwareWarning)
}

func TestForceCancelMarksJobNotified(t *testing.T) {
	db := setupTestDB(t)

	job := createJob(t, db, &models.Job{
		ID:      "job-8",
		JobType: models.JobTypeDiscovery,
		Status:  models.JobStatusRunning,
	})

	require.NoError(t, RequestCancel(job.ID, ModeForce))

	got, err := Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, got.Status)
	assert.NotNil(t, got.NotifiedAt, "force cancel dispatches its own event, so the sweep must skip it")
}

func TestTerminalNotificationSweep(t *testing.T) {
	db := setupTestDB(t)

	var mu sync.Mutex
	var received []string
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		mu.Lock()
		received = append(received, event.Type)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer webhook.Close()

	require.NoError(t, db.Create(&models.NotificationSettings{
		ID:              1,
		Enabled:         true,
		WebhookURL:      webhook.URL,
		NotifyJobDone:   true,
		NotifyJobFailed: true,
	}).Error)

	done := time.Now().UTC()
	createJob(t, db, &models.Job{
		ID: "job-done", JobType: models.JobTypeClusterSync,
		Status: models.JobStatusCompleted, CompletedAt: &done,
	})
	createJob(t, db, &models.Job{
		ID: "job-bad", JobType: models.JobTypeRollingUpdate,
		Status: models.JobStatusFailed, CompletedAt: &done,
	})
	createJob(t, db, &models.Job{
		ID: "job-live", JobType: models.JobTypeDiscovery,
		Status: models.JobStatusRunning,
	})

	SweepTerminalNotifications()

	mu.Lock()
	assert.ElementsMatch(t, []string{"job_completed", "job_failed"}, received)
	mu.Unlock()

	live, err := Get("job-live")
	require.NoError(t, err)
	assert.Nil(t, live.NotifiedAt)

	// A second sweep finds nothing to announce.
	SweepTerminalNotifications()

	mu.Lock()
	assert.Len(t, received, 2, "each terminal transition fires exactly once")
	mu.Unlock()
}

func TestEnqueueAndList(t *testing.T) {
	setupTestDB(t)

	parent, err := Enqueue(models.JobTypeRollingUpdate, map[string]interface{}{"cluster_id": 1}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, parent.ID)
	assert.Equal(t, models.JobStatusPending, parent.Status)

	sub, err := EnqueueSub(parent.ID, models.JobTypePrepareHostUpdate, map[string]interface{}{"server_id": 7}, nil)
	require.NoError(t, err)
	require.NotNil(t, sub.ParentJobID)
	assert.Equal(t, parent.ID, *sub.ParentJobID)

	all, total, err := List(ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	top, total, err := List(ListOptions{TopLevel: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, top, 1)
	assert.Equal(t, parent.ID, top[0].ID)

	subs, err := SubJobs(parent.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, sub.ID, subs[0].ID)
}
