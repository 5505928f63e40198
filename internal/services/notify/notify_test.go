package notify

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
	require.NoError(t, db.AutoMigrate(&models.NotificationSettings{}))

	database.DB = db
	return db
}

func countingWebhook(t *testing.T) (*httptest.Server, func() int) {
	t.Helper()

	var mu sync.Mutex
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	return server, func() int {
		mu.Lock()
		defer mu.Unlock()
		return hits
	}
}

func TestDispatchHonorsEventToggles(t *testing.T) {
	db := setupTestDB(t)
	webhook, hits := countingWebhook(t)

	require.NoError(t, db.Create(&models.NotificationSettings{
		ID:         1,
		Enabled:    true,
		WebhookURL: webhook.URL,
	}).Error)
	// Create swallows zero values for columns with a true default, so force
	// the toggle off explicitly.
	require.NoError(t, db.Model(&models.NotificationSettings{}).
		Where("id = ?", 1).Update("notify_job_done", false).Error)

	Dispatch(Event{Type: EventJobCompleted, Message: "done"})
	assert.Equal(t, 0, hits(), "job_completed is gated by notify_job_done")

	Dispatch(Event{Type: EventJobFailed, Message: "failed"})
	assert.Equal(t, 1, hits())

	Dispatch(Event{Type: EventJobCancelled, Message: "cancelled"})
	assert.Equal(t, 2, hits(), "cancellations ride the failure toggle")

	Dispatch(Event{Type: EventExecutorOffline, Message: "gone"})
	assert.Equal(t, 3, hits())
}

func TestDispatchDisabledIsSilent(t *testing.T) {
	db := setupTestDB(t)
	webhook, hits := countingWebhook(t)

	require.NoError(t, db.Create(&models.NotificationSettings{
		ID:         1,
		WebhookURL: webhook.URL,
	}).Error)

	Dispatch(Event{Type: EventTest, Message: "ping"})
	assert.Equal(t, 0, hits())
}
