package retention

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"dc-panel/internal/models"
)

// BatchSize is the maximum number of log rows removed per delete statement.
// Bounding each statement keeps a huge backlog from hitting statement
// timeouts or holding locks that starve concurrent inserts from the
// executor.
const BatchSize = 5000

// Store is the narrow view of the log table the cleanup loop needs. Ids are
// selected first and deleted by id so batches never re-scan a moving cutoff
// window.
type Store interface {
	SelectExpired(cutoff time.Time, limit int) ([]uint, error)
	DeleteByIDs(ids []uint) (int64, error)
	CountExpired(cutoff time.Time) (int64, error)
}

// Options is a single cleanup invocation. A non-zero RetentionDays overrides
// the settings window and forces execution even when auto-cleanup is
// disabled.
type Options struct {
	Preview       bool
	RetentionDays int
}

// Result is the response contract of the cleanup entry point.
type Result struct {
	Success       bool   `json:"success"`
	Preview       bool   `json:"preview"`
	Deleted       *int64 `json:"deleted,omitempty"`
	Count         *int64 `json:"count,omitempty"`
	RetentionDays int    `json:"retentionDays"`
	CutoffDate    string `json:"cutoffDate"`

	// Skipped marks a run short-circuited by disabled auto-cleanup; the
	// caller must not stamp last_cleanup_at for a skipped run.
	Skipped bool `json:"-"`
}

// Drain removes expired rows batch by batch until a batch comes back short.
// Strictly sequential: one batch's delete completes before the next select.
// Pure over the store, so it is testable without a database.
func Drain(store Store, cutoff time.Time, batchSize int) (int64, error) {
	var total int64
	for {
		ids, err := store.SelectExpired(cutoff, batchSize)
		if err != nil {
			return total, err
		}
		if len(ids) == 0 {
			return total, nil
		}

		deleted, err := store.DeleteByIDs(ids)
		if err != nil {
			return total, err
		}
		total += deleted

		if len(ids) < batchSize {
			return total, nil
		}
	}
}

// Run executes one cleanup invocation against the given store. Settings are
// loaded by the caller and passed in, keeping the retention policy
// injectable. Rows strictly older than cutoff are eligible; a row exactly at
// the cutoff survives.
func Run(store Store, settings models.ActivitySettings, opts Options, now time.Time) (Result, error) {
	retentionDays := settings.LogRetentionDays
	forced := opts.RetentionDays > 0
	if forced {
		retentionDays = opts.RetentionDays
	}

	cutoff := now.AddDate(0, 0, -retentionDays)
	result := Result{
		Preview:       opts.Preview,
		RetentionDays: retentionDays,
		CutoffDate:    cutoff.UTC().Format(time.RFC3339),
	}

	log := logrus.WithFields(logrus.Fields{
		"retention_days": retentionDays,
		"cutoff":         result.CutoffDate,
		"batch_size":     BatchSize,
	})

	if opts.Preview {
		count, err := store.CountExpired(cutoff)
		if err != nil {
			return result, err
		}
		result.Success = true
		result.Count = &count
		log.WithField("count", count).Info("cleanup preview")
		return result, nil
	}

	if !settings.AutoCleanupEnabled && !forced {
		var zero int64
		result.Success = true
		result.Deleted = &zero
		result.Skipped = true
		log.Info("cleanup skipped: auto-cleanup disabled")
		return result, nil
	}

	deleted, err := Drain(store, cutoff, BatchSize)
	if err != nil {
		return result, err
	}

	result.Success = true
	result.Deleted = &deleted
	log.WithField("deleted", deleted).Info("cleanup finished")
	return result, nil
}

// LoadSettings returns the singleton activity settings row, creating the
// default on first access.
func LoadSettings(db *gorm.DB) (models.ActivitySettings, error) {
	var s models.ActivitySettings
	err := db.Where("id = ?", 1).FirstOrCreate(&s, models.ActivitySettings{ID: 1}).Error
	return s, err
}

// Execute is the convenience entry used by the HTTP handler and the
// scheduler: load settings, run, stamp last_cleanup_at on a non-preview,
// non-skipped success.
func Execute(db *gorm.DB, opts Options) (Result, error) {
	settings, err := LoadSettings(db)
	if err != nil {
		return Result{}, err
	}

	now := time.Now().UTC()
	result, err := Run(NewGormStore(db), settings, opts, now)
	if err != nil {
		return result, err
	}

	if !result.Preview && !result.Skipped {
		if err := db.Model(&models.ActivitySettings{}).Where("id = ?", settings.ID).
			Update("last_cleanup_at", now).Error; err != nil {
			return result, err
		}
	}

	return result, nil
}
