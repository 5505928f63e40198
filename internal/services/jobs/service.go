package jobs

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"dc-panel/internal/database"
	"dc-panel/internal/models"
	"dc-panel/internal/services/notify"
)

// Cancellation modes
const (
	ModeGraceful = "graceful"
	ModeForce    = "force"
)

var (
	ErrGracefulNotSupported = errors.New("job type does not support graceful cancellation")
	ErrJobFinished          = errors.New("job already reached a terminal state")
	ErrUnknownMode          = errors.New("unknown cancellation mode")
)

// ListOptions filters the jobs list.
type ListOptions struct {
	Status   string
	JobType  string
	TopLevel bool
	Page     int
	PageSize int
}

// Enqueue creates a pending job row for the external executor to pick up.
// The panel never executes anything itself.
func Enqueue(jobType string, targetScope, details map[string]interface{}) (*models.Job, error) {
	if details == nil {
		details = map[string]interface{}{}
	}
	job := &models.Job{
		ID:          uuid.NewString(),
		JobType:     jobType,
		Status:      models.JobStatusPending,
		Details:     datatypes.JSONMap(details),
		TargetScope: datatypes.JSONMap(targetScope),
	}

	if err := database.DB.Create(job).Error; err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"job_type": job.JobType,
	}).Info("job enqueued")

	return job, nil
}

// EnqueueSub creates a sub-job linked to a parent.
func EnqueueSub(parentID, jobType string, targetScope, details map[string]interface{}) (*models.Job, error) {
	job, err := Enqueue(jobType, targetScope, details)
	if err != nil {
		return nil, err
	}
	if err := database.DB.Model(job).Update("parent_job_id", parentID).Error; err != nil {
		return nil, err
	}
	job.ParentJobID = &parentID
	return job, nil
}

// Get returns a single job by id.
func Get(id string) (*models.Job, error) {
	var job models.Job
	if err := database.DB.First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// SubJobs returns the children of a job, oldest first.
func SubJobs(parentID string) ([]models.Job, error) {
	var subs []models.Job
	err := database.DB.Where("parent_job_id = ?", parentID).Order("created_at asc").Find(&subs).Error
	return subs, err
}

// List returns a page of jobs plus the total matching count.
func List(opts ListOptions) ([]models.Job, int64, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 || opts.PageSize > 100 {
		opts.PageSize = 20
	}

	query := database.DB.Model(&models.Job{})
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}
	if opts.JobType != "" {
		query = query.Where("job_type = ?", opts.JobType)
	}
	if opts.TopLevel {
		query = query.Where("parent_job_id IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []models.Job
	offset := (opts.Page - 1) * opts.PageSize
	if err := query.Order("created_at desc").Offset(offset).Limit(opts.PageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

// CancelOptions describes what the cancel dialog may offer for a job.
type CancelOptions struct {
	GracefulAllowed  bool `json:"graceful_allowed"`
	AlreadySignalled bool `json:"already_signalled"`
	FirmwareWarning  bool `json:"firmware_warning"`
}

// OptionsFor computes the cancel dialog state for a job.
func OptionsFor(job *models.Job) CancelOptions {
	return CancelOptions{
		GracefulAllowed:  models.GracefulCancelSupported(job.JobType),
		AlreadySignalled: job.GracefulCancelRequested(),
		FirmwareWarning:  job.FirmwareFlashInProgress(),
	}
}

// RequestCancel writes cancellation intent into a job row.
//
// Graceful mode is a signal, not a state transition: it sets exactly the
// graceful_cancel and graceful_cancel_requested_at keys inside details via a
// targeted JSON_SET, leaving status and every executor-owned key untouched.
// The executor observes the flag between steps and performs the terminal
// transition itself.
//
// Force mode is the terminal transition: status becomes cancelled and
// completed_at is stamped, once. Calling force on a job that is already
// terminal is a no-op success.
func RequestCancel(id, mode string) error {
	job, err := Get(id)
	if err != nil {
		return err
	}

	switch mode {
	case ModeGraceful:
		return requestGracefulCancel(job)
	case ModeForce:
		return forceCancel(job)
	default:
		return ErrUnknownMode
	}
}

func requestGracefulCancel(job *models.Job) error {
	if !models.GracefulCancelSupported(job.JobType) {
		return ErrGracefulNotSupported
	}
	if job.Terminal() {
		return ErrJobFinished
	}

	requestedAt := time.Now().UTC().Format(time.RFC3339)

	// Targeted partial update: json_set touches only the two cancellation
	// keys, so a concurrent executor progress write to other keys is never
	// lost. json_set on NULL yields NULL, so seed the column when the
	// executor has not written any details yet.
	var err error
	if len(job.Details) == 0 {
		err = database.DB.Model(&models.Job{}).Where("id = ?", job.ID).
			UpdateColumn("details", datatypes.JSONMap{
				models.DetailGracefulCancel:            true,
				models.DetailGracefulCancelRequestedAt: requestedAt,
			}).Error
	} else {
		err = database.DB.Model(&models.Job{}).Where("id = ?", job.ID).
			UpdateColumn("details", gorm.Expr(
				"json_set(details, '$."+models.DetailGracefulCancel+"', json('true'), '$."+models.DetailGracefulCancelRequestedAt+"', ?)",
				requestedAt)).Error
	}
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"job_type": job.JobType,
	}).Info("graceful cancel signalled")

	return nil
}

func forceCancel(job *models.Job) error {
	// Idempotent on terminal states: never error, never move completed_at.
	if job.Terminal() {
		return nil
	}

	// notified_at is stamped here because the dispatch below already covers
	// this transition; the notification sweep must not fire a second event.
	now := time.Now().UTC()
	err := database.DB.Model(&models.Job{}).
		Where("id = ? AND completed_at IS NULL", job.ID).
		Updates(map[string]interface{}{
			"status":       models.JobStatusCancelled,
			"completed_at": now,
			"notified_at":  now,
		}).Error
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"job_type": job.JobType,
	}).Warn("job force-cancelled")

	go notify.Dispatch(notify.Event{
		Type:    notify.EventJobCancelled,
		Message: "Job " + job.ID + " (" + job.JobType + ") was force-cancelled",
	})

	return nil
}

// SweepTerminalNotifications fires the webhook event for jobs the executor
// moved to a terminal state since the last sweep. The notified_at marker
// makes each transition fire exactly once, same as the executor offline
// sweep.
func SweepTerminalNotifications() {
	var terminal []models.Job
	err := database.DB.
		Where("status IN ? AND notified_at IS NULL",
			[]string{models.JobStatusCompleted, models.JobStatusFailed, models.JobStatusCancelled}).
		Find(&terminal).Error
	if err != nil {
		logrus.WithError(err).Warn("job notification sweep failed")
		return
	}

	now := time.Now().UTC()
	for _, job := range terminal {
		res := database.DB.Model(&models.Job{}).
			Where("id = ? AND notified_at IS NULL", job.ID).
			Update("notified_at", now)
		if res.Error != nil {
			logrus.WithError(res.Error).WithField("job_id", job.ID).Warn("failed to mark job notified")
			continue
		}
		if res.RowsAffected == 0 {
			continue
		}

		var eventType string
		switch job.Status {
		case models.JobStatusCompleted:
			eventType = notify.EventJobCompleted
		case models.JobStatusFailed:
			eventType = notify.EventJobFailed
		default:
			eventType = notify.EventJobCancelled
		}

		notify.Dispatch(notify.Event{
			Type:    eventType,
			Message: "Job " + job.ID + " (" + job.JobType + ") " + job.Status,
			Data: map[string]interface{}{
				"job_id":   job.ID,
				"job_type": job.JobType,
				"status":   job.Status,
			},
		})
	}
}
