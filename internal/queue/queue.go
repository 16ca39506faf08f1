package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"payflow/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrEmpty is returned by Claim when no job is available.
var ErrEmpty = errors.New("queue: no job available")

var ErrJobNotFound = errors.New("queue: job not found")

// ErrLostClaim is returned when a job's claim was reclaimed and handed to another worker before
// its owner reported back.
var ErrLostClaim = errors.New("queue: claim no longer held")

// Queue is a durable, table-backed task queue. Delivery is at-least-once: a job claimed by a
// worker that dies is handed out again by ReclaimStale.
type Queue struct {
	db           *gorm.DB
	log          logrus.FieldLogger
	pollInterval time.Duration
	maxAttempts  int
	retryDelay   time.Duration
	now          func() time.Time
}

type Option func(*Queue)

// WithClock replaces the wall clock. Tests use it to move time forward.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

func New(db *gorm.DB, log logrus.FieldLogger, cfg config.QueueConfig, opts ...Option) *Queue {
	q := &Queue{
		db:           db,
		log:          log.WithField("component", "queue"),
		pollInterval: cfg.PollInterval,
		maxAttempts:  cfg.MaxAttempts,
		retryDelay:   cfg.RetryDelay,
		now:          func() time.Time { return time.Now().UTC() },
	}
	if q.pollInterval <= 0 {
		q.pollInterval = 500 * time.Millisecond
	}
	if q.maxAttempts <= 0 {
		q.maxAttempts = 1
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Now returns the queue's clock reading.
func (q *Queue) Now() time.Time {
	return q.now()
}

type enqueueOptions struct {
	delay time.Duration
	tx    *gorm.DB
}

type EnqueueOption func(*enqueueOptions)

// WithDelay keeps the job invisible until now+d.
func WithDelay(d time.Duration) EnqueueOption {
	return func(o *enqueueOptions) { o.delay = d }
}

// WithTx writes the job through tx so it commits or rolls back with the caller's state change.
func WithTx(tx *gorm.DB) EnqueueOption {
	return func(o *enqueueOptions) { o.tx = tx }
}

// Enqueue persists a job before returning. payload is JSON-encoded unless it already is raw JSON.
func (q *Queue) Enqueue(ctx context.Context, topic string, payload any, opts ...EnqueueOption) (*Job, error) {
	var o enqueueOptions
	for _, opt := range opts {
		opt(&o)
	}
	var body []byte
	switch p := payload.(type) {
	case json.RawMessage:
		body = p
	case []byte:
		body = p
	default:
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", topic, err)
		}
	}
	if o.delay < 0 {
		o.delay = 0
	}
	now := q.now()
	job := &Job{
		ID:          uuid.NewString(),
		Topic:       topic,
		Payload:     datatypes.JSON(body),
		Status:      StatusWaiting,
		MaxAttempts: q.maxAttempts,
		RunAt:       now.Add(o.delay),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	db := q.db
	if o.tx != nil {
		db = o.tx
	}
	if err := db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", topic, err)
	}
	return job, nil
}

// Claim hands the oldest visible job of topic to workerID. It returns ErrEmpty when there is
// nothing to do or another worker won the race for the row.
func (q *Queue) Claim(ctx context.Context, topic, workerID string) (*Job, error) {
	now := q.now()
	var job Job
	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("topic = ? AND status = ? AND run_at <= ?", topic, StatusWaiting, now).
			Order("run_at ASC").
			Take(&job).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEmpty
		}
		if err != nil {
			return err
		}
		res := tx.Model(&Job{}).
			Where("id = ? AND status = ?", job.ID, StatusWaiting).
			Updates(map[string]interface{}{
				"status":     StatusActive,
				"attempts":   gorm.Expr("attempts + 1"),
				"locked_at":  now,
				"locked_by":  workerID,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrEmpty
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	job.Status = StatusActive
	job.Attempts++
	job.LockedAt = &now
	job.LockedBy = &workerID
	return &job, nil
}

// Consume blocks until a job of topic is claimed or ctx is done.
func (q *Queue) Consume(ctx context.Context, topic, workerID string) (*Job, error) {
	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()
	for {
		job, err := q.Claim(ctx, topic, workerID)
		if err == nil {
			return job, nil
		}
		if !errors.Is(err, ErrEmpty) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			q.log.WithFields(logrus.Fields{"topic": topic, "worker": workerID}).WithError(err).Error("claim failed")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// owned scopes an update to the claim job still holds.
func (q *Queue) owned(ctx context.Context, job *Job) *gorm.DB {
	owner := ""
	if job.LockedBy != nil {
		owner = *job.LockedBy
	}
	return q.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ? AND locked_by = ?", job.ID, StatusActive, owner)
}

// Complete marks an active job done.
func (q *Queue) Complete(ctx context.Context, job *Job) error {
	now := q.now()
	res := q.owned(ctx, job).
		Updates(map[string]interface{}{
			"status":       StatusCompleted,
			"completed_at": now,
			"locked_at":    nil,
			"locked_by":    nil,
			"updated_at":   now,
		})
	if res.Error != nil {
		return fmt.Errorf("complete job %s: %w", job.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrLostClaim
	}
	job.Status = StatusCompleted
	job.CompletedAt = &now
	return nil
}

// Fail records cause. The job is retried after attempts*retryDelay until max_attempts is reached,
// then it is parked as failed.
func (q *Queue) Fail(ctx context.Context, job *Job, cause error) error {
	now := q.now()
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	updates := map[string]interface{}{
		"last_error": msg,
		"locked_at":  nil,
		"locked_by":  nil,
		"updated_at": now,
	}
	status := StatusWaiting
	if job.Attempts >= job.MaxAttempts {
		status = StatusFailed
	} else {
		updates["run_at"] = now.Add(time.Duration(job.Attempts) * q.retryDelay)
	}
	updates["status"] = status
	res := q.owned(ctx, job).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("fail job %s: %w", job.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrLostClaim
	}
	job.Status = status
	job.LastError = &msg
	return nil
}

// Release returns an active job to the queue without spending an attempt. Used on shutdown.
func (q *Queue) Release(ctx context.Context, job *Job) error {
	now := q.now()
	res := q.owned(ctx, job).
		Updates(map[string]interface{}{
			"status":     StatusWaiting,
			"attempts":   gorm.Expr("attempts - 1"),
			"run_at":     now,
			"locked_at":  nil,
			"locked_by":  nil,
			"updated_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("release job %s: %w", job.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrLostClaim
	}
	job.Status = StatusWaiting
	return nil
}

// ReclaimStale returns jobs that have been active for longer than visibility to the waiting
// state, or parks them as failed once their attempts are used up.
func (q *Queue) ReclaimStale(ctx context.Context, visibility time.Duration) (int64, error) {
	now := q.now()
	cutoff := now.Add(-visibility)
	var reclaimed int64
	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Job{}).
			Where("status = ? AND locked_at < ? AND attempts >= max_attempts", StatusActive, cutoff).
			Updates(map[string]interface{}{
				"status":     StatusFailed,
				"last_error": "visibility timeout exceeded",
				"locked_at":  nil,
				"locked_by":  nil,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		res = tx.Model(&Job{}).
			Where("status = ? AND locked_at < ?", StatusActive, cutoff).
			Updates(map[string]interface{}{
				"status":     StatusWaiting,
				"run_at":     now,
				"locked_at":  nil,
				"locked_by":  nil,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		reclaimed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	return reclaimed, nil
}

// Retry puts a failed job back in line with a fresh attempt budget.
func (q *Queue) Retry(ctx context.Context, jobID string) error {
	now := q.now()
	res := q.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", jobID, StatusFailed).
		Updates(map[string]interface{}{
			"status":     StatusWaiting,
			"attempts":   0,
			"run_at":     now,
			"updated_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("retry job %s: %w", jobID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (q *Queue) Get(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	err := q.db.WithContext(ctx).Where("id = ?", jobID).Take(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// List returns jobs of topic, newest first. An empty status matches all.
func (q *Queue) List(ctx context.Context, topic, status string, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 20
	}
	tx := q.db.WithContext(ctx).Where("topic = ?", topic)
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	var jobs []Job
	err := tx.Order("created_at DESC").Limit(limit).Find(&jobs).Error
	return jobs, err
}

func (q *Queue) Counts(ctx context.Context, topic string) (Counts, error) {
	var rows []struct {
		Status string
		N      int64
	}
	var c Counts
	err := q.db.WithContext(ctx).Model(&Job{}).
		Select("status, COUNT(*) AS n").
		Where("topic = ?", topic).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return c, fmt.Errorf("count %s jobs: %w", topic, err)
	}
	for _, r := range rows {
		switch r.Status {
		case StatusWaiting:
			c.Waiting = r.N
		case StatusActive:
			c.Active = r.N
		case StatusCompleted:
			c.Completed = r.N
		case StatusFailed:
			c.Failed = r.N
		}
	}
	err = q.db.WithContext(ctx).Model(&Job{}).
		Where("topic = ? AND status = ? AND run_at > ?", topic, StatusWaiting, q.now()).
		Count(&c.Delayed).Error
	if err != nil {
		return c, fmt.Errorf("count delayed %s jobs: %w", topic, err)
	}
	c.Waiting -= c.Delayed
	return c, nil
}

// Ping reports whether the job table is reachable.
func (q *Queue) Ping(ctx context.Context) error {
	var n int64
	return q.db.WithContext(ctx).Model(&Job{}).Limit(1).Count(&n).Error
}
