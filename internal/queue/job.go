package queue

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const (
	StatusWaiting   = "waiting"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Job is one durable task. A job is visible to consumers once it is waiting and run_at has passed.
type Job struct {
	ID          string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Topic       string         `gorm:"size:64;not null;index:idx_jobs_claim,priority:1" json:"topic"`
	Payload     datatypes.JSON `gorm:"type:text;not null" json:"payload"`
	Status      string         `gorm:"size:20;not null;index:idx_jobs_claim,priority:2" json:"status"`
	Attempts    int            `gorm:"not null;default:0" json:"attempts"`
	MaxAttempts int            `gorm:"not null" json:"max_attempts"`
	RunAt       time.Time      `gorm:"not null;index:idx_jobs_claim,priority:3" json:"run_at"`
	LockedAt    *time.Time     `gorm:"index" json:"locked_at"`
	LockedBy    *string        `gorm:"size:128" json:"locked_by"`
	LastError   *string        `gorm:"type:text" json:"last_error"`
	CompletedAt *time.Time     `json:"completed_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

// Decode unmarshals the job payload into v.
func (j *Job) Decode(v any) error {
	return json.Unmarshal(j.Payload, v)
}

// Counts is a snapshot of one topic. Delayed jobs are waiting jobs whose run_at is in the future.
type Counts struct {
	Waiting   int64 `json:"waiting"`
	Delayed   int64 `json:"delayed"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}
