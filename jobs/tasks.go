package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionsPurge removes long-inactive session rows.
	TaskSessionsPurge = "sessions:purge"
	// TaskAuditTrim removes audit log rows older than the retention window.
	TaskAuditTrim = "audit:trim"
)

// SessionsPurgePayload configures a purge run.
type SessionsPurgePayload struct {
	Retention time.Duration `json:"retention"`
}

// AuditTrimPayload configures a trim run.
type AuditTrimPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewSessionsPurgeTask constructs an Asynq task.
func NewSessionsPurgeTask(payload SessionsPurgePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionsPurge, data), nil
}

// NewAuditTrimTask constructs an Asynq task.
func NewAuditTrimTask(payload AuditTrimPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditTrim, data), nil
}
