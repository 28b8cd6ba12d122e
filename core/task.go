package core

import (
	"encoding/json"
	"time"
)

// TaskStatus is the task state machine. Transitions are monotonic except
// failed -> pending on retry.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// TaskError is the structured failure recorded on a Task when it fails.
type TaskError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *TaskError) Error() string { return e.Message }

// Task is a unit of work submitted to the Coordinator's queue. Payload and
// Result stay as raw JSON so the queue never needs to know an agent's
// concrete request/response types.
type Task struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	AgentName   string          `json:"agent_name"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Priority    int             `json:"priority"`
	Status      TaskStatus      `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Retries     int             `json:"retries"`
	MaxRetries  int             `json:"max_retries"`
	Result      json.RawMessage `json:"result,omitempty"`
	Err         *TaskError      `json:"error,omitempty"`
}

// Retryable reports whether the task may be resubmitted after a failure.
func (t *Task) Retryable() bool {
	return t.Status == TaskStatusFailed && t.Retries < t.MaxRetries
}

// ResetForRetry clears transient execution fields and moves the task back
// to pending, incrementing the retry count. Callers must hold whatever
// lock guards the owning queue.
func (t *Task) ResetForRetry() {
	t.Retries++
	t.Status = TaskStatusPending
	t.StartedAt = nil
	t.CompletedAt = nil
	t.Result = nil
	t.Err = nil
}
