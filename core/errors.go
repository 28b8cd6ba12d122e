package core

import (
	"errors"
	"fmt"
)

// Sentinel errors usable with errors.Is. These back the stable ToolResult
// error codes (see ToolError) without hard-coding string comparisons at
// every call site.
var (
	ErrAgentNotFound       = errors.New("agent not found")
	ErrAgentAlreadyExists  = errors.New("agent already registered")
	ErrToolNotFound        = errors.New("tool not found")
	ErrToolAlreadyExists   = errors.New("tool already registered")
	ErrInvalidParams       = errors.New("invalid parameters")
	ErrRateLimited         = errors.New("rate limited")
	ErrTimeout             = errors.New("operation timed out")
	ErrIndexNotReady       = errors.New("repository index not ready")
	ErrNotFound            = errors.New("not found")
	ErrTaskNotFound        = errors.New("task not found")
	ErrTaskAlreadyExists   = errors.New("task already enqueued")
	ErrTaskNotRetryable    = errors.New("task is not retryable")
	ErrQueueFull           = errors.New("task queue at capacity")
)

// Well-known ToolResult error codes (spec.md §7).
const (
	CodeToolNotFound       = "TOOL_NOT_FOUND"
	CodeInvalidParams      = "INVALID_PARAMS"
	CodeRateLimited        = "429"
	CodeToolExecutionError = "TOOL_EXECUTION_ERROR"
	CodeIndexNotReady      = "INDEX_NOT_READY"
	CodeNotFound           = "NOT_FOUND"
	CodeTimeout            = "TIMEOUT"
	CodeAgentNotFound      = "AGENT_NOT_FOUND"
)

// OrchestrationError carries operation/kind/id context the way the teacher's
// FrameworkError does, so logs and wrapped errors read the same across the
// coordinator, registry, and context manager.
type OrchestrationError struct {
	Op      string // e.g. "coordinator.sendMessage"
	Kind    string // e.g. "agent", "task", "tool"
	ID      string // the entity involved, if any
	Message string
	Err     error
}

func (e *OrchestrationError) Error() string {
	if e.Op != "" && e.Err != nil {
		if e.ID != "" {
			return fmt.Sprintf("%s [%s]: %v", e.Op, e.ID, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

func (e *OrchestrationError) Unwrap() error { return e.Err }

// NewOrchestrationError builds an OrchestrationError with an operation and
// underlying cause.
func NewOrchestrationError(op, kind, id string, err error) *OrchestrationError {
	return &OrchestrationError{Op: op, Kind: kind, ID: id, Err: err}
}
