// Package taskqueue implements the coordinator's priority task queue: a
// bounded-concurrency, priority-ordered pending list plus a tracked running
// set, grounded on the teacher's TaskWorkerPool dequeue/process/complete
// cycle but collapsed into a single in-process structure (no external
// broker, no distributed dequeue).
package taskqueue

import (
	"sort"
	"sync"
	"time"

	"github.com/coderift/toolmind/core"
)

// Stats is a snapshot of queue occupancy, returned by GetStats.
type Stats struct {
	Pending   int
	Running   int
	Completed int
	Failed    int
	Cancelled int
}

// Queue holds pending tasks ordered by priority (higher first) with
// earliest CreatedAt breaking ties, and a running set bounded by
// maxConcurrent. Terminal tasks (completed/failed/cancelled) remain
// addressable until Cleanup removes them.
type Queue struct {
	mu             sync.Mutex
	pending        []*core.Task
	running        map[string]*core.Task
	terminal       map[string]*core.Task
	byID           map[string]*core.Task
	maxConcurrent  int
}

// New builds a Queue that allows up to maxConcurrent tasks running at once.
// maxConcurrent == 0 is valid and means no task is ever dispatched (spec.md
// §8 boundary behavior); only a negative value is normalized, to 0, since
// a negative bound has no meaningful interpretation.
func New(maxConcurrent int) *Queue {
	if maxConcurrent < 0 {
		maxConcurrent = 0
	}
	return &Queue{
		running:       make(map[string]*core.Task),
		terminal:      make(map[string]*core.Task),
		byID:          make(map[string]*core.Task),
		maxConcurrent: maxConcurrent,
	}
}

// Submit adds task to the pending queue. Submit rejects a task whose ID is
// already tracked anywhere in the queue.
func (q *Queue) Submit(task *core.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.byID[task.ID]; exists {
		return core.NewOrchestrationError("taskqueue.Submit", "task", task.ID, core.ErrTaskAlreadyExists)
	}

	task.Status = core.TaskStatusPending
	q.byID[task.ID] = task
	q.pending = append(q.pending, task)
	return nil
}

// sortPending orders by priority descending, then CreatedAt ascending.
// Must be called with the lock held.
func (q *Queue) sortPending() {
	sort.SliceStable(q.pending, func(i, j int) bool {
		if q.pending[i].Priority != q.pending[j].Priority {
			return q.pending[i].Priority > q.pending[j].Priority
		}
		return q.pending[i].CreatedAt.Before(q.pending[j].CreatedAt)
	})
}

// Dequeue removes and returns the highest-priority pending task and moves
// it to running, provided the running set has capacity. Returns false when
// there is no eligible task or the running set is already at capacity.
func (q *Queue) Dequeue() (*core.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.running) >= q.maxConcurrent || len(q.pending) == 0 {
		return nil, false
	}

	q.sortPending()
	task := q.pending[0]
	q.pending = q.pending[1:]

	now := time.Now()
	task.Status = core.TaskStatusRunning
	task.StartedAt = &now
	q.running[task.ID] = task

	return task, true
}

// Complete marks a running task completed with result.
func (q *Queue) Complete(taskID string, result []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.running[taskID]
	if !ok {
		return core.NewOrchestrationError("taskqueue.Complete", "task", taskID, core.ErrTaskNotFound)
	}

	now := time.Now()
	task.Status = core.TaskStatusCompleted
	task.CompletedAt = &now
	task.Result = result

	delete(q.running, taskID)
	q.terminal[taskID] = task
	return nil
}

// Fail marks a running task failed with taskErr.
func (q *Queue) Fail(taskID string, taskErr *core.TaskError) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.running[taskID]
	if !ok {
		return core.NewOrchestrationError("taskqueue.Fail", "task", taskID, core.ErrTaskNotFound)
	}

	now := time.Now()
	task.Status = core.TaskStatusFailed
	task.CompletedAt = &now
	task.Err = taskErr

	delete(q.running, taskID)
	q.terminal[taskID] = task
	return nil
}

// Retry moves a failed, retryable task back to pending, incrementing its
// retry count and clearing transient execution fields.
func (q *Queue) Retry(taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.terminal[taskID]
	if !ok || task.Status != core.TaskStatusFailed {
		return core.NewOrchestrationError("taskqueue.Retry", "task", taskID, core.ErrTaskNotFound)
	}
	if !task.Retryable() {
		return core.NewOrchestrationError("taskqueue.Retry", "task", taskID, core.ErrTaskNotRetryable)
	}

	task.ResetForRetry()
	delete(q.terminal, taskID)
	q.pending = append(q.pending, task)
	return nil
}

// Cancel moves a pending or running task to cancelled. Terminal tasks
// (already completed/failed/cancelled) cannot be cancelled.
func (q *Queue) Cancel(taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if task, ok := q.running[taskID]; ok {
		now := time.Now()
		task.Status = core.TaskStatusCancelled
		task.CompletedAt = &now
		delete(q.running, taskID)
		q.terminal[taskID] = task
		return nil
	}

	for i, task := range q.pending {
		if task.ID == taskID {
			now := time.Now()
			task.Status = core.TaskStatusCancelled
			task.CompletedAt = &now
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			q.terminal[taskID] = task
			return nil
		}
	}

	return core.NewOrchestrationError("taskqueue.Cancel", "task", taskID, core.ErrTaskNotFound)
}

// Get returns a task by ID regardless of its current state.
func (q *Queue) Get(taskID string) (*core.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	task, ok := q.byID[taskID]
	return task, ok
}

// Cleanup removes terminal tasks whose CompletedAt is older than
// horizon, returning how many were removed.
func (q *Queue) Cleanup(horizon time.Duration) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := time.Now().Add(-horizon)
	removed := 0
	for id, task := range q.terminal {
		if task.CompletedAt != nil && task.CompletedAt.Before(cutoff) {
			delete(q.terminal, id)
			delete(q.byID, id)
			removed++
		}
	}
	return removed
}

// GetStats returns a point-in-time occupancy snapshot.
func (q *Queue) GetStats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := Stats{Pending: len(q.pending), Running: len(q.running)}
	for _, task := range q.terminal {
		switch task.Status {
		case core.TaskStatusCompleted:
			stats.Completed++
		case core.TaskStatusFailed:
			stats.Failed++
		case core.TaskStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats
}
