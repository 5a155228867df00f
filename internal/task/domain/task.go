package domain

import (
	"time"

	"github.com/authkeep/authkeep/internal/apperr"
)

// Task statuses. Pending and Processing are active; the rest are terminal
// and no transition leaves them.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Task is a tenant-scoped background job.
type Task struct {
	ID          string
	TenantID    string
	Type        string
	Status      string
	Payload     string
	Result      string
	Error       string
	Progress    int
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// IsTerminal reports whether the task has reached a final status.
func (t *Task) IsTerminal() bool {
	switch t.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Start moves the task from pending to processing.
func (t *Task) Start(now time.Time) error {
	if t.Status != StatusPending {
		return apperr.BusinessRule("TASK_NOT_PENDING", "task %s is %s, only pending tasks can start", t.ID, t.Status)
	}
	t.Status = StatusProcessing
	t.StartedAt = &now
	return nil
}

// Complete moves a processing task to completed with the given result.
func (t *Task) Complete(result string, now time.Time) error {
	if t.Status != StatusProcessing {
		return apperr.BusinessRule("TASK_NOT_PROCESSING", "task %s is %s, only processing tasks can complete", t.ID, t.Status)
	}
	t.Status = StatusCompleted
	t.Result = result
	t.Progress = 100
	t.CompletedAt = &now
	return nil
}

// Fail moves a processing task to failed with the given error message.
func (t *Task) Fail(errMsg string, now time.Time) error {
	if t.Status != StatusProcessing {
		return apperr.BusinessRule("TASK_NOT_PROCESSING", "task %s is %s, only processing tasks can fail", t.ID, t.Status)
	}
	t.Status = StatusFailed
	t.Error = errMsg
	t.CompletedAt = &now
	return nil
}

// Cancel moves an active task to cancelled. Cancelling a terminal task is a
// validation error with code TASK_ALREADY_TERMINAL.
func (t *Task) Cancel(now time.Time) error {
	if t.IsTerminal() {
		return apperr.Validation("TASK_ALREADY_TERMINAL", "task %s is already %s", t.ID, t.Status)
	}
	t.Status = StatusCancelled
	t.CompletedAt = &now
	return nil
}

// SetProgress records progress, clamped to [0,100].
func (t *Task) SetProgress(p int) {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	t.Progress = p
}
