package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/authkeep/authkeep/internal/apperr"
)

var now = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func TestTask_Lifecycle(t *testing.T) {
	task := &Task{ID: "t1", Status: StatusPending}

	if err := task.Start(now); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if task.Status != StatusProcessing || task.StartedAt == nil {
		t.Errorf("after Start: status=%s started_at=%v", task.Status, task.StartedAt)
	}

	task.SetProgress(50)
	if task.Progress != 50 {
		t.Errorf("progress = %d", task.Progress)
	}

	if err := task.Complete("done", now); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if task.Status != StatusCompleted || task.Progress != 100 || task.CompletedAt == nil {
		t.Errorf("after Complete: %+v", task)
	}
	if !task.IsTerminal() {
		t.Error("completed task should be terminal")
	}
}

func TestTask_Fail(t *testing.T) {
	task := &Task{ID: "t1", Status: StatusProcessing}
	if err := task.Fail("boom", now); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if task.Status != StatusFailed || task.Error != "boom" {
		t.Errorf("after Fail: %+v", task)
	}
}

func TestTask_IllegalTransitions(t *testing.T) {
	cases := []struct {
		name string
		call func(*Task) error
		from string
	}{
		{"start from processing", func(tk *Task) error { return tk.Start(now) }, StatusProcessing},
		{"start from completed", func(tk *Task) error { return tk.Start(now) }, StatusCompleted},
		{"complete from pending", func(tk *Task) error { return tk.Complete("r", now) }, StatusPending},
		{"complete from cancelled", func(tk *Task) error { return tk.Complete("r", now) }, StatusCancelled},
		{"fail from pending", func(tk *Task) error { return tk.Fail("e", now) }, StatusPending},
		{"fail from failed", func(tk *Task) error { return tk.Fail("e", now) }, StatusFailed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			task := &Task{ID: "t1", Status: c.from}
			if err := c.call(task); !apperr.IsBusinessRule(err) {
				t.Errorf("got %v, want business rule error", err)
			}
		})
	}
}

func TestTask_Cancel_Active(t *testing.T) {
	for _, status := range []string{StatusPending, StatusProcessing} {
		task := &Task{ID: "t1", Status: status}
		if err := task.Cancel(now); err != nil {
			t.Errorf("Cancel from %s: %v", status, err)
		}
		if task.Status != StatusCancelled {
			t.Errorf("status = %s, want cancelled", task.Status)
		}
	}
}

func TestTask_Cancel_Terminal(t *testing.T) {
	for _, status := range []string{StatusCompleted, StatusFailed, StatusCancelled} {
		task := &Task{ID: "t1", Status: status}
		err := task.Cancel(now)
		if !apperr.IsValidation(err) {
			t.Fatalf("Cancel from %s: got %v, want validation error", status, err)
		}
		var appErr *apperr.Error
		if !errors.As(err, &appErr) || appErr.Code != "TASK_ALREADY_TERMINAL" {
			t.Errorf("Cancel from %s: code = %v, want TASK_ALREADY_TERMINAL", status, err)
		}
	}
}

func TestTask_SetProgress_Clamps(t *testing.T) {
	cases := []struct{ in, want int }{
		{-10, 0}, {0, 0}, {55, 55}, {100, 100}, {150, 100},
	}
	for _, c := range cases {
		task := &Task{Status: StatusProcessing}
		task.SetProgress(c.in)
		if task.Progress != c.want {
			t.Errorf("SetProgress(%d) = %d, want %d", c.in, task.Progress, c.want)
		}
	}
}
