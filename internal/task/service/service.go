// Package service drives the task state machine against persistence.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/authkeep/authkeep/internal/apperr"
	"github.com/authkeep/authkeep/internal/task/domain"
	taskrepo "github.com/authkeep/authkeep/internal/task/repository"
)

type Service struct {
	repo taskrepo.Repository
	nowF func() time.Time
}

func NewService(repo taskrepo.Repository) *Service {
	return &Service{repo: repo, nowF: func() time.Time { return time.Now().UTC() }}
}

// Enqueue creates a pending task.
func (s *Service) Enqueue(ctx context.Context, tenantID, taskType, payload string) (*domain.Task, error) {
	if taskType == "" {
		return nil, apperr.Validation("TASK_TYPE_REQUIRED", "task type is required")
	}
	t := &domain.Task{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Type:      taskType,
		Status:    domain.StatusPending,
		Payload:   payload,
		CreatedAt: s.nowF(),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns the task or a not-found error. Tenant mismatch is
// indistinguishable from absence.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*domain.Task, error) {
	t, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.NotFound("task")
	}
	return t, nil
}

// Start transitions the task to processing.
func (s *Service) Start(ctx context.Context, tenantID, id string) (*domain.Task, error) {
	return s.transition(ctx, tenantID, id, func(t *domain.Task) error {
		return t.Start(s.nowF())
	})
}

// Complete transitions the task to completed with the result.
func (s *Service) Complete(ctx context.Context, tenantID, id, result string) (*domain.Task, error) {
	return s.transition(ctx, tenantID, id, func(t *domain.Task) error {
		return t.Complete(result, s.nowF())
	})
}

// Fail transitions the task to failed with the error message.
func (s *Service) Fail(ctx context.Context, tenantID, id, errMsg string) (*domain.Task, error) {
	return s.transition(ctx, tenantID, id, func(t *domain.Task) error {
		return t.Fail(errMsg, s.nowF())
	})
}

// Cancel transitions an active task to cancelled.
func (s *Service) Cancel(ctx context.Context, tenantID, id string) (*domain.Task, error) {
	return s.transition(ctx, tenantID, id, func(t *domain.Task) error {
		return t.Cancel(s.nowF())
	})
}

// SetProgress records clamped progress on a processing task.
func (s *Service) SetProgress(ctx context.Context, tenantID, id string, progress int) (*domain.Task, error) {
	return s.transition(ctx, tenantID, id, func(t *domain.Task) error {
		if t.IsTerminal() {
			return apperr.Validation("TASK_ALREADY_TERMINAL", "task %s is already %s", t.ID, t.Status)
		}
		t.SetProgress(progress)
		return nil
	})
}

func (s *Service) transition(ctx context.Context, tenantID, id string, apply func(*domain.Task) error) (*domain.Task, error) {
	t, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(t); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
