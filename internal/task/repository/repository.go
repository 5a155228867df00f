package repository

import (
	"context"

	"github.com/authkeep/authkeep/internal/task/domain"
)

// Repository defines persistence for tasks. All reads are tenant-scoped.
type Repository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.Task, error)
	ListByStatus(ctx context.Context, tenantID, status string, limit, offset int32) ([]*domain.Task, error)
	Create(ctx context.Context, t *domain.Task) error
	Update(ctx context.Context, t *domain.Task) error
}
