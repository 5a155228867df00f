package repository

import (
	"context"
	"time"

	"github.com/authkeep/authkeep/internal/audit/domain"
)

// Repository defines persistence for audit logs. All reads are tenant-scoped.
type Repository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.AuditLog, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int32) ([]*domain.AuditLog, error)
	Create(ctx context.Context, a *domain.AuditLog) error
	// FailureTimes returns the timestamps of action events matching the key
	// (as subject or client IP) within the tenant since the given time,
	// newest first. The lockout guard recomputes its windowed counts from
	// this instead of a dedicated counter table.
	FailureTimes(ctx context.Context, tenantID, action, key string, since time.Time) ([]time.Time, error)
}
