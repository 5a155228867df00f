package repository

import (
	"context"
	"time"

	"github.com/authkeep/authkeep/internal/apikey/domain"
)

// Repository defines persistence for API keys. All reads are tenant-scoped.
type Repository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.APIKey, error)
	// GetByHash looks a key up by the hash of a presented raw key.
	GetByHash(ctx context.Context, tenantID, keyHash string) (*domain.APIKey, error)
	ListByUser(ctx context.Context, tenantID, userID string) ([]*domain.APIKey, error)
	Create(ctx context.Context, k *domain.APIKey) error
	Revoke(ctx context.Context, tenantID, id string, at time.Time) error
}
