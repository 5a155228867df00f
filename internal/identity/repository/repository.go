package repository

import (
	"context"

	"github.com/authkeep/authkeep/internal/identity/domain"
)

// Repository defines persistence for identities. All lookups are tenant-scoped.
type Repository interface {
	GetByUserAndProvider(ctx context.Context, tenantID, userID string, provider domain.IdentityProvider) (*domain.Identity, error)
	Create(ctx context.Context, i *domain.Identity) error
	SetTOTP(ctx context.Context, tenantID, id, secret string, enabled bool) error
}
