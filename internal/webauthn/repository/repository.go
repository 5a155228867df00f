package repository

import (
	"context"
	"time"

	"github.com/authkeep/authkeep/internal/webauthn/domain"
)

// Repository defines persistence for WebAuthn credentials. All reads are tenant-scoped.
type Repository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.Credential, error)
	GetByCredentialID(ctx context.Context, tenantID string, credentialID []byte) (*domain.Credential, error)
	ListByUser(ctx context.Context, tenantID, userID string) ([]*domain.Credential, error)
	Create(ctx context.Context, c *domain.Credential) error
	UpdateSignCount(ctx context.Context, tenantID, id string, signCount uint32) error
	// Revoke sets revoked_at; a no-op when the credential is already revoked.
	Revoke(ctx context.Context, tenantID, id string, at time.Time) error
}
