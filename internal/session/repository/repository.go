package repository

import (
	"context"
	"time"

	"github.com/authkeep/authkeep/internal/session/domain"
)

// Repository defines persistence for sessions. All reads are tenant-scoped.
type Repository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.Session, error)
	// GetByRefreshHash looks a session up by the hash of a presented refresh
	// token, matching either the current or the previous rotation's hash.
	GetByRefreshHash(ctx context.Context, tenantID, hash string) (*domain.Session, error)
	// ListActiveByUser returns non-revoked sessions for the user, oldest
	// first, so the caller can evict from the front when over the cap.
	ListActiveByUser(ctx context.Context, tenantID, userID string) ([]*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	Revoke(ctx context.Context, tenantID, id string, at time.Time) error
	RevokeAllByUser(ctx context.Context, tenantID, userID string, at time.Time) error
	UpdateLastSeen(ctx context.Context, tenantID, id string, at time.Time) error
	// RotateRefreshToken sets the new jti and hash and shifts the current
	// hash into refresh_prev_hash.
	RotateRefreshToken(ctx context.Context, tenantID, id, jti, hash string) error
}
