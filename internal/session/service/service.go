// Package service implements session lifecycle: creation under a per-user
// cap, terminal revocation, lazy activity checks and refresh rotation.
package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/authkeep/authkeep/internal/apperr"
	"github.com/authkeep/authkeep/internal/session/domain"
	sessionrepo "github.com/authkeep/authkeep/internal/session/repository"
)

// DeviceMeta carries the client attributes recorded on a session.
type DeviceMeta struct {
	IPAddress string
	UserAgent string
}

type Service struct {
	repo       sessionrepo.Repository
	maxPerUser int
	ttl        time.Duration
	nowF       func() time.Time
}

// NewService returns a session service. maxPerUser caps concurrent
// non-revoked sessions per user; the oldest is evicted on overflow.
func NewService(repo sessionrepo.Repository, maxPerUser int, ttl time.Duration) *Service {
	return &Service{
		repo:       repo,
		maxPerUser: maxPerUser,
		ttl:        ttl,
		nowF:       func() time.Time { return time.Now().UTC() },
	}
}

// Create records a new session for the user with the given refresh token
// material. When the user is at the cap, the oldest active session is revoked
// first; eviction failure is logged but does not fail the login.
func (s *Service) Create(ctx context.Context, tenantID, userID, refreshJti, refreshHash string, meta DeviceMeta) (*domain.Session, error) {
	now := s.nowF()

	if s.maxPerUser > 0 {
		active, err := s.repo.ListActiveByUser(ctx, tenantID, userID)
		if err != nil {
			return nil, err
		}
		// ListActiveByUser is oldest first. Lazy expiry: rows past their
		// expires_at do not count against the cap.
		live := active[:0]
		for _, sess := range active {
			if sess.IsActive(now) {
				live = append(live, sess)
			}
		}
		for len(live) >= s.maxPerUser {
			oldest := live[0]
			if err := s.repo.Revoke(ctx, tenantID, oldest.ID, now); err != nil {
				log.Printf("session: evicting %s for user %s failed: %v", oldest.ID, userID, err)
				break
			}
			live = live[1:]
		}
	}

	sess := &domain.Session{
		ID:               uuid.New().String(),
		TenantID:         tenantID,
		UserID:           userID,
		RefreshJti:       refreshJti,
		RefreshTokenHash: refreshHash,
		IPAddress:        meta.IPAddress,
		UserAgent:        meta.UserAgent,
		ExpiresAt:        now.Add(s.ttl),
		CreatedAt:        now,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get returns the session or a not-found error. Tenant mismatch is
// indistinguishable from absence.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*domain.Session, error) {
	sess, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, apperr.NotFound("session")
	}
	return sess, nil
}

// Revoke marks the session revoked. Revocation is terminal: revoking an
// already-revoked session is a business rule violation, not a no-op.
func (s *Service) Revoke(ctx context.Context, tenantID, id string) error {
	sess, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if sess.RevokedAt != nil {
		return apperr.BusinessRule("SESSION_ALREADY_REVOKED", "session %s is already revoked", id)
	}
	return s.repo.Revoke(ctx, tenantID, id, s.nowF())
}

// RevokeAllForUser revokes every active session of the user. Used on refresh
// token reuse detection and administrative resets.
func (s *Service) RevokeAllForUser(ctx context.Context, tenantID, userID string) error {
	return s.repo.RevokeAllByUser(ctx, tenantID, userID, s.nowF())
}

// IsActive reports whether the session exists and is neither revoked nor
// expired. Expiry is checked against the clock here; expired rows are never
// mutated.
func (s *Service) IsActive(ctx context.Context, tenantID, id string) (bool, error) {
	sess, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return false, err
	}
	if sess == nil {
		return false, nil
	}
	return sess.IsActive(s.nowF()), nil
}

// GetByRefreshHash returns the session whose current or previous refresh
// token hash matches, or nil when no session holds the hash.
func (s *Service) GetByRefreshHash(ctx context.Context, tenantID, hash string) (*domain.Session, error) {
	return s.repo.GetByRefreshHash(ctx, tenantID, hash)
}

// RotateRefresh installs new refresh token material on the session, keeping
// the previous hash for reuse detection.
func (s *Service) RotateRefresh(ctx context.Context, tenantID, id, jti, hash string) error {
	return s.repo.RotateRefreshToken(ctx, tenantID, id, jti, hash)
}

// Touch updates the session's last-activity timestamp. Best-effort from
// interceptors; callers on the hot path ignore the error.
func (s *Service) Touch(ctx context.Context, tenantID, id string) error {
	return s.repo.UpdateLastSeen(ctx, tenantID, id, s.nowF())
}

// ListActive returns the user's active sessions, oldest first, filtered by
// lazy expiry.
func (s *Service) ListActive(ctx context.Context, tenantID, userID string) ([]*domain.Session, error) {
	active, err := s.repo.ListActiveByUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	now := s.nowF()
	live := active[:0]
	for _, sess := range active {
		if sess.IsActive(now) {
			live = append(live, sess)
		}
	}
	return live, nil
}
