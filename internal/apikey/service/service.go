// Package service implements API key generation, verification and scope
// evaluation. Raw keys are returned exactly once; only hashes are stored.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/authkeep/authkeep/internal/apikey/domain"
	apikeyrepo "github.com/authkeep/authkeep/internal/apikey/repository"
	"github.com/authkeep/authkeep/internal/apperr"
	"github.com/authkeep/authkeep/internal/security"
)

type Service struct {
	repo apikeyrepo.Repository
	nowF func() time.Time
}

func NewService(repo apikeyrepo.Repository) *Service {
	return &Service{repo: repo, nowF: func() time.Time { return time.Now().UTC() }}
}

// Generate creates an API key and returns the stored record together with
// the raw key. The raw value is not recoverable afterwards.
func (s *Service) Generate(ctx context.Context, tenantID, userID, name string, scopes []string, expiresAt *time.Time) (*domain.APIKey, string, error) {
	raw, hash, err := security.NewAPIKey()
	if err != nil {
		return nil, "", err
	}
	k := &domain.APIKey{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		UserID:    userID,
		Name:      name,
		KeyHash:   hash,
		Scopes:    scopes,
		ExpiresAt: expiresAt,
		CreatedAt: s.nowF(),
	}
	if err := k.Validate(); err != nil {
		return nil, "", err
	}
	if err := s.repo.Create(ctx, k); err != nil {
		return nil, "", err
	}
	return k, raw, nil
}

// VerifyKey authenticates a presented raw key and checks it grants the
// required scope. All failure modes (bad format, unknown key, revoked,
// expired, missing scope) collapse into ErrTokenInvalid so callers cannot
// probe which keys exist.
func (s *Service) VerifyKey(ctx context.Context, tenantID, rawKey, requiredScope string) (*domain.APIKey, error) {
	if !strings.HasPrefix(rawKey, security.APIKeyPrefix) {
		return nil, apperr.ErrTokenInvalid
	}
	k, err := s.repo.GetByHash(ctx, tenantID, security.HashSecret(rawKey))
	if err != nil {
		return nil, err
	}
	if k == nil || !k.IsActive(s.nowF()) {
		return nil, apperr.ErrTokenInvalid
	}
	if !k.HasScope(requiredScope) {
		return nil, apperr.ErrTokenInvalid
	}
	return k, nil
}

// Get returns the key or a not-found error. Tenant mismatch is
// indistinguishable from absence.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*domain.APIKey, error) {
	k, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, apperr.NotFound("api key")
	}
	return k, nil
}

// List returns the user's keys.
func (s *Service) List(ctx context.Context, tenantID, userID string) ([]*domain.APIKey, error) {
	return s.repo.ListByUser(ctx, tenantID, userID)
}

// Revoke marks the key revoked. Revocation is terminal: revoking an
// already-revoked key is a business rule violation.
func (s *Service) Revoke(ctx context.Context, tenantID, id string) error {
	k, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if k.RevokedAt != nil {
		return apperr.BusinessRule("API_KEY_ALREADY_REVOKED", "api key %s is already revoked", id)
	}
	return s.repo.Revoke(ctx, tenantID, id, s.nowF())
}
