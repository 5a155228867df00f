package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/authkeep/authkeep/internal/identity/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an identity repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByUserAndProvider returns the identity for the user and provider within
// the tenant, or nil if not found.
func (r *PostgresRepository) GetByUserAndProvider(ctx context.Context, tenantID, userID string, provider domain.IdentityProvider) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, user_id, provider, provider_id, password_hash, totp_secret, totp_enabled, created_at
		 FROM identities WHERE tenant_id = $1 AND user_id = $2 AND provider = $3`,
		tenantID, userID, provider)
	var i domain.Identity
	if err := row.Scan(&i.ID, &i.TenantID, &i.UserID, &i.Provider, &i.ProviderID,
		&i.PasswordHash, &i.TOTPSecret, &i.TOTPEnabled, &i.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &i, nil
}

// Create persists the identity. The identity must have ID and TenantID set.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Identity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO identities (id, tenant_id, user_id, provider, provider_id, password_hash, totp_secret, totp_enabled, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		i.ID, i.TenantID, i.UserID, i.Provider, i.ProviderID, i.PasswordHash, i.TOTPSecret, i.TOTPEnabled, i.CreatedAt)
	return err
}

// SetTOTP stores the TOTP secret and enabled flag for the identity within the tenant.
func (r *PostgresRepository) SetTOTP(ctx context.Context, tenantID, id, secret string, enabled bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE identities SET totp_secret = $3, totp_enabled = $4 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, secret, enabled)
	return err
}
