package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/authkeep/authkeep/internal/webauthn/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a WebAuthn credential repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const credentialColumns = `id, tenant_id, user_id, credential_id, public_key, sign_count, revoked_at, created_at`

// GetByID returns the credential for id within the tenant, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM webauthn_credentials
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)
	c, err := scanCredential(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// GetByCredentialID returns the credential matching the authenticator's
// credential ID within the tenant, or nil if not found.
func (r *PostgresRepository) GetByCredentialID(ctx context.Context, tenantID string, credentialID []byte) (*domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM webauthn_credentials
		 WHERE tenant_id = $1 AND credential_id = $2`,
		tenantID, credentialID)
	c, err := scanCredential(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// ListByUser returns the user's registered credentials.
func (r *PostgresRepository) ListByUser(ctx context.Context, tenantID, userID string) ([]*domain.Credential, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+credentialColumns+` FROM webauthn_credentials
		 WHERE tenant_id = $1 AND user_id = $2 ORDER BY created_at ASC`,
		tenantID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create persists the credential. The credential must have ID and TenantID set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Credential) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO webauthn_credentials (id, tenant_id, user_id, credential_id, public_key, sign_count, revoked_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.TenantID, c.UserID, c.CredentialID, c.PublicKey, int64(c.SignCount),
		nullTime(c.RevokedAt), c.CreatedAt)
	return err
}

// UpdateSignCount persists the new authenticator counter.
func (r *PostgresRepository) UpdateSignCount(ctx context.Context, tenantID, id string, signCount uint32) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE webauthn_credentials SET sign_count = $3 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, int64(signCount))
	return err
}

// Revoke marks the credential revoked. Only the first revoke writes.
func (r *PostgresRepository) Revoke(ctx context.Context, tenantID, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE webauthn_credentials SET revoked_at = $3
		 WHERE tenant_id = $1 AND id = $2 AND revoked_at IS NULL`,
		tenantID, id, at)
	return err
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*domain.Credential, error) {
	var (
		c         domain.Credential
		signCount int64
		revokedAt sql.NullTime
	)
	err := row.Scan(&c.ID, &c.TenantID, &c.UserID, &c.CredentialID, &c.PublicKey,
		&signCount, &revokedAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.SignCount = uint32(signCount)
	if revokedAt.Valid {
		c.RevokedAt = &revokedAt.Time
	}
	return &c, nil
}
