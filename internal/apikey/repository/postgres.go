package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/authkeep/authkeep/internal/apikey/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an API key repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const apiKeyColumns = `id, tenant_id, user_id, name, key_hash, scopes, expires_at, revoked_at, created_at`

// GetByID returns the key for id within the tenant, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.APIKey, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return scanAPIKey(row)
}

// GetByHash returns the key matching the hash within the tenant, or nil.
func (r *PostgresRepository) GetByHash(ctx context.Context, tenantID, keyHash string) (*domain.APIKey, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE tenant_id = $1 AND key_hash = $2`, tenantID, keyHash)
	return scanAPIKey(row)
}

// ListByUser returns the user's keys, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, tenantID, userID string) ([]*domain.APIKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys
		 WHERE tenant_id = $1 AND user_id = $2 ORDER BY created_at DESC`,
		tenantID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.APIKey
	for rows.Next() {
		k, err := scanAPIKeyRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Create persists the key. The key must have ID, TenantID and KeyHash set.
func (r *PostgresRepository) Create(ctx context.Context, k *domain.APIKey) error {
	scopes, err := json.Marshal(k.Scopes)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO api_keys (id, tenant_id, user_id, name, key_hash, scopes, expires_at, revoked_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		k.ID, k.TenantID, k.UserID, k.Name, k.KeyHash, scopes,
		nullTime(k.ExpiresAt), nullTime(k.RevokedAt), k.CreatedAt)
	return err
}

// Revoke marks the key as revoked at the given time.
func (r *PostgresRepository) Revoke(ctx context.Context, tenantID, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET revoked_at = $3 WHERE tenant_id = $1 AND id = $2 AND revoked_at IS NULL`,
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

func scanAPIKey(row *sql.Row) (*domain.APIKey, error) {
	k, err := scanAPIKeyRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return k, nil
}

func scanAPIKeyRow(row rowScanner) (*domain.APIKey, error) {
	var (
		k                    domain.APIKey
		scopes               []byte
		expiresAt, revokedAt sql.NullTime
	)
	err := row.Scan(&k.ID, &k.TenantID, &k.UserID, &k.Name, &k.KeyHash, &scopes,
		&expiresAt, &revokedAt, &k.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(scopes, &k.Scopes); err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		k.ExpiresAt = &expiresAt.Time
	}
	if revokedAt.Valid {
		k.RevokedAt = &revokedAt.Time
	}
	return &k, nil
}
