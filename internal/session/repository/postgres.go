package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/authkeep/authkeep/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, tenant_id, user_id, refresh_jti, refresh_token_hash, refresh_prev_hash,
	ip_address, user_agent, expires_at, revoked_at, last_seen_at, created_at`

// GetByID returns the session for id within the tenant, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return scanSession(row)
}

// GetByRefreshHash returns the session whose current or previous refresh
// token hash matches, or nil if none does.
func (r *PostgresRepository) GetByRefreshHash(ctx context.Context, tenantID, hash string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE tenant_id = $1 AND (refresh_token_hash = $2 OR refresh_prev_hash = $2)`,
		tenantID, hash)
	return scanSession(row)
}

// ListActiveByUser returns non-revoked sessions for the user, oldest first.
func (r *PostgresRepository) ListActiveByUser(ctx context.Context, tenantID, userID string) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE tenant_id = $1 AND user_id = $2 AND revoked_at IS NULL
		 ORDER BY created_at ASC`,
		tenantID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create persists the session. The session must have ID and TenantID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, tenant_id, user_id, refresh_jti, refresh_token_hash, refresh_prev_hash,
		                       ip_address, user_agent, expires_at, revoked_at, last_seen_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.ID, s.TenantID, s.UserID,
		nullString(s.RefreshJti), nullString(s.RefreshTokenHash), nullString(s.RefreshPrevHash),
		nullString(s.IPAddress), nullString(s.UserAgent),
		s.ExpiresAt, nullTime(s.RevokedAt), nullTime(s.LastSeenAt), s.CreatedAt)
	return err
}

// Revoke marks the session as revoked at the given time.
func (r *PostgresRepository) Revoke(ctx context.Context, tenantID, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $3 WHERE tenant_id = $1 AND id = $2 AND revoked_at IS NULL`,
		tenantID, id, at)
	return err
}

// RevokeAllByUser revokes every non-revoked session of the user.
func (r *PostgresRepository) RevokeAllByUser(ctx context.Context, tenantID, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $3 WHERE tenant_id = $1 AND user_id = $2 AND revoked_at IS NULL`,
		tenantID, userID, at)
	return err
}

// UpdateLastSeen sets the session's last-seen timestamp.
func (r *PostgresRepository) UpdateLastSeen(ctx context.Context, tenantID, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_seen_at = $3 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, at)
	return err
}

// RotateRefreshToken installs the new refresh jti and hash, shifting the
// current hash into refresh_prev_hash.
func (r *PostgresRepository) RotateRefreshToken(ctx context.Context, tenantID, id, jti, hash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		 SET refresh_prev_hash = refresh_token_hash, refresh_jti = $3, refresh_token_hash = $4
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, jti, hash)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
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

func scanSession(row *sql.Row) (*domain.Session, error) {
	s, err := scanSessionRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func scanSessionRow(row rowScanner) (*domain.Session, error) {
	var (
		s                   domain.Session
		jti, hash, prev     sql.NullString
		ip, ua              sql.NullString
		revokedAt, lastSeen sql.NullTime
	)
	err := row.Scan(&s.ID, &s.TenantID, &s.UserID, &jti, &hash, &prev,
		&ip, &ua, &s.ExpiresAt, &revokedAt, &lastSeen, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.RefreshJti = jti.String
	s.RefreshTokenHash = hash.String
	s.RefreshPrevHash = prev.String
	s.IPAddress = ip.String
	s.UserAgent = ua.String
	if revokedAt.Valid {
		s.RevokedAt = &revokedAt.Time
	}
	if lastSeen.Valid {
		s.LastSeenAt = &lastSeen.Time
	}
	return &s, nil
}
