package domain

import "time"

// Session represents a user session tied to a device. Refresh token material
// is stored hashed only; RefreshPrevHash keeps the previous rotation's hash
// so a replay of a rotated-out token can be recognized.
type Session struct {
	ID               string
	TenantID         string
	UserID           string
	RefreshJti       string // current refresh token jti, rotated on refresh
	RefreshTokenHash string // SHA-256 hash of current refresh token
	RefreshPrevHash  string // hash of the previous refresh token; empty before first rotation
	IPAddress        string
	UserAgent        string
	ExpiresAt        time.Time
	RevokedAt        *time.Time // nil when not revoked
	LastSeenAt       *time.Time
	CreatedAt        time.Time
}

// IsActive reports whether the session is neither revoked nor expired at the
// given time. Expiry is evaluated lazily; nothing sweeps expired rows.
func (s *Session) IsActive(now time.Time) bool {
	if s.RevokedAt != nil {
		return false
	}
	return now.Before(s.ExpiresAt)
}
