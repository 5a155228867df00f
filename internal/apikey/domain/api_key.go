package domain

import (
	"strings"
	"time"

	"github.com/authkeep/authkeep/internal/apperr"
)

// ScopeAdmin grants every scope; HasScope short-circuits on it.
const ScopeAdmin = "admin"

// APIKey is a tenant-scoped service credential. Only the SHA-256 hash of the
// raw key is stored; the raw value is shown once at generation time.
type APIKey struct {
	ID        string
	TenantID  string
	UserID    string
	Name      string
	KeyHash   string
	Scopes    []string
	ExpiresAt *time.Time // nil means no expiry
	RevokedAt *time.Time // nil when not revoked
	CreatedAt time.Time
}

// Validate checks the key's structural invariants.
func (k *APIKey) Validate() error {
	if k.Name == "" {
		return apperr.Validation("API_KEY_NAME_REQUIRED", "api key name is required")
	}
	if len(k.Scopes) == 0 {
		return apperr.Validation("API_KEY_SCOPES_REQUIRED", "api key must have at least one scope")
	}
	for _, s := range k.Scopes {
		if s == "" {
			return apperr.Validation("API_KEY_SCOPE_EMPTY", "api key scopes must be non-empty")
		}
	}
	return nil
}

// IsActive reports whether the key is neither revoked nor expired at now.
func (k *APIKey) IsActive(now time.Time) bool {
	if k.RevokedAt != nil {
		return false
	}
	if k.ExpiresAt != nil && !now.Before(*k.ExpiresAt) {
		return false
	}
	return true
}

// HasScope reports whether the key grants the required scope. An admin scope
// grants everything. Otherwise a held scope grants required when equal, or
// when required refines it by colon segments (held "read" grants "read:user",
// but "rea" does not).
func (k *APIKey) HasScope(required string) bool {
	if required == "" {
		return false
	}
	for _, held := range k.Scopes {
		if held == ScopeAdmin {
			return true
		}
		if held == required {
			return true
		}
		if strings.HasPrefix(required, held+":") {
			return true
		}
	}
	return false
}
