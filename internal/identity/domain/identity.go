package domain

import "time"

// Identity represents a user's linked credential record. Only local
// identities carry a password hash; a TOTP secret is attached once MFA is
// enrolled.
type Identity struct {
	ID           string
	TenantID     string
	UserID       string
	Provider     IdentityProvider
	ProviderID   string
	PasswordHash string // empty if not local
	TOTPSecret   string // empty until MFA enrolment
	TOTPEnabled  bool
	CreatedAt    time.Time
}

type IdentityProvider string

const (
	IdentityProviderLocal IdentityProvider = "local"
)
