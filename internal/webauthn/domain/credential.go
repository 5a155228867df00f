package domain

import "time"

// Credential is a registered WebAuthn authenticator. PublicKey holds the
// COSE-encoded key from attestation; SignCount is the last accepted
// authenticator counter and must only ever move forward.
type Credential struct {
	ID           string
	TenantID     string
	UserID       string
	CredentialID []byte
	PublicKey    []byte
	SignCount    uint32
	RevokedAt    *time.Time
	CreatedAt    time.Time
}

// IsActive reports whether the credential can still be used for assertions.
// Credentials do not expire; only revocation deactivates them.
func (c *Credential) IsActive() bool {
	return c.RevokedAt == nil
}
