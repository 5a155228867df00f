// Package webauthn verifies authenticator assertions against registered
// credentials. The sign counter is the cloned-authenticator defense: it must
// strictly increase and is checked before the signature so a replayed
// assertion fails the same way whether or not its signature still validates.
package webauthn

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/google/uuid"

	"github.com/authkeep/authkeep/internal/apperr"
	"github.com/authkeep/authkeep/internal/webauthn/domain"
	webauthnrepo "github.com/authkeep/authkeep/internal/webauthn/repository"
)

// authDataMinLen is rpIdHash (32) + flags (1) + signCount (4).
const authDataMinLen = 37

// Assertion is the raw material of one authentication ceremony.
type Assertion struct {
	CredentialID      []byte
	AuthenticatorData []byte
	ClientDataJSON    []byte
	Signature         []byte
}

// Verifier checks assertions and advances sign counters.
type Verifier struct {
	repo webauthnrepo.Repository
	// verifySig is swapped in tests; the default parses the stored COSE key
	// and checks the assertion signature.
	verifySig func(publicKey, signedData, sig []byte) error
	parseKey  func(publicKey []byte) error
	nowF      func() time.Time
}

func NewVerifier(repo webauthnrepo.Repository) *Verifier {
	return &Verifier{
		repo:      repo,
		verifySig: verifyCOSESignature,
		parseKey:  parseCOSEKey,
		nowF:      func() time.Time { return time.Now().UTC() },
	}
}

// Verify authenticates one assertion. Order matters: the counter is compared
// before the signature, so a cloned authenticator with a stale counter gets
// ErrInvalidCounter even when it holds the real private key. On success the
// stored counter is advanced to the presented value.
func (v *Verifier) Verify(ctx context.Context, tenantID string, a Assertion) (*domain.Credential, error) {
	if len(a.AuthenticatorData) < authDataMinLen {
		return nil, apperr.Validation("WEBAUTHN_AUTH_DATA_TOO_SHORT", "authenticator data must be at least %d bytes", authDataMinLen)
	}
	cred, err := v.repo.GetByCredentialID(ctx, tenantID, a.CredentialID)
	if err != nil {
		return nil, err
	}
	if cred == nil || cred.RevokedAt != nil {
		return nil, apperr.NotFound("credential")
	}

	presented := binary.BigEndian.Uint32(a.AuthenticatorData[33:authDataMinLen])
	if presented <= cred.SignCount {
		return nil, apperr.ErrInvalidCounter
	}

	clientHash := sha256.Sum256(a.ClientDataJSON)
	signedData := make([]byte, 0, len(a.AuthenticatorData)+len(clientHash))
	signedData = append(signedData, a.AuthenticatorData...)
	signedData = append(signedData, clientHash[:]...)
	if err := v.verifySig(cred.PublicKey, signedData, a.Signature); err != nil {
		return nil, apperr.ErrTokenInvalid
	}

	// Advance to the presented value, not by one: the authenticator may have
	// been used against other relying parties in between.
	if err := v.repo.UpdateSignCount(ctx, tenantID, cred.ID, presented); err != nil {
		return nil, err
	}
	cred.SignCount = presented
	return cred, nil
}

// Register stores a new credential for the user.
func (v *Verifier) Register(ctx context.Context, tenantID, userID string, credentialID, publicKey []byte, signCount uint32) (*domain.Credential, error) {
	if len(credentialID) == 0 {
		return nil, apperr.Validation("WEBAUTHN_CREDENTIAL_ID_REQUIRED", "credential id is required")
	}
	if err := v.parseKey(publicKey); err != nil {
		return nil, apperr.Validation("WEBAUTHN_PUBLIC_KEY_INVALID", "public key is not a valid COSE key")
	}
	existing, err := v.repo.GetByCredentialID(ctx, tenantID, credentialID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.BusinessRule("WEBAUTHN_CREDENTIAL_EXISTS", "credential is already registered")
	}
	cred := &domain.Credential{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		UserID:       userID,
		CredentialID: credentialID,
		PublicKey:    publicKey,
		SignCount:    signCount,
		CreatedAt:    v.nowF(),
	}
	if err := v.repo.Create(ctx, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// Revoke marks the credential revoked; revoked credentials fail Verify as
// not-found. Revocation is terminal: revoking an already-revoked credential
// is a business rule violation.
func (v *Verifier) Revoke(ctx context.Context, tenantID, id string) error {
	cred, err := v.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if cred == nil {
		return apperr.NotFound("credential")
	}
	if cred.RevokedAt != nil {
		return apperr.BusinessRule("WEBAUTHN_CREDENTIAL_ALREADY_REVOKED", "credential %s is already revoked", id)
	}
	return v.repo.Revoke(ctx, tenantID, id, v.nowF())
}

func parseCOSEKey(publicKey []byte) error {
	_, err := webauthncose.ParsePublicKey(publicKey)
	return err
}

func verifyCOSESignature(publicKey, signedData, sig []byte) error {
	key, err := webauthncose.ParsePublicKey(publicKey)
	if err != nil {
		return fmt.Errorf("parse public key: %w", err)
	}
	ok, err := webauthncose.VerifySignature(key, signedData, sig)
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	if !ok {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
