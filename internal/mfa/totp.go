// Package mfa implements TOTP enrolment and verification for local
// identities. Enrolment is two-step: a secret is provisioned but MFA only
// turns on after the user proves possession by submitting a valid code.
package mfa

import (
	"context"

	"github.com/pquerna/otp/totp"

	"github.com/authkeep/authkeep/internal/apperr"
	identitydomain "github.com/authkeep/authkeep/internal/identity/domain"
	identityrepo "github.com/authkeep/authkeep/internal/identity/repository"
)

// Issuer is the issuer label encoded into provisioning URIs.
const Issuer = "authkeep"

// Enrolment is returned from BeginEnroll; the URL is rendered as a QR code
// by the client and never stored.
type Enrolment struct {
	Secret string
	URL    string
}

type Service struct {
	identities identityrepo.Repository
	// validate is swapped in tests; the default checks against the current
	// 30-second window.
	validate func(code, secret string) bool
}

func NewService(identities identityrepo.Repository) *Service {
	return &Service{identities: identities, validate: totp.Validate}
}

// BeginEnroll provisions a TOTP secret for the identity. The secret is
// persisted disabled; ConfirmEnroll turns it on.
func (s *Service) BeginEnroll(ctx context.Context, tenantID, userID, accountName string) (*Enrolment, error) {
	ident, err := s.identities.GetByUserAndProvider(ctx, tenantID, userID, identitydomain.IdentityProviderLocal)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		return nil, apperr.NotFound("identity")
	}
	if ident.TOTPEnabled {
		return nil, apperr.BusinessRule("MFA_ALREADY_ENABLED", "totp is already enabled for this identity")
	}
	key, err := totp.Generate(totp.GenerateOpts{Issuer: Issuer, AccountName: accountName})
	if err != nil {
		return nil, err
	}
	if err := s.identities.SetTOTP(ctx, tenantID, ident.ID, key.Secret(), false); err != nil {
		return nil, err
	}
	return &Enrolment{Secret: key.Secret(), URL: key.URL()}, nil
}

// ConfirmEnroll enables TOTP after the user submits a code generated from
// the provisioned secret.
func (s *Service) ConfirmEnroll(ctx context.Context, tenantID, userID, code string) error {
	ident, err := s.identities.GetByUserAndProvider(ctx, tenantID, userID, identitydomain.IdentityProviderLocal)
	if err != nil {
		return err
	}
	if ident == nil {
		return apperr.NotFound("identity")
	}
	if ident.TOTPSecret == "" {
		return apperr.BusinessRule("MFA_NOT_ENROLLED", "totp enrolment has not been started")
	}
	if !s.validate(code, ident.TOTPSecret) {
		return apperr.ErrTokenInvalid
	}
	return s.identities.SetTOTP(ctx, tenantID, ident.ID, ident.TOTPSecret, true)
}

// VerifyCode checks a login-time TOTP code for an identity with MFA enabled.
func (s *Service) VerifyCode(ctx context.Context, tenantID, userID, code string) error {
	ident, err := s.identities.GetByUserAndProvider(ctx, tenantID, userID, identitydomain.IdentityProviderLocal)
	if err != nil {
		return err
	}
	if ident == nil || !ident.TOTPEnabled {
		return apperr.BusinessRule("MFA_NOT_ENABLED", "totp is not enabled for this identity")
	}
	if !s.validate(code, ident.TOTPSecret) {
		return apperr.ErrTokenInvalid
	}
	return nil
}
