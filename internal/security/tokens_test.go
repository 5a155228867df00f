package security

import (
	"errors"
	"testing"
	"time"

	"github.com/authkeep/authkeep/internal/apperr"
)

func TestTokenProvider_IssueAndValidateAccess(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, jti, exp, err := p.IssueAccess("s1", "u1", "t1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if token == "" || jti == "" {
		t.Fatal("token or jti empty")
	}
	if !exp.After(time.Now()) {
		t.Fatal("expiry in the past")
	}
	id, err := p.ValidateAccess(token)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if id.SessionID != "s1" || id.UserID != "u1" || id.TenantID != "t1" {
		t.Errorf("identity = %+v", id)
	}
}

func TestTokenProvider_ValidateAccessMalformed(t *testing.T) {
	p, _ := NewTestTokenProvider()
	if _, err := p.ValidateAccess("not-a-jwt"); !errors.Is(err, apperr.ErrTokenInvalid) {
		t.Errorf("want ErrTokenInvalid, got %v", err)
	}
}

func TestTokenProvider_ValidateAccessExpired(t *testing.T) {
	p, _ := NewTestTokenProvider()
	// Freeze issuance in the past so the token is expired at validation time.
	past := time.Now().UTC().Add(-2 * time.Hour)
	p.nowF = func() time.Time { return past }
	token, _, _, err := p.IssueAccess("s1", "u1", "t1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	p.nowF = func() time.Time { return time.Now().UTC() }
	if _, err := p.ValidateAccess(token); !errors.Is(err, apperr.ErrTokenExpired) {
		t.Errorf("want ErrTokenExpired, got %v", err)
	}
}

func TestTokenProvider_RejectsWrongIssuerOrAudience(t *testing.T) {
	signer, _ := ParsePrivateKey(testPrivateKeyPEM)
	pub, _ := ParsePublicKey(testPublicKeyPEM)
	issuerA := NewTokenProvider(signer, pub, "issuer-a", "aud", 15*time.Minute)
	issuerB := NewTokenProvider(signer, pub, "issuer-b", "aud", 15*time.Minute)
	audB := NewTokenProvider(signer, pub, "issuer-a", "other-aud", 15*time.Minute)

	token, _, _, err := issuerA.IssueAccess("s1", "u1", "t1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := issuerB.ValidateAccess(token); !errors.Is(err, apperr.ErrTokenInvalid) {
		t.Errorf("wrong issuer: want ErrTokenInvalid, got %v", err)
	}
	if _, err := audB.ValidateAccess(token); !errors.Is(err, apperr.ErrTokenInvalid) {
		t.Errorf("wrong audience: want ErrTokenInvalid, got %v", err)
	}
}

func TestTokenProvider_RejectsForgedSignature(t *testing.T) {
	p, _ := NewTestTokenProvider()
	token, _, _, err := p.IssueAccess("s1", "u1", "t1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	forged := token[:len(token)-4] + "AAAA"
	if _, err := p.ValidateAccess(forged); !errors.Is(err, apperr.ErrTokenInvalid) {
		t.Errorf("forged signature: want ErrTokenInvalid, got %v", err)
	}
}
