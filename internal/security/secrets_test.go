package security

import (
	"strings"
	"testing"
)

func TestNewRefreshToken(t *testing.T) {
	a, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if len(a) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(a))
	}
	b, _ := NewRefreshToken()
	if a == b {
		t.Error("two refresh tokens should not collide")
	}
}

func TestNewAPIKey(t *testing.T) {
	raw, hash, err := NewAPIKey()
	if err != nil {
		t.Fatalf("NewAPIKey: %v", err)
	}
	if !strings.HasPrefix(raw, APIKeyPrefix) {
		t.Errorf("key %q should start with %q", raw, APIKeyPrefix)
	}
	if len(raw) != len(APIKeyPrefix)+32 {
		t.Errorf("key length = %d, want prefix + 32 hex chars", len(raw))
	}
	if hash != HashSecret(raw) {
		t.Error("returned hash should be HashSecret(raw)")
	}
	if strings.Contains(hash, raw) {
		t.Error("hash must not contain the raw key")
	}
}

func TestHashSecret_Deterministic(t *testing.T) {
	if HashSecret("tok") != HashSecret("tok") {
		t.Error("HashSecret must be deterministic")
	}
	if HashSecret("tok-a") == HashSecret("tok-b") {
		t.Error("different secrets should hash differently")
	}
	if len(HashSecret("")) != 64 {
		t.Errorf("hash length = %d, want 64 (SHA-256 hex)", len(HashSecret("")))
	}
}

func TestSecretHashEqual(t *testing.T) {
	stored := HashSecret("the-secret")
	if !SecretHashEqual("the-secret", stored) {
		t.Error("SecretHashEqual should match correct secret")
	}
	if SecretHashEqual("wrong", stored) {
		t.Error("SecretHashEqual should reject wrong secret")
	}
	if SecretHashEqual("the-secret", "a"+stored) {
		t.Error("SecretHashEqual should reject hash of different length")
	}
	if SecretHashEqual("", "") {
		t.Error("SecretHashEqual should not match empty stored hash")
	}
}
