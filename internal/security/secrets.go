package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// APIKeyPrefix marks generated API keys so they are recognizable in logs and
// support tickets without exposing the secret part.
const APIKeyPrefix = "ask_"

// NewRefreshToken returns a new opaque refresh token: 32 random bytes,
// hex-encoded. Only the hash (HashSecret) is ever persisted, so a database
// leak cannot be replayed.
func NewRefreshToken() (string, error) {
	return randomHex(32)
}

// NewAPIKey returns a new API key of the form "ask_" + 32 hex chars, plus the
// hash to persist. The raw key is shown to the caller once and never stored.
func NewAPIKey() (raw, hash string, err error) {
	s, err := randomHex(16)
	if err != nil {
		return "", "", err
	}
	raw = APIKeyPrefix + s
	return raw, HashSecret(raw), nil
}

// HashSecret returns the hex-encoded SHA-256 hash of a high-entropy secret
// (refresh token or API key). Low-entropy secrets such as passwords go through
// Hasher instead.
func HashSecret(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}

// SecretHashEqual reports whether the provided secret hashes to storedHash,
// using a constant-time comparison.
func SecretHashEqual(providedSecret, storedHash string) bool {
	providedHash := HashSecret(providedSecret)
	return subtle.ConstantTimeCompare([]byte(providedHash), []byte(storedHash)) == 1
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
