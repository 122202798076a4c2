package apikey

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher computes a one-way fingerprint of a plaintext credential.
// Fingerprints are deterministic so they can serve as a unique index
// key for lookup; the plaintext is never recoverable from them.
type Hasher interface {
	Hash(plaintext string) string
}

// SHA256Hasher hashes credentials with SHA-256 over plaintext plus a
// server-side salt. An empty salt is permitted but discouraged.
type SHA256Hasher struct {
	salt string
}

// NewSHA256Hasher creates a hasher with the given salt.
func NewSHA256Hasher(salt string) *SHA256Hasher {
	return &SHA256Hasher{salt: salt}
}

// Hash returns the hex-encoded SHA-256 digest of plaintext+salt.
func (h *SHA256Hasher) Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext + h.salt))
	return hex.EncodeToString(sum[:])
}

var _ Hasher = (*SHA256Hasher)(nil)
