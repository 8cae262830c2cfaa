// Package security implements the credential hasher, the encrypted
// password-reset token codec, and the bearer/refresh token issuer. All state
// (keys, secrets, clock) is injected at construction so nothing in this
// package reads the environment or global time directly.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/moodtracker/backend/internal/apperror"
)

// saltSize is the number of random bytes generated per hash operation.
const saltSize = 32

// Hasher salts and hashes passwords. Stored credentials are the colon-joined
// pair "hashBase64:saltBase64". The hash is SHA-256 over the UTF-8 password
// concatenated with the base64 text of the salt, so the salt string itself
// (not its raw bytes) is part of the digest input.
type Hasher struct{}

// NewHasher creates a password hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// Hash generates a fresh 32-byte random salt and returns the base64 hash and
// salt. The salt is never reused: two calls with the same password produce
// different pairs, both of which verify.
func (h *Hasher) Hash(password string) (hashB64, saltB64 string, err error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", "", fmt.Errorf("generating salt: %w", err)
	}
	saltB64 = base64.StdEncoding.EncodeToString(salt)
	return computeHash(password, saltB64), saltB64, nil
}

// Verify recomputes the hash for the given password and salt and compares it
// against the stored hash in constant time.
func (h *Hasher) Verify(password, hashB64, saltB64 string) bool {
	computed := computeHash(password, saltB64)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hashB64)) == 1
}

// Credential joins a hash and salt into the stored "hash:salt" form.
func (h *Hasher) Credential(hashB64, saltB64 string) string {
	return hashB64 + ":" + saltB64
}

// SplitCredential splits a stored "hash:salt" credential on the first colon.
// Returns a bad-request error when the stored value has no colon.
func (h *Hasher) SplitCredential(stored string) (hashB64, saltB64 string, err error) {
	hashB64, saltB64, ok := strings.Cut(stored, ":")
	if !ok || hashB64 == "" || saltB64 == "" {
		return "", "", apperror.NewBadRequest("malformed stored credential")
	}
	return hashB64, saltB64, nil
}

// computeHash is the shared digest: SHA-256(password ++ saltBase64), base64.
func computeHash(password, saltB64 string) string {
	sum := sha256.Sum256([]byte(password + saltB64))
	return base64.StdEncoding.EncodeToString(sum[:])
}
