package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/moodtracker/backend/internal/apperror"
)

// ResetBlobTTL is how long an encoded reset blob stays valid. The persisted
// reset row carries its own (longer) expiry; both are checked independently
// and the stricter one wins.
const ResetBlobTTL = 4 * time.Hour

// payloadNonceSize is the number of random bytes embedded in each payload so
// two tokens for the same (user, email, expiry) never collide.
const payloadNonceSize = 16

// ResetPayload is the structured content of an encrypted reset token.
// Fields are fixed and validated on decode; nothing is read dynamically.
type ResetPayload struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"expires_at"` // unix seconds
	Nonce     string `json:"nonce"`      // 16 random bytes, base64
}

// ResetTokenCodec turns a ResetPayload into a tamper-opaque URL-safe string
// and back, using AES-256-GCM with a fresh random nonce per token. The
// nonce is prepended to the ciphertext, and the whole blob is base64url
// encoded without padding so it survives query strings unescaped.
type ResetTokenCodec struct {
	aead cipher.AEAD
	now  func() time.Time
}

// NewResetTokenCodec constructs a codec from a 32-byte AES key. The now
// function drives expiry checks; pass time.Now in production.
func NewResetTokenCodec(key []byte, now func() time.Time) (*ResetTokenCodec, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("reset token key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &ResetTokenCodec{aead: aead, now: now}, nil
}

// Encode builds a reset payload for the user, encrypts it, and returns the
// URL-safe token string. Expiry is now + ResetBlobTTL.
func (c *ResetTokenCodec) Encode(userID int64, email string) (string, error) {
	nonce := make([]byte, payloadNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating payload nonce: %w", err)
	}

	payload := ResetPayload{
		UserID:    userID,
		Email:     email,
		ExpiresAt: c.now().Add(ResetBlobTTL).Unix(),
		Nonce:     base64.StdEncoding.EncodeToString(nonce),
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling reset payload: %w", err)
	}

	// Fresh GCM nonce per token, prepended: [nonce][ciphertext+tag].
	iv := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("generating iv: %w", err)
	}
	blob := c.aead.Seal(iv, iv, plaintext, nil)

	return base64.RawURLEncoding.EncodeToString(blob), nil
}

// Decode reverses Encode. It returns an invalid-token error (never a panic
// or an internal error) when the token is not valid base64url, fails
// decryption or authentication, carries a malformed payload, or has expired.
func (c *ResetTokenCodec) Decode(token string) (*ResetPayload, error) {
	blob, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, apperror.NewBadRequest("invalid or expired token")
	}

	ivSize := c.aead.NonceSize()
	if len(blob) < ivSize {
		return nil, apperror.NewBadRequest("invalid or expired token")
	}

	iv, ciphertext := blob[:ivSize], blob[ivSize:]
	plaintext, err := c.aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, apperror.NewBadRequest("invalid or expired token")
	}

	var payload ResetPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, apperror.NewBadRequest("invalid or expired token")
	}
	if payload.UserID <= 0 || payload.Email == "" || payload.Nonce == "" {
		return nil, apperror.NewBadRequest("invalid or expired token")
	}
	if payload.ExpiresAt < c.now().Unix() {
		return nil, apperror.NewBadRequest("invalid or expired token")
	}

	return &payload, nil
}
