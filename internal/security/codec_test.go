package security

import (
	"strings"
	"testing"
	"time"
)

// testKey is a fixed 32-byte key for deterministic codec construction.
var testKey = []byte("0123456789abcdef0123456789abcdef")

// newTestCodec returns a codec pinned to a controllable clock.
func newTestCodec(t *testing.T, now *time.Time) *ResetTokenCodec {
	t.Helper()
	codec, err := NewResetTokenCodec(testKey, func() time.Time { return *now })
	if err != nil {
		t.Fatalf("NewResetTokenCodec: %v", err)
	}
	return codec
}

func TestCodec_RoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, &now)

	token, err := codec.Encode(42, "user@example.com")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// URL-safe, no padding.
	if strings.ContainsAny(token, "+/=") {
		t.Errorf("token is not base64url without padding: %s", token)
	}

	payload, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.UserID != 42 {
		t.Errorf("expected user id 42, got %d", payload.UserID)
	}
	if payload.Email != "user@example.com" {
		t.Errorf("expected email user@example.com, got %s", payload.Email)
	}
	if payload.ExpiresAt != now.Add(ResetBlobTTL).Unix() {
		t.Errorf("expected expiry %d, got %d", now.Add(ResetBlobTTL).Unix(), payload.ExpiresAt)
	}
	if payload.Nonce == "" {
		t.Error("expected non-empty payload nonce")
	}
}

func TestCodec_TokensNeverCollide(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, &now)

	t1, err := codec.Encode(1, "same@example.com")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	t2, err := codec.Encode(1, "same@example.com")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if t1 == t2 {
		t.Error("two tokens for the same user collided")
	}
}

func TestCodec_Expired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, &now)

	token, err := codec.Encode(7, "late@example.com")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Still valid just inside the window.
	now = now.Add(ResetBlobTTL - time.Minute)
	if _, err := codec.Decode(token); err != nil {
		t.Fatalf("expected valid token inside TTL, got %v", err)
	}

	// Invalid once the window elapses.
	now = now.Add(2 * time.Minute)
	if _, err := codec.Decode(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestCodec_GarbageInput(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, &now)

	for _, token := range []string{
		"",
		"not base64!!",
		"dG9vc2hvcnQ", // valid base64url but shorter than the nonce
		strings.Repeat("A", 200),
	} {
		if _, err := codec.Decode(token); err == nil {
			t.Errorf("expected error for %q", token)
		}
	}
}

func TestCodec_Tampered(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, &now)

	token, err := codec.Encode(9, "victim@example.com")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Flip a character in the middle of the blob.
	mid := len(token) / 2
	flipped := byte('A')
	if token[mid] == 'A' {
		flipped = 'B'
	}
	tampered := token[:mid] + string(flipped) + token[mid+1:]

	if _, err := codec.Decode(tampered); err == nil {
		t.Error("expected tampered token to be rejected")
	}
}

func TestCodec_WrongKey(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, &now)

	otherKey := []byte("ffffffffffffffffffffffffffffffff")
	other, err := NewResetTokenCodec(otherKey, func() time.Time { return now })
	if err != nil {
		t.Fatalf("NewResetTokenCodec: %v", err)
	}

	token, err := codec.Encode(3, "user@example.com")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := other.Decode(token); err == nil {
		t.Error("expected token encrypted under a different key to be rejected")
	}
}

func TestCodec_RejectsBadKeySize(t *testing.T) {
	if _, err := NewResetTokenCodec([]byte("short"), nil); err == nil {
		t.Error("expected error for short key")
	}
}
