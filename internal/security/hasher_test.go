package security

import (
	"strings"
	"testing"
)

func TestHash_UniqueSalts(t *testing.T) {
	h := NewHasher()

	hash1, salt1, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	hash2, salt2, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	if salt1 == salt2 {
		t.Error("expected different salts for two hash calls")
	}
	if hash1 == hash2 {
		t.Error("expected different hashes for two hash calls")
	}

	// Both pairs must verify the original password.
	if !h.Verify("correct horse battery staple", hash1, salt1) {
		t.Error("first pair did not verify")
	}
	if !h.Verify("correct horse battery staple", hash2, salt2) {
		t.Error("second pair did not verify")
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	h := NewHasher()

	hash, salt, err := h.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	if h.Verify("secret124", hash, salt) {
		t.Error("wrong password verified")
	}
	if h.Verify("", hash, salt) {
		t.Error("empty password verified")
	}
	if h.Verify("secret123", hash, "d2hhdGV2ZXI=") {
		t.Error("wrong salt verified")
	}
}

func TestSplitCredential(t *testing.T) {
	h := NewHasher()

	hash, salt, err := h.Hash("pw")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	stored := h.Credential(hash, salt)

	gotHash, gotSalt, err := h.SplitCredential(stored)
	if err != nil {
		t.Fatalf("SplitCredential returned error: %v", err)
	}
	if gotHash != hash || gotSalt != salt {
		t.Errorf("round trip mismatch: got (%s, %s)", gotHash, gotSalt)
	}
}

func TestSplitCredential_Malformed(t *testing.T) {
	h := NewHasher()

	for _, stored := range []string{"", "nocolon", ":onlysalt", "onlyhash:"} {
		if _, _, err := h.SplitCredential(stored); err == nil {
			t.Errorf("expected error for %q", stored)
		}
	}
}

func TestSplitCredential_SaltWithColon(t *testing.T) {
	h := NewHasher()

	// Base64 never contains colons, but the split must still take the
	// FIRST colon as the separator.
	gotHash, gotSalt, err := h.SplitCredential("aaa:bbb:ccc")
	if err != nil {
		t.Fatalf("SplitCredential returned error: %v", err)
	}
	if gotHash != "aaa" {
		t.Errorf("expected hash 'aaa', got %q", gotHash)
	}
	if !strings.Contains(gotSalt, ":") {
		t.Errorf("expected remainder to keep the second colon, got %q", gotSalt)
	}
}
