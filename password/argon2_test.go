package password

import (
	"errors"
	"strings"
	"testing"
)

func testHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}
	return h
}

func TestHashAndVerify(t *testing.T) {
	h := testHasher(t)

	hash, err := h.Hash("Trio@2024")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := h.Verify("Trio@2024", hash)
	if err != nil || !ok {
		t.Fatalf("expected verification success, ok=%v err=%v", ok, err)
	}
	ok, err = h.Verify("Trio@2025", hash)
	if err != nil || ok {
		t.Fatalf("expected verification failure, ok=%v err=%v", ok, err)
	}
}

func TestHashRejectsShortPassword(t *testing.T) {
	h := testHasher(t)
	if _, err := h.Hash("1234567"); !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
	// Eight multi-byte characters are long enough.
	if _, err := h.Hash("ååååååå1"); err != nil {
		t.Fatalf("expected rune-length check, got %v", err)
	}
}

func TestHashesAreSalted(t *testing.T) {
	h := testHasher(t)
	a, _ := h.Hash("password1")
	b, _ := h.Hash("password1")
	if a == b {
		t.Fatal("expected distinct salts")
	}
}

func TestVerifyMalformed(t *testing.T) {
	h := testHasher(t)
	cases := []string{
		"",
		"plain",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$short$aGFzaA",
	}
	for _, c := range cases {
		if _, err := h.Verify("password1", c); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("expected ErrMalformedHash for %q, got %v", c, err)
		}
	}
}

func TestNewHasherValidatesConfig(t *testing.T) {
	if _, err := NewHasher(Config{}); err == nil {
		t.Fatal("expected zero config to be rejected")
	}
	if _, err := NewHasher(DefaultConfig()); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}
