package internal

import "testing"

func TestNewOTP(t *testing.T) {
	for _, digits := range []int{4, 6, 10} {
		code, err := NewOTP(digits)
		if err != nil {
			t.Fatalf("NewOTP(%d): %v", digits, err)
		}
		if len(code) != digits {
			t.Fatalf("expected %d digits, got %q", digits, code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit in %q", code)
			}
		}
	}
	if _, err := NewOTP(3); err == nil {
		t.Fatal("expected error for 3 digits")
	}
	if _, err := NewOTP(11); err == nil {
		t.Fatal("expected error for 11 digits")
	}
}

func TestHashOTPTrimsInput(t *testing.T) {
	if HashOTP(" 123456 ") != HashOTP("123456") {
		t.Fatal("expected surrounding whitespace to be ignored")
	}
	if HashOTP("123456") == HashOTP("123457") {
		t.Fatal("expected distinct digests")
	}
}

func TestNewSecret(t *testing.T) {
	a, err := NewSecret(32)
	if err != nil {
		t.Fatalf("NewSecret: %v", err)
	}
	b, _ := NewSecret(32)
	if len(a) != 32 || string(a) == string(b) {
		t.Fatal("expected 32 distinct random bytes")
	}
	if _, err := NewSecret(0); err == nil {
		t.Fatal("expected error for size 0")
	}
}
