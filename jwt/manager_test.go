package jwt

import (
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{Secret: []byte("dev-secret-dev-secret"), TTL: time.Hour, Issuer: "erp"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestIssueAndParse(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue("Trio", "asha", "asha@triovisioninternational.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "Trio" || claims.UserName != "asha" || claims.Subject != "Trio" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	m := newTestManager(t)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.Issue("Trio", "asha", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	m.now = time.Now
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseRejectsWrongSecretAndAlgorithm(t *testing.T) {
	m := newTestManager(t)

	other, err := NewManager(Config{Secret: []byte("another-secret-value"), TTL: time.Hour, Issuer: "erp"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, _ := other.Issue("Trio", "asha", "")
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected wrong secret to be rejected")
	}

	none := gjwt.NewWithClaims(gjwt.SigningMethodNone, Claims{UserID: "Trio"})
	unsigned, err := none.SignedString(gjwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := m.Parse(unsigned); err == nil {
		t.Fatal("expected alg=none to be rejected")
	}
}

func TestDecodeSkipsVerification(t *testing.T) {
	other, _ := NewManager(Config{Secret: []byte("another-secret-value"), TTL: time.Hour})
	token, _ := other.Issue("Trio", "asha", "asha@x.com")

	claims, err := Decode(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.Email != "asha@x.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, err := Decode("not-a-token"); err == nil {
		t.Fatal("expected malformed token error")
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{Secret: []byte("short"), TTL: time.Hour}); err == nil {
		t.Fatal("expected short secret error")
	}
	if _, err := NewManager(Config{Secret: []byte("dev-secret-dev-secret")}); err == nil {
		t.Fatal("expected ttl error")
	}
}
