package jwt

import (
	"testing"
	"time"
)

// FuzzParse exercises the verifying parser and the display decoder with arbitrary input.
func FuzzParse(f *testing.F) {
	m, err := NewManager(Config{Secret: []byte("fuzz-secret-fuzz-secret"), TTL: 5 * time.Minute, Issuer: "fuzz"})
	if err != nil {
		f.Fatal(err)
	}
	valid, err := m.Issue("Trio", "asha", "asha@x.com")
	if err != nil {
		f.Fatal(err)
	}

	f.Add(valid)
	f.Add("")
	f.Add("a.b.c")
	f.Add("eyJhbGciOiJub25lIn0.e30.")

	f.Fuzz(func(t *testing.T, token string) {
		if claims, err := m.Parse(token); err == nil && claims == nil {
			t.Fatal("nil claims without error")
		}
		_, _ = Decode(token)
	})
}
