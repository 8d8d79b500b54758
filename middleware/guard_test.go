package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triovision/erpauth/jwt"
)

func newManager(t *testing.T, secret string) *jwt.Manager {
	t.Helper()
	m, err := jwt.NewManager(jwt.Config{Secret: []byte(secret), TTL: time.Hour, Issuer: "erp"})
	require.NoError(t, err)
	return m
}

func TestGuard(t *testing.T) {
	tokens := newManager(t, "0123456789abcdef0123456789abcdef")
	valid, err := tokens.Issue("Trio042", "asha", "asha@triovisioninternational.com")
	require.NoError(t, err)
	foreign, err := newManager(t, "ffffffffffffffffffffffffffffffff").Issue("Trio042", "", "")
	require.NoError(t, err)

	var seen string
	h := Guard(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		seen = claims.UserID
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + valid, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
	assert.Equal(t, "Trio042", seen)
}

func TestGuardNilManager(t *testing.T) {
	h := Guard(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClaimsFromContextEmpty(t *testing.T) {
	_, ok := ClaimsFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
