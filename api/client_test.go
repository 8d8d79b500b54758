package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func TestPostSendsHeadersAndBody(t *testing.T) {
	var got *http.Request
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"ok","data":{"token":"t-1"}}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL + "/", Tokens: staticTokens("abc")})
	ctx := WithRequestID(context.Background(), "req-1")
	resp, err := c.Post(ctx, "/auth/login", map[string]string{"identifier": "Trio"})
	require.NoError(t, err)

	assert.Equal(t, "/auth/login", got.URL.Path)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "Bearer abc", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, acceptHeader, got.Header.Get("Accept"))
	assert.Equal(t, "req-1", got.Header.Get("X-Request-ID"))
	assert.Equal(t, "Trio", body["identifier"])

	assert.True(t, resp.Acknowledged())
	assert.Equal(t, "ok", resp.Message("fallback"))
	assert.Equal(t, "t-1", resp.Token())
	assert.Equal(t, "req-1", resp.RequestID)
}

func TestPostOmitsAuthorizationWithoutToken(t *testing.T) {
	var auth, reqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		reqID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Tokens: staticTokens("")})
	resp, err := c.Post(context.Background(), "otp/send-otp", map[string]string{})
	require.NoError(t, err)
	assert.Empty(t, auth)
	assert.NotEmpty(t, reqID, "request id is generated when absent")
	assert.True(t, resp.Acknowledged(), "bare 200 acknowledges")
	assert.Equal(t, "fallback", resp.Message("fallback"))
}

func TestPostReturnsRejectionsAsResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid credentials"}`))
	}))
	defer srv.Close()

	resp, err := NewClient(Options{BaseURL: srv.URL}).Post(context.Background(), "/auth/login", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.False(t, resp.Acknowledged())
	assert.Equal(t, "Invalid credentials", resp.Message("Login failed"))
}

func TestSuccessFlagAcknowledgesNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"token":"top"}`))
	}))
	defer srv.Close()

	resp, err := NewClient(Options{BaseURL: srv.URL}).Post(context.Background(), "/auth/register", nil)
	require.NoError(t, err)
	assert.True(t, resp.Acknowledged())
	assert.Equal(t, "top", resp.Token())
}

func TestPlainTextBodyBecomesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("Bad Gateway\nupstream down"))
	}))
	defer srv.Close()

	resp, err := NewClient(Options{BaseURL: srv.URL}).Post(context.Background(), "/auth/login", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bad Gateway", resp.Message(""))
}

func TestPostTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(Options{BaseURL: url}).Post(context.Background(), "/auth/login", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "/auth/login", te.Path)
}

func TestPostTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Post(context.Background(), "/auth/login", nil)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Options{})
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.http.Timeout)
}
