package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/triovision/erpauth/internal/stores"
	"github.com/triovision/erpauth/password"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type sentCode struct {
	Code    string
	Purpose stores.Purpose
}

// captureMailer records the last code issued per email.
type captureMailer struct {
	mu    sync.Mutex
	codes map[string]sentCode
	sends int
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{codes: map[string]sentCode{}}
}

func (m *captureMailer) SendOTP(_ context.Context, email, code string, purpose stores.Purpose) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[email] = sentCode{Code: code, Purpose: purpose}
	m.sends++
	return nil
}

func (m *captureMailer) last(email string) (sentCode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[email]
	return c, ok
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sends
}

func testServerConfig() Config {
	cfg := DefaultConfig()
	cfg.JWTSecret = "0123456789abcdef0123456789abcdef"
	cfg.MaxOTPAttempts = 3
	cfg.Password = password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	return cfg
}

func newTestServer(t *testing.T) (*Server, *captureMailer) {
	t.Helper()
	mailer := newCaptureMailer()
	s, err := New(testServerConfig(), Options{Mailer: mailer})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, mailer
}

type reply struct {
	Status  int
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Token string `json:"token"`
	} `json:"data"`
}

func post(t *testing.T, h http.Handler, path string, body any) reply {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api"+path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out reply
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	out.Status = rec.Code
	return out
}
