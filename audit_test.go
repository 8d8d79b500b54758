package erpauth

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainEvents(t *testing.T, sink *ChannelSink, n int) []AuditEvent {
	t.Helper()
	out := make([]AuditEvent, 0, n)
	for len(out) < n {
		select {
		case ev := <-sink.Events():
			out = append(out, ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("expected %d audit events, got %d", n, len(out))
		}
	}
	return out
}

func TestAuditLoginLockoutEvents(t *testing.T) {
	api := newFakeAPI(t)
	api.respond("/auth/login", http.StatusUnauthorized, `{"message":"Invalid credentials"}`)
	sink := NewChannelSink(16)
	c, err := New().WithConfig(testConfig(api.srv.URL)).WithAuditSink(sink).Build()
	require.NoError(t, err)
	defer c.Close()

	form := c.LoginForm()
	ctx := WithRequestID(context.Background(), "req-42")
	for i := 0; i < 3; i++ {
		form.SetIdentifier("Trio01")
		form.SetPassword("hunter22")
		_, _ = form.Submit(ctx)
	}

	events := drainEvents(t, sink, 4)
	for _, ev := range events[:3] {
		assert.Equal(t, "login_failed", ev.EventType)
		assert.Equal(t, "login", ev.Flow)
		assert.Equal(t, "Trio01", ev.Subject)
		assert.False(t, ev.Success)
		assert.Equal(t, "req-42", ev.RequestID)
	}
	assert.Equal(t, "login_locked", events[3].EventType)
	assert.Equal(t, "3", events[3].Metadata["rejected"])

	for _, ev := range events {
		for _, v := range ev.Metadata {
			assert.NotContains(t, v, "hunter22")
		}
		assert.NotContains(t, ev.Error, "hunter22")
	}

	calls := api.calls("/auth/login")
	require.Len(t, calls, 3)
	assert.Equal(t, "req-42", calls[0].RequestID)
}

func TestAuditRegistrationEvents(t *testing.T) {
	api := okAPI(t)
	sink := NewChannelSink(16)
	c, err := New().WithConfig(testConfig(api.srv.URL)).WithAuditSink(sink).Build()
	require.NoError(t, err)
	defer c.Close()

	r := verifiedRegistration(t, c)
	require.NoError(t, r.SetPassword("long-enough"))
	_, err = r.Submit(context.Background())
	require.NoError(t, err)

	events := drainEvents(t, sink, 3)
	types := []string{events[0].EventType, events[1].EventType, events[2].EventType}
	assert.Equal(t, []string{"otp_sent", "otp_verified", "register_success"}, types)
	for _, ev := range events {
		assert.Equal(t, "registration", ev.Flow)
		assert.Equal(t, "asha@triovisioninternational.com", ev.Subject)
		assert.True(t, ev.Success)
		assert.NotEmpty(t, ev.RequestID, "request id comes from the X-Request-ID header")
	}
}

func TestAuditJSONWriterSinkThroughClient(t *testing.T) {
	var buf bytes.Buffer
	c, err := New().WithAuditSink(NewJSONWriterSink(&buf)).Build()
	require.NoError(t, err)

	require.NoError(t, c.Logout(context.Background()))
	c.Close()

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, `"event_type":"logout"`)
	assert.Contains(t, line, `"flow":"session"`)
}
