package devserver

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triovision/erpauth"
)

// newEndToEnd serves the dev API over a real listener and points a client at it.
func newEndToEnd(t *testing.T) (*erpauth.Client, *captureMailer) {
	t.Helper()
	s, mailer := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	cfg := erpauth.DefaultConfig()
	cfg.API.BaseURL = srv.URL + "/api"
	cfg.API.Timeout = 5 * time.Second
	cfg.Registration.RedirectDelay = 0
	cfg.PasswordReset.CloseDelay = 10 * time.Millisecond

	c, err := erpauth.New().WithConfig(cfg).Build()
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, mailer
}

func registerThroughClient(t *testing.T, c *erpauth.Client, mailer *captureMailer) {
	t.Helper()
	ctx := context.Background()
	r := c.NewRegistration()
	r.SetTrioID("Trio042")
	r.SetEmail("asha")
	r.SetUsername("asha")
	_, err := r.SendOTP(ctx)
	require.NoError(t, err)

	email, ok := r.CanonicalEmail()
	require.True(t, ok)
	require.Equal(t, testEmail, email)
	code, ok := mailer.last(email)
	require.True(t, ok)

	require.NoError(t, r.SetOTP(code.Code))
	_, err = r.VerifyOTP(ctx)
	require.NoError(t, err)
	require.NoError(t, r.SetPassword("correct-horse"))
	res, err := r.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/login", res.Redirect)
}

func TestClientRegisterLoginWhoami(t *testing.T) {
	c, mailer := newEndToEnd(t)
	registerThroughClient(t, c, mailer)

	form := c.LoginForm()
	form.SetIdentifier("Trio042")
	form.SetPassword("correct-horse")
	res, err := form.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, res.TokenStored)
	assert.Equal(t, "/dashboard", res.Redirect)

	info, err := c.Whoami()
	require.NoError(t, err)
	assert.Equal(t, "Trio042", info.UserID)
	assert.Equal(t, "asha", info.UserName)
	assert.Equal(t, testEmail, info.Email)
}

func TestClientLockoutAgainstServer(t *testing.T) {
	c, mailer := newEndToEnd(t)
	registerThroughClient(t, c, mailer)
	ctx := context.Background()

	form := c.LoginForm()
	for i := 0; i < 2; i++ {
		form.SetIdentifier("Trio042")
		form.SetPassword("wrong-horse")
		_, err := form.Submit(ctx)
		require.ErrorIs(t, err, erpauth.ErrRejected)
		assert.Equal(t, "Invalid credentials", erpauth.UserMessage(err))
	}
	form.SetIdentifier("Trio042")
	form.SetPassword("wrong-horse")
	_, err := form.Submit(ctx)
	require.ErrorIs(t, err, erpauth.ErrLoginLocked)

	form.SetIdentifier("Trio042")
	form.SetPassword("correct-horse")
	_, err = form.Submit(ctx)
	assert.True(t, errors.Is(err, erpauth.ErrLoginLocked), "correct password is not sent once locked")
}

func TestClientPasswordResetAgainstServer(t *testing.T) {
	c, mailer := newEndToEnd(t)
	registerThroughClient(t, c, mailer)
	ctx := context.Background()

	p := c.NewPasswordReset()
	require.NoError(t, p.SetEmail(" ASHA@triovisioninternational.com "))
	_, err := p.SendOTP(ctx)
	require.NoError(t, err)
	require.Equal(t, erpauth.ResetStepOTP, p.Step())

	code, ok := mailer.last(testEmail)
	require.True(t, ok)
	require.NoError(t, p.SetOTP(code.Code))
	_, err = p.VerifyOTP(ctx)
	require.NoError(t, err)
	require.Equal(t, erpauth.ResetStepReset, p.Step())

	_, err = p.Submit(ctx, "battery-staple", "battery-staple")
	require.NoError(t, err)
	select {
	case <-p.Closed():
	case <-time.After(2 * time.Second):
		t.Fatal("reset modal did not close")
	}

	form := c.LoginForm()
	form.SetIdentifier(testEmail)
	form.SetPassword("battery-staple")
	_, err = form.Submit(ctx)
	require.NoError(t, err)
}

func TestClientWrongOTPIsServerDecided(t *testing.T) {
	c, _ := newEndToEnd(t)
	ctx := context.Background()
	r := c.NewRegistration()
	r.SetEmail("asha")
	_, err := r.SendOTP(ctx)
	require.NoError(t, err)

	require.NoError(t, r.SetOTP("not-the-code"))
	_, err = r.VerifyOTP(ctx)
	require.ErrorIs(t, err, erpauth.ErrRejected)
	assert.Equal(t, "Invalid OTP", erpauth.UserMessage(err))
	assert.False(t, r.Verified())
}
