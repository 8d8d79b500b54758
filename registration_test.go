package erpauth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := newFakeAPI(t)
	api.respond("/otp/send-otp", http.StatusOK, `{"success":true}`)
	api.respond("/otp/resend-otp", http.StatusOK, `{"success":true,"message":"OTP resent."}`)
	api.respond("/otp/verify-otp", http.StatusOK, `{"success":true}`)
	api.respond("/auth/register", http.StatusCreated, `{"success":true}`)
	return api
}

// verifiedRegistration drives a registration to StageOTPVerified for asha@<org>.
func verifiedRegistration(t *testing.T, c *Client) *Registration {
	t.Helper()
	ctx := context.Background()
	r := c.NewRegistration()
	r.SetEmail("asha")
	_, err := r.SendOTP(ctx)
	require.NoError(t, err)
	require.NoError(t, r.SetOTP("123456"))
	_, err = r.VerifyOTP(ctx)
	require.NoError(t, err)
	return r
}

func TestRegistrationEmailAutocompleteAndFrozenCanonical(t *testing.T) {
	api := okAPI(t)
	c := newTestClient(t, testConfig(api.srv.URL))
	r := c.NewRegistration()

	assert.Equal(t, "a", r.SetEmail("a"))
	assert.Equal(t, "a@triovisioninternational.com", r.SetEmail("a@"))
	assert.Equal(t, "a", r.Draft().Username)
	assert.Equal(t, "Trio", r.Draft().TrioID)
	assert.Equal(t, "Send OTP", r.SendLabel())

	r.SetEmail("Asha")
	notice, err := r.SendOTP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OTP sent to your email.", notice.Message)

	email, ok := r.CanonicalEmail()
	require.True(t, ok)
	assert.Equal(t, "asha@triovisioninternational.com", email)
	assert.Equal(t, "Resend OTP", r.SendLabel())

	calls := api.calls("/otp/send-otp")
	require.Len(t, calls, 1)
	assert.Equal(t, "asha@triovisioninternational.com", calls[0].Body["email"])
	assert.Equal(t, "a", calls[0].Body["userName"])
}

func TestRegistrationEmailEditAfterSendRestarts(t *testing.T) {
	api := okAPI(t)
	c := newTestClient(t, testConfig(api.srv.URL))
	r := c.NewRegistration()
	r.SetEmail("asha")
	_, err := r.SendOTP(context.Background())
	require.NoError(t, err)
	require.NoError(t, r.SetOTP("111"))

	r.SetEmail("asha") // unchanged value keeps the stage
	assert.IsType(t, StageOTPSent{}, r.Stage())

	r.SetEmail("ashok")
	assert.IsType(t, StageEditing{}, r.Stage())
	assert.Equal(t, "Send OTP", r.SendLabel())
	assert.Empty(t, r.Draft().OTP)
	_, ok := r.CanonicalEmail()
	assert.False(t, ok)

	err = r.SetOTP("222")
	assert.ErrorIs(t, err, ErrOTPNotSent)
}

func TestRegistrationFullAddressEditRevertsLabel(t *testing.T) {
	api := okAPI(t)
	c := newTestClient(t, testConfig(api.srv.URL))
	r := c.NewRegistration()
	ctx := context.Background()

	assert.Equal(t, "A@X.com", r.SetEmail("A@X.com"))
	_, err := r.SendOTP(ctx)
	require.NoError(t, err)
	email, ok := r.CanonicalEmail()
	require.True(t, ok)
	assert.Equal(t, "a@x.com", email)
	assert.Equal(t, "Resend OTP", r.SendLabel())

	assert.Equal(t, "a@x.co", r.SetEmail("a@x.co"))
	assert.IsType(t, StageEditing{}, r.Stage())
	assert.Equal(t, "Send OTP", r.SendLabel())
	_, ok = r.CanonicalEmail()
	assert.False(t, ok)

	_, err = r.SendOTP(ctx)
	require.NoError(t, err)
	calls := api.calls("/otp/send-otp")
	require.Len(t, calls, 2)
	assert.Equal(t, "a@x.com", calls[0].Body["email"])
	assert.Equal(t, "a@x.co", calls[1].Body["email"])
}

func TestRegistrationEmailEditAfterVerifyRestarts(t *testing.T) {
	api := okAPI(t)
	c := newTestClient(t, testConfig(api.srv.URL))
	r := verifiedRegistration(t, c)
	require.NoError(t, r.SetPassword("long-enough"))
	assert.IsType(t, StageSubmittable{}, r.Stage())

	r.SetEmail("other")
	assert.IsType(t, StageEditing{}, r.Stage())
	assert.False(t, r.Verified())
	_, err := r.Submit(context.Background())
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestRegistrationSendOTPValidation(t *testing.T) {
	api := okAPI(t)
	c := newTestClient(t, testConfig(api.srv.URL))
	r := c.NewRegistration()

	_, err := r.SendOTP(context.Background())
	assert.ErrorIs(t, err, ErrValidation)

	r.SetEmail("a b")
	assert.False(t, r.CanSendOTP())
	_, err = r.SendOTP(context.Background())
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, 0, api.total())
}

func TestRegistrationResendUsesConfiguredPath(t *testing.T) {
	api := okAPI(t)
	cfg := testConfig(api.srv.URL)
	cfg.Registration.UseResendEndpoint = true
	c := newTestClient(t, cfg)
	r := c.NewRegistration()
	r.SetEmail("asha")

	_, err := r.SendOTP(context.Background())
	require.NoError(t, err)
	notice, err := r.SendOTP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OTP resent.", notice.Message)
	assert.Len(t, api.calls("/otp/send-otp"), 1)
	assert.Len(t, api.calls("/otp/resend-otp"), 1)
}

func TestRegistrationVerifyOTPServerDecides(t *testing.T) {
	api := okAPI(t)
	api.respond("/otp/verify-otp", http.StatusBadRequest, `{"success":false}`)
	c := newTestClient(t, testConfig(api.srv.URL))
	r := c.NewRegistration()
	ctx := context.Background()

	_, err := r.VerifyOTP(ctx)
	assert.ErrorIs(t, err, ErrOTPNotSent)

	r.SetEmail("asha")
	_, err = r.SendOTP(ctx)
	require.NoError(t, err)

	_, err = r.VerifyOTP(ctx)
	assert.ErrorIs(t, err, ErrValidation, "empty otp is checked locally")

	require.NoError(t, r.SetOTP("999999"))
	_, err = r.VerifyOTP(ctx)
	require.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, "Verify OTP failed (server).", UserMessage(err))
	assert.IsType(t, StageOTPSent{}, r.Stage())

	api.respond("/otp/verify-otp", http.StatusOK, `{}`)
	_, err = r.VerifyOTP(ctx)
	require.NoError(t, err)
	assert.True(t, r.Verified())

	calls := api.calls("/otp/verify-otp")
	last := calls[len(calls)-1]
	assert.Equal(t, "asha@triovisioninternational.com", last.Body["email"])
	assert.Equal(t, "999999", last.Body["otp"])
	assert.Equal(t, "asha", last.Body["userName"])
}

func TestRegistrationPasswordLockedUntilVerified(t *testing.T) {
	api := okAPI(t)
	c := newTestClient(t, testConfig(api.srv.URL))
	r := c.NewRegistration()

	assert.ErrorIs(t, r.SetPassword("whatever1"), ErrPasswordLocked)

	r = verifiedRegistration(t, c)
	require.NoError(t, r.SetPassword("short"))
	assert.IsType(t, StageOTPVerified{}, r.Stage())
	require.NoError(t, r.SetPassword("12345678"))
	assert.IsType(t, StageSubmittable{}, r.Stage())
	require.NoError(t, r.SetPassword("1234567"))
	assert.IsType(t, StageOTPVerified{}, r.Stage())
	assert.ErrorIs(t, r.SetOTP("1"), ErrInvalidTransition)
}

func TestRegistrationSubmitRejectedLocallyWhenNotVerified(t *testing.T) {
	api := okAPI(t)
	c := newTestClient(t, testConfig(api.srv.URL))
	r := c.NewRegistration()
	r.SetEmail("asha")

	_, err := r.Submit(context.Background())
	require.ErrorIs(t, err, ErrEmailNotVerified)
	assert.Equal(t, "Please verify your email first.", UserMessage(err))
	assert.Empty(t, api.calls("/auth/register"))
}

func TestRegistrationSubmitFieldChecks(t *testing.T) {
	api := okAPI(t)
	c := newTestClient(t, testConfig(api.srv.URL))
	r := verifiedRegistration(t, c)
	ctx := context.Background()

	require.NoError(t, r.SetPassword("short"))
	_, err := r.Submit(ctx)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Password must be at least 8 characters.", UserMessage(err))

	require.NoError(t, r.SetPassword("long-enough"))
	r.SetTrioID(" ")
	_, err = r.Submit(ctx)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Please fill all fields.", UserMessage(err))

	assert.Empty(t, api.calls("/auth/register"))
}

func TestRegistrationSubmitSuccess(t *testing.T) {
	api := okAPI(t)
	cfg := testConfig(api.srv.URL)
	cfg.Registration.RedirectDelay = 900 * time.Millisecond
	c := newTestClient(t, cfg)
	r := verifiedRegistration(t, c)
	r.SetTrioID("Trio42")
	require.NoError(t, r.SetPassword("long-enough"))

	res, err := r.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Registration successful. Redirecting to login...", res.Message)
	assert.Equal(t, "/login", res.Redirect)
	assert.Equal(t, cfg.Registration.RedirectDelay, res.RedirectAfter)
	assert.IsType(t, StageRegistered{}, r.Stage())
	assert.Empty(t, r.Draft().Password)

	calls := api.calls("/auth/register")
	require.Len(t, calls, 1)
	body := calls[0].Body
	assert.Equal(t, "Trio42", body["userId"])
	assert.Equal(t, "asha", body["userName"])
	assert.Equal(t, "asha@triovisioninternational.com", body["email"])
	assert.Equal(t, "long-enough", body["password"])
	assert.Equal(t, "123456", body["otp"])

	_, err = r.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, "asha@triovisioninternational.com", r.SetEmail("changed"))
}

func TestRegistrationRejectedSubmitKeepsDraft(t *testing.T) {
	api := okAPI(t)
	api.respond("/auth/register", http.StatusConflict, `{"success":false,"message":"User already exists"}`)
	c := newTestClient(t, testConfig(api.srv.URL))
	r := verifiedRegistration(t, c)
	require.NoError(t, r.SetPassword("long-enough"))

	_, err := r.Submit(context.Background())
	require.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, "User already exists", UserMessage(err))
	assert.IsType(t, StageSubmittable{}, r.Stage())
	assert.Equal(t, "long-enough", r.Draft().Password)
}

func TestRegistrationStaleSendDiscarded(t *testing.T) {
	api := okAPI(t)
	g := newGate()
	api.handle("/otp/send-otp", g.wrap(http.StatusOK, `{"success":true}`))
	c := newTestClient(t, testConfig(api.srv.URL))
	r := c.NewRegistration()
	r.SetEmail("asha")

	done := make(chan error, 1)
	go func() {
		_, err := r.SendOTP(context.Background())
		done <- err
	}()
	g.waitEntered(t)

	send, _, _ := r.Pending()
	assert.True(t, send)
	assert.False(t, r.CanSendOTP())
	_, err := r.SendOTP(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	r.SetEmail("ashok")
	close(g.release)

	assert.ErrorIs(t, <-done, ErrStaleResponse)
	assert.IsType(t, StageEditing{}, r.Stage())
	assert.Equal(t, uint64(1), c.metrics.Value(MetricStaleResponse))
}

func TestRegistrationReset(t *testing.T) {
	api := okAPI(t)
	c := newTestClient(t, testConfig(api.srv.URL))
	r := verifiedRegistration(t, c)
	r.Reset()
	assert.IsType(t, StageEditing{}, r.Stage())
	assert.Equal(t, RegistrationDraft{TrioID: "Trio"}, r.Draft())
	assert.Equal(t, "", StageName(nil))
	assert.Equal(t, "otp_sent", StageName(StageOTPSent{}))
}
