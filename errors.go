package erpauth

import (
	"errors"
	"time"

	"github.com/triovision/erpauth/internal/limiters"
)

var (
	// ErrValidation indicates local input checks failed; no request was sent.
	ErrValidation = errors.New("validation failed")
	// ErrRejected indicates the server responded without acknowledging the action.
	ErrRejected = errors.New("rejected by server")
	// ErrTransport indicates no response was obtained from the server.
	ErrTransport = errors.New("server unreachable")
	// ErrLoginLocked indicates the login form reached the failure threshold.
	ErrLoginLocked = errors.New("login locked")
	// ErrBusy indicates the same action already has a request outstanding.
	ErrBusy = errors.New("request already in progress")
	// ErrStaleResponse indicates a response arrived after the form moved on and was discarded.
	ErrStaleResponse = errors.New("stale response discarded")
	// ErrEmailNotVerified indicates registration was attempted before OTP verification.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrOTPNotSent indicates verification was attempted before an OTP was dispatched.
	ErrOTPNotSent = errors.New("otp not sent")
	// ErrPasswordLocked indicates the password field is disabled until the email is verified.
	ErrPasswordLocked = errors.New("password locked until email verified")
	// ErrInvalidTransition indicates the action is not available in the current stage.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrOTPThrottled indicates the client-side OTP policy denied the request.
	ErrOTPThrottled = errors.New("otp throttled")
	// ErrNotSignedIn indicates no session token is present.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrClientNotReady indicates the Client was not built through Builder.Build.
	ErrClientNotReady = errors.New("client not initialized")
)

// StatusError carries the single-line message shown to the user along with the
// error kind (one of the sentinels above) and the underlying cause.
type StatusError struct {
	Kind    error
	Message string
	Cause   error
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "unknown error"
}

func (e *StatusError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

func newStatusError(kind error, message string, cause error) error {
	return &StatusError{Kind: kind, Message: message, Cause: cause}
}

// UserMessage returns the text to display for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Error()
	}
	return err.Error()
}

// RetryAfter returns how long to wait before retrying a throttled OTP request.
func RetryAfter(err error) (time.Duration, bool) {
	var le *limiters.LimitError
	if errors.As(err, &le) {
		return le.RetryAfter, true
	}
	return 0, false
}
