package limiters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/triovision/erpauth/internal/rate"
)

var (
	// ErrOTPLimited indicates the caller must wait before dispatching or verifying again.
	ErrOTPLimited = errors.New("otp limited")
	// ErrOTPLimiterUnavailable indicates the counter backend failed.
	ErrOTPLimiterUnavailable = errors.New("otp limiter unavailable")
)

// LimitError reports how long the caller has to wait.
type LimitError struct {
	Scope      string
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: %s limited, retry in %s", ErrOTPLimited, e.Scope, e.RetryAfter.Round(time.Second))
}

func (e *LimitError) Unwrap() error {
	return ErrOTPLimited
}

// OTPConfig holds the OTP throttle policy. Zero values disable the matching check.
type OTPConfig struct {
	ResendCooldown    time.Duration
	MaxSends          int
	SendWindow        time.Duration
	MaxVerifyAttempts int
	VerifyWindow      time.Duration
}

// OTPLimiter throttles OTP dispatch and verification per canonical address.
type OTPLimiter struct {
	window rate.Window
	config OTPConfig
}

// NewOTPLimiter creates an [OTPLimiter] on top of window.
func NewOTPLimiter(window rate.Window, cfg OTPConfig) *OTPLimiter {
	return &OTPLimiter{
		window: window,
		config: cfg,
	}
}

// CheckSend reports whether a dispatch to address is currently allowed. It
// does not charge the budget; call [OTPLimiter.RecordSend] once the server
// acknowledged the dispatch.
func (l *OTPLimiter) CheckSend(ctx context.Context, flow, address string) error {
	if l == nil || l.window == nil {
		return nil
	}
	address = normalizeAddress(address)

	if l.config.ResendCooldown > 0 {
		remaining, err := l.window.Remaining(ctx, cooldownKey(flow, address))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrOTPLimiterUnavailable, err)
		}
		if remaining > 0 {
			return &LimitError{Scope: "resend", RetryAfter: remaining}
		}
	}

	if l.config.MaxSends > 0 && l.config.SendWindow > 0 {
		key := sendKey(flow, address)
		count, err := l.window.Count(ctx, key)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrOTPLimiterUnavailable, err)
		}
		if count >= int64(l.config.MaxSends) {
			remaining, _ := l.window.Remaining(ctx, key)
			return &LimitError{Scope: "send", RetryAfter: remaining}
		}
	}
	return nil
}

// RecordSend charges an acknowledged dispatch to address: it counts against
// the send window and starts the resend cooldown.
func (l *OTPLimiter) RecordSend(ctx context.Context, flow, address string) error {
	if l == nil || l.window == nil {
		return nil
	}
	address = normalizeAddress(address)

	if l.config.MaxSends > 0 && l.config.SendWindow > 0 {
		if _, err := l.window.Incr(ctx, sendKey(flow, address), l.config.SendWindow); err != nil {
			return fmt.Errorf("%w: %v", ErrOTPLimiterUnavailable, err)
		}
	}
	if l.config.ResendCooldown > 0 {
		if _, err := l.window.Incr(ctx, cooldownKey(flow, address), l.config.ResendCooldown); err != nil {
			return fmt.Errorf("%w: %v", ErrOTPLimiterUnavailable, err)
		}
	}
	return nil
}

// CheckVerify records a verification attempt for address.
func (l *OTPLimiter) CheckVerify(ctx context.Context, flow, address string) error {
	if l == nil || l.window == nil || l.config.MaxVerifyAttempts <= 0 || l.config.VerifyWindow <= 0 {
		return nil
	}
	key := verifyKey(flow, normalizeAddress(address))
	count, err := l.window.Incr(ctx, key, l.config.VerifyWindow)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOTPLimiterUnavailable, err)
	}
	if count > int64(l.config.MaxVerifyAttempts) {
		remaining, _ := l.window.Remaining(ctx, key)
		return &LimitError{Scope: "verify", RetryAfter: remaining}
	}
	return nil
}

// CooldownRemaining returns the time left before another dispatch to address is allowed.
func (l *OTPLimiter) CooldownRemaining(ctx context.Context, flow, address string) time.Duration {
	if l == nil || l.window == nil || l.config.ResendCooldown <= 0 {
		return 0
	}
	remaining, err := l.window.Remaining(ctx, cooldownKey(flow, normalizeAddress(address)))
	if err != nil {
		return 0
	}
	return remaining
}

// ResetVerify clears the verification budget after a successful verification.
func (l *OTPLimiter) ResetVerify(ctx context.Context, flow, address string) error {
	if l == nil || l.window == nil {
		return nil
	}
	if err := l.window.Reset(ctx, verifyKey(flow, normalizeAddress(address))); err != nil {
		return fmt.Errorf("%w: %v", ErrOTPLimiterUnavailable, err)
	}
	return nil
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func cooldownKey(flow, address string) string {
	return "otpc:" + flow + ":" + address
}

func sendKey(flow, address string) string {
	return "otps:" + flow + ":" + address
}

func verifyKey(flow, address string) string {
	return "otpv:" + flow + ":" + address
}
