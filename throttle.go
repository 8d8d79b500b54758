package erpauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/triovision/erpauth/internal/limiters"
	"go.uber.org/zap"
)

// OTPCooldown returns how long until another OTP may be dispatched to the
// canonical form of email in flow ("registration" or "password_reset").
// It is always zero when the throttle is disabled.
func (c *Client) OTPCooldown(ctx context.Context, flow, email string) time.Duration {
	if c == nil || c.throttle == nil {
		return 0
	}
	return c.throttle.CooldownRemaining(ctx, flow, email)
}

func (c *Client) checkOTPSend(ctx context.Context, flow, email string) error {
	if c.throttle == nil {
		return nil
	}
	return c.throttleResult(ctx, flow, email, c.throttle.CheckSend(ctx, flow, email))
}

// recordOTPSend charges an acknowledged dispatch. Backend failures are logged
// and otherwise ignored.
func (c *Client) recordOTPSend(ctx context.Context, flow, email string) {
	if c.throttle == nil {
		return
	}
	if err := c.throttle.RecordSend(ctx, flow, email); err != nil {
		c.logger.Warn("otp throttle record failed", zap.String("flow", flow), zap.Error(err))
	}
}

func (c *Client) checkOTPVerify(ctx context.Context, flow, email string) error {
	if c.throttle == nil {
		return nil
	}
	return c.throttleResult(ctx, flow, email, c.throttle.CheckVerify(ctx, flow, email))
}

func (c *Client) resetOTPVerify(ctx context.Context, flow, email string) {
	if c.throttle == nil {
		return
	}
	if err := c.throttle.ResetVerify(ctx, flow, email); err != nil {
		c.logger.Warn("otp throttle reset failed", zap.String("flow", flow), zap.Error(err))
	}
}

func (c *Client) throttleResult(ctx context.Context, flow, email string, err error) error {
	if err == nil {
		return nil
	}
	if !errors.Is(err, limiters.ErrOTPLimited) {
		// Counter backend failures fail open.
		c.logger.Warn("otp throttle unavailable", zap.String("flow", flow), zap.Error(err))
		return nil
	}

	var le *limiters.LimitError
	errors.As(err, &le)
	c.metrics.Inc(MetricOTPThrottled)
	c.emitAudit(ctx, flow, auditOTPThrottled, false, email, "", err, func() map[string]string {
		return map[string]string{
			"scope":       le.Scope,
			"retry_after": le.RetryAfter.String(),
		}
	})

	secs := int((le.RetryAfter + time.Second - 1) / time.Second)
	msg := fmt.Sprintf("Please wait %ds before requesting another OTP.", secs)
	if le.Scope == "verify" {
		msg = fmt.Sprintf("Too many OTP attempts. Try again in %ds.", secs)
	}
	return newStatusError(ErrOTPThrottled, msg, err)
}
