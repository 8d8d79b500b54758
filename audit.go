package erpauth

import (
	"context"
	"io"
	"time"

	"github.com/triovision/erpauth/internal/audit"
	"go.uber.org/zap"
)

// AuditEvent is the record delivered to an [AuditSink].
type AuditEvent = audit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink drops audit events.
type NoOpSink = audit.NoOpSink

// ChannelSink forwards audit events into a buffered channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

// ZapSink logs audit events through zap.
type ZapSink = audit.ZapSink

func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	return audit.NewZapSink(logger)
}

const (
	auditLoginSuccess        = "login_success"
	auditLoginFailure        = "login_failed"
	auditLoginLocked         = "login_locked"
	auditOTPSent             = "otp_sent"
	auditOTPSendFailure      = "otp_send_failed"
	auditOTPVerified         = "otp_verified"
	auditOTPVerifyFailure    = "otp_verify_failed"
	auditOTPThrottled        = "otp_throttled"
	auditRegisterSuccess     = "register_success"
	auditRegisterFailure     = "register_failed"
	auditResetRequested      = "password_reset_requested"
	auditResetRequestFailure = "password_reset_request_failed"
	auditResetVerified       = "password_reset_otp_verified"
	auditResetVerifyFailure  = "password_reset_otp_failed"
	auditResetSuccess        = "password_reset_success"
	auditResetFailure        = "password_reset_failed"
	auditStaleResponse       = "stale_response_discarded"
	auditLogout              = "logout"
)

const (
	flowLogin         = "login"
	flowRegistration  = "registration"
	flowPasswordReset = "password_reset"
	flowSession       = "session"
)

func (c *Client) emitAudit(ctx context.Context, flow, eventType string, success bool, subject, requestID string, err error, metadata func() map[string]string) {
	if c == nil || c.audit == nil || eventType == "" {
		return
	}
	if requestID == "" {
		requestID = requestIDFromContext(ctx)
	}
	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Flow:      flow,
		Subject:   subject,
		RequestID: requestID,
		Success:   success,
	}
	if err != nil {
		event.Error = UserMessage(err)
	}
	if metadata != nil {
		event.Metadata = metadata()
	}
	c.audit.Emit(ctx, event)
}
