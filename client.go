package erpauth

import (
	"context"
	"time"

	"github.com/triovision/erpauth/api"
	"github.com/triovision/erpauth/internal/audit"
	"github.com/triovision/erpauth/internal/flows"
	"github.com/triovision/erpauth/internal/limiters"
	"github.com/triovision/erpauth/session"
	"go.uber.org/zap"
)

// Client is the entry point of the ERP auth front end. It owns the session,
// the API client, and the shared login form, and creates registration and
// password reset drafts.
//
// Client methods are safe for concurrent use after [Builder.Build].
type Client struct {
	config   Config
	logger   *zap.Logger
	api      *api.Client
	session  *session.Manager
	metrics  *Metrics
	audit    *audit.Dispatcher
	throttle *limiters.OTPLimiter
	deps     flows.Deps
	login    *LoginForm
	ready    bool
}

// Config returns a copy of the active configuration.
func (c *Client) Config() Config {
	return cloneConfig(c.config)
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.api.BaseURL()
}

// Session returns the token owner.
func (c *Client) Session() *session.Manager {
	return c.session
}

// Logger returns the client logger.
func (c *Client) Logger() *zap.Logger {
	return c.logger
}

// LoginForm returns the login form. There is one per Client so the failure
// count survives re-rendering the form.
func (c *Client) LoginForm() *LoginForm {
	return c.login
}

// Logout clears the token from memory and from the durable store.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil || !c.ready {
		return ErrClientNotReady
	}
	err := c.session.Clear(ctx)
	c.metrics.Inc(MetricLogout)
	c.emitAudit(ctx, flowSession, auditLogout, err == nil, "", "", err, nil)
	if err != nil {
		c.logger.Warn("logout: clearing stored token failed", zap.Error(err))
	}
	return err
}

// Whoami decodes the stored token for display. The token is not verified.
func (c *Client) Whoami() (session.TokenInfo, error) {
	if c == nil || !c.ready {
		return session.TokenInfo{}, ErrClientNotReady
	}
	token := c.session.Token()
	if token == "" {
		return session.TokenInfo{}, newStatusError(ErrNotSignedIn, "Not signed in.", nil)
	}
	return session.Inspect(token)
}

// MetricsSnapshot returns a copy of the client counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}, Histograms: map[MetricID][]uint64{}}
	}
	return c.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (c *Client) AuditDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.audit.Dropped()
}

// Close flushes the audit dispatcher.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.audit.Close()
}

func (c *Client) buildFlowDeps() flows.Deps {
	sugar := c.logger.Named("flows").Sugar()
	return flows.Deps{
		Post:      c.api.Post,
		Fail:      newStatusError,
		Now:       time.Now,
		MetricInc: func(id int) { c.metrics.Inc(MetricID(id)) },
		Observe:   func(d time.Duration) { c.metrics.Observe(MetricRequestLatency, d) },
		EmitAudit: func(ctx context.Context, event string, success bool, subject, requestID string, err error, metadata func() map[string]string) {
			c.emitAudit(ctx, flowOfEvent(event), event, success, subject, requestID, err, metadata)
		},
		Debug: sugar.Debugw,
		Warn:  sugar.Warnw,
		Metrics: flows.Metrics{
			Login:         callMetrics(MetricLoginSuccess, MetricLoginRejected, MetricLoginUnreachable),
			SendOTP:       callMetrics(MetricOTPSendSuccess, MetricOTPSendFailure, MetricOTPSendUnreachable),
			VerifyOTP:     callMetrics(MetricOTPVerifySuccess, MetricOTPVerifyFailure, MetricOTPVerifyUnreachable),
			Register:      callMetrics(MetricRegisterSuccess, MetricRegisterFailure, MetricRegisterUnreachable),
			RequestReset:  callMetrics(MetricPasswordResetRequest, MetricPasswordResetRequestFailure, MetricPasswordResetUnreachable),
			VerifyReset:   callMetrics(MetricPasswordResetVerify, MetricPasswordResetVerifyFailure, MetricPasswordResetUnreachable),
			ResetPassword: callMetrics(MetricPasswordResetSuccess, MetricPasswordResetFailure, MetricPasswordResetUnreachable),
		},
		Events: flows.Events{
			Login:         flows.CallEvents{Success: auditLoginSuccess, Failure: auditLoginFailure},
			SendOTP:       flows.CallEvents{Success: auditOTPSent, Failure: auditOTPSendFailure},
			VerifyOTP:     flows.CallEvents{Success: auditOTPVerified, Failure: auditOTPVerifyFailure},
			Register:      flows.CallEvents{Success: auditRegisterSuccess, Failure: auditRegisterFailure},
			RequestReset:  flows.CallEvents{Success: auditResetRequested, Failure: auditResetRequestFailure},
			VerifyReset:   flows.CallEvents{Success: auditResetVerified, Failure: auditResetVerifyFailure},
			ResetPassword: flows.CallEvents{Success: auditResetSuccess, Failure: auditResetFailure},
		},
		Errors: flows.Errors{
			ClientNotReady: ErrClientNotReady,
			Rejected:       ErrRejected,
			Transport:      ErrTransport,
		},
	}
}

func callMetrics(success, rejected, transport MetricID) flows.CallMetrics {
	return flows.CallMetrics{Success: int(success), Rejected: int(rejected), Transport: int(transport)}
}

func flowOfEvent(event string) string {
	switch event {
	case auditLoginSuccess, auditLoginFailure:
		return flowLogin
	case auditOTPSent, auditOTPSendFailure, auditOTPVerified, auditOTPVerifyFailure, auditRegisterSuccess, auditRegisterFailure:
		return flowRegistration
	default:
		return flowPasswordReset
	}
}

func (c *Client) staleResponse(ctx context.Context, flow, subject string) error {
	c.metrics.Inc(MetricStaleResponse)
	c.emitAudit(ctx, flow, auditStaleResponse, false, subject, "", nil, nil)
	c.logger.Debug("discarded stale response", zap.String("flow", flow))
	return newStatusError(ErrStaleResponse, "The form changed before the server answered; please try again.", nil)
}
