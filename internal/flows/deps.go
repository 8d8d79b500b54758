package flows

import (
	"context"
	"time"

	"github.com/triovision/erpauth/api"
)

// Errors carries host-level sentinel errors used to classify outcomes.
type Errors struct {
	ClientNotReady error
	Rejected       error
	Transport      error
}

// Deps captures the dependencies shared by every flow.
type Deps struct {
	Post func(context.Context, string, any) (*api.Response, error)

	// Fail builds the host error returned to callers: kind is one of Errors,
	// message is the single-line text shown to the user.
	Fail func(kind error, message string, cause error) error

	Now       func() time.Time
	MetricInc func(int)
	Observe   func(time.Duration)
	EmitAudit func(ctx context.Context, event string, success bool, subject, requestID string, err error, metadata func() map[string]string)
	Debug     func(string, ...any)
	Warn      func(string, ...any)

	Metrics Metrics
	Events  Events
	Errors  Errors
}

// Metrics carries metric IDs per endpoint.
type Metrics struct {
	Login         CallMetrics
	SendOTP       CallMetrics
	VerifyOTP     CallMetrics
	Register      CallMetrics
	RequestReset  CallMetrics
	VerifyReset   CallMetrics
	ResetPassword CallMetrics
}

// Events carries audit event names per endpoint.
type Events struct {
	Login         CallEvents
	SendOTP       CallEvents
	VerifyOTP     CallEvents
	Register      CallEvents
	RequestReset  CallEvents
	VerifyReset   CallEvents
	ResetPassword CallEvents
}

func normalizeDeps(deps Deps) Deps {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.Observe == nil {
		deps.Observe = func(time.Duration) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if deps.Debug == nil {
		deps.Debug = func(string, ...any) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	return deps
}
