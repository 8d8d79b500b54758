package flows

import (
	"context"
	"errors"
	"net/http"

	"github.com/triovision/erpauth/api"
)

// Outcome is the classified result of an acknowledged request.
type Outcome struct {
	Status    int
	Message   string
	Token     string
	RequestID string
}

// Messages are the fallback texts used when the server sends no message.
type Messages struct {
	Success   string
	Rejected  string
	Server    string
	Transport string
}

// CallMetrics carries metric IDs for one call.
type CallMetrics struct {
	Success   int
	Rejected  int
	Transport int
}

// CallEvents carries audit event names for one call.
type CallEvents struct {
	Success string
	Failure string
}

// Call describes one API round-trip.
type Call struct {
	Path     string
	Body     any
	Subject  string
	Messages Messages
	Metrics  CallMetrics
	Events   CallEvents
}

// Run performs call and classifies the response. A non-2xx response with or
// without a body is a rejection; only the absence of a response is a transport failure.
func Run(ctx context.Context, call Call, deps Deps) (*Outcome, error) {
	deps = normalizeDeps(deps)
	if deps.Post == nil || deps.Fail == nil {
		if deps.Errors.ClientNotReady != nil {
			return nil, deps.Errors.ClientNotReady
		}
		return nil, errors.New("flow dependencies not configured")
	}

	start := deps.Now()
	resp, err := deps.Post(ctx, call.Path, call.Body)
	deps.Observe(deps.Now().Sub(start))

	if err != nil {
		var te *api.TransportError
		requestID := ""
		if errors.As(err, &te) {
			requestID = te.RequestID
		}
		deps.MetricInc(call.Metrics.Transport)
		deps.Warn("request unreachable", "path", call.Path, "request_id", requestID, "error", err)
		deps.EmitAudit(ctx, call.Events.Failure, false, call.Subject, requestID, err, func() map[string]string {
			return map[string]string{"reason": "transport", "path": call.Path}
		})
		return nil, deps.Fail(deps.Errors.Transport, call.Messages.Transport, err)
	}

	if !resp.Acknowledged() {
		fallback := call.Messages.Rejected
		if resp.Status >= http.StatusMultipleChoices {
			fallback = call.Messages.Server
		}
		message := resp.Message(fallback)
		deps.MetricInc(call.Metrics.Rejected)
		deps.Debug("request rejected", "path", call.Path, "status", resp.Status, "request_id", resp.RequestID)
		cause := &RejectionError{Status: resp.Status, Message: message}
		deps.EmitAudit(ctx, call.Events.Failure, false, call.Subject, resp.RequestID, cause, func() map[string]string {
			return map[string]string{"reason": "rejected", "path": call.Path}
		})
		return nil, deps.Fail(deps.Errors.Rejected, message, cause)
	}

	deps.MetricInc(call.Metrics.Success)
	deps.Debug("request acknowledged", "path", call.Path, "status", resp.Status, "request_id", resp.RequestID)
	deps.EmitAudit(ctx, call.Events.Success, true, call.Subject, resp.RequestID, nil, nil)

	return &Outcome{
		Status:    resp.Status,
		Message:   resp.Message(call.Messages.Success),
		Token:     resp.Token(),
		RequestID: resp.RequestID,
	}, nil
}
