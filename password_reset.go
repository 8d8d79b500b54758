package erpauth

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/triovision/erpauth/internal/flows"
)

// ResetStep is the step of the forgot-password modal.
type ResetStep int

const (
	ResetStepEmail ResetStep = iota
	ResetStepOTP
	ResetStepReset
)

func (s ResetStep) String() string {
	switch s {
	case ResetStepEmail:
		return "email"
	case ResetStepOTP:
		return "otp"
	case ResetStepReset:
		return "reset"
	default:
		return "unknown"
	}
}

// ResetDraft is a copy of the reset modal fields.
type ResetDraft struct {
	Email string
	OTP   string
	Step  ResetStep
}

// ResetResult is returned by a successful [PasswordReset.Submit].
type ResetResult struct {
	Message string
	// CloseAfter is when the modal closes.
	CloseAfter time.Duration
	RequestID  string
}

// PasswordReset is the forgot-password modal. Steps only advance on server
// acknowledgment. Create one per modal opening with [Client.NewPasswordReset].
type PasswordReset struct {
	client *Client

	mu         sync.Mutex
	draft      ResetDraft
	generation uint64
	busy       bool
	finished   bool
	closed     chan struct{}
	closeOnce  sync.Once
	closeTimer *time.Timer
}

// NewPasswordReset opens an empty reset modal.
func (c *Client) NewPasswordReset() *PasswordReset {
	return &PasswordReset{
		client: c,
		closed: make(chan struct{}),
	}
}

// Draft returns a copy of the form fields.
func (p *PasswordReset) Draft() ResetDraft {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.draft
}

// Step returns the visible step.
func (p *PasswordReset) Step() ResetStep {
	return p.Draft().Step
}

// Busy reports whether a request is outstanding.
func (p *PasswordReset) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// Finished reports whether the password was updated. A finished modal
// accepts no further input and only waits to close.
func (p *PasswordReset) Finished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished
}

// caller holds mu
func (p *PasswordReset) finishedErr() error {
	if p.finished {
		return newStatusError(ErrInvalidTransition, "Password already updated.", nil)
	}
	return nil
}

// Closed is closed when the modal closes after a successful reset or Cancel.
func (p *PasswordReset) Closed() <-chan struct{} {
	return p.closed
}

// SetEmail is only available on the email step.
func (p *PasswordReset) SetEmail(v string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.finishedErr(); err != nil {
		return err
	}
	if p.draft.Step != ResetStepEmail {
		return newStatusError(ErrInvalidTransition, "Email is locked after the OTP is sent.", nil)
	}
	p.draft.Email = v
	return nil
}

// SetOTP is only available on the otp step.
func (p *PasswordReset) SetOTP(v string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.finishedErr(); err != nil {
		return err
	}
	switch p.draft.Step {
	case ResetStepEmail:
		return newStatusError(ErrOTPNotSent, "Request an OTP first.", nil)
	case ResetStepReset:
		return newStatusError(ErrInvalidTransition, "OTP already verified.", nil)
	}
	p.draft.OTP = v
	return nil
}

// Cancel discards the draft and any response still in flight, and closes the modal.
func (p *PasswordReset) Cancel() {
	p.mu.Lock()
	p.resetLocked()
	p.mu.Unlock()
	p.close()
}

// caller holds mu
func (p *PasswordReset) resetLocked() {
	p.draft = ResetDraft{}
	p.generation++
	if p.closeTimer != nil {
		p.closeTimer.Stop()
		p.closeTimer = nil
	}
}

func (p *PasswordReset) close() {
	p.closeOnce.Do(func() { close(p.closed) })
}

func (p *PasswordReset) begin() (uint64, error) {
	if p.busy {
		return 0, newStatusError(ErrBusy, "Please wait...", nil)
	}
	p.busy = true
	return p.generation, nil
}

func (p *PasswordReset) end() {
	p.mu.Lock()
	p.busy = false
	p.mu.Unlock()
}

func normalizeResetEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// SendOTP requests a reset OTP for the email. On the otp step it resends.
func (p *PasswordReset) SendOTP(ctx context.Context) (*Notice, error) {
	c := p.client
	if c == nil || !c.ready {
		return nil, ErrClientNotReady
	}

	p.mu.Lock()
	if err := p.finishedErr(); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	if p.draft.Step == ResetStepReset {
		p.mu.Unlock()
		return nil, newStatusError(ErrInvalidTransition, "OTP already verified.", nil)
	}
	email := normalizeResetEmail(p.draft.Email)
	if email == "" {
		p.mu.Unlock()
		c.metrics.Inc(MetricValidationFailure)
		return nil, newStatusError(ErrValidation, "Enter a valid email.", nil)
	}
	gen, err := p.begin()
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	defer p.end()

	if err := c.checkOTPSend(ctx, flowPasswordReset, email); err != nil {
		return nil, err
	}

	out, err := flows.RunRequestReset(ctx, email, c.deps)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return nil, c.staleResponse(ctx, flowPasswordReset, email)
	}
	if err != nil {
		return nil, err
	}
	c.recordOTPSend(ctx, flowPasswordReset, email)
	p.draft.Email = email
	p.draft.Step = ResetStepOTP
	return &Notice{Message: out.Message, RequestID: out.RequestID}, nil
}

// VerifyOTP verifies the reset OTP. A failure keeps the otp step.
func (p *PasswordReset) VerifyOTP(ctx context.Context) (*Notice, error) {
	c := p.client
	if c == nil || !c.ready {
		return nil, ErrClientNotReady
	}

	p.mu.Lock()
	if err := p.finishedErr(); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	switch p.draft.Step {
	case ResetStepEmail:
		p.mu.Unlock()
		return nil, newStatusError(ErrOTPNotSent, "Request an OTP first.", nil)
	case ResetStepReset:
		p.mu.Unlock()
		return nil, newStatusError(ErrInvalidTransition, "OTP already verified.", nil)
	}
	email := normalizeResetEmail(p.draft.Email)
	otp := strings.TrimSpace(p.draft.OTP)
	if email == "" {
		p.mu.Unlock()
		return nil, newStatusError(ErrValidation, "Enter a valid email.", nil)
	}
	if otp == "" {
		p.mu.Unlock()
		c.metrics.Inc(MetricValidationFailure)
		return nil, newStatusError(ErrValidation, "Enter OTP.", nil)
	}
	gen, err := p.begin()
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	defer p.end()

	if err := c.checkOTPVerify(ctx, flowPasswordReset, email); err != nil {
		return nil, err
	}

	out, err := flows.RunVerifyResetOTP(ctx, email, otp, c.deps)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return nil, c.staleResponse(ctx, flowPasswordReset, email)
	}
	if err != nil {
		return nil, err
	}
	c.resetOTPVerify(ctx, flowPasswordReset, email)
	p.draft.OTP = otp
	p.draft.Step = ResetStepReset
	return &Notice{Message: out.Message, RequestID: out.RequestID}, nil
}

// Submit sets the new password. Length and confirmation are checked locally
// first. On success the draft is cleared back to the email step, the modal is
// finished, and it closes after PasswordReset.CloseDelay.
func (p *PasswordReset) Submit(ctx context.Context, newPassword, confirm string) (*ResetResult, error) {
	c := p.client
	if c == nil || !c.ready {
		return nil, ErrClientNotReady
	}

	p.mu.Lock()
	if err := p.finishedErr(); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	if p.draft.Step != ResetStepReset {
		p.mu.Unlock()
		return nil, newStatusError(ErrInvalidTransition, "Verify the OTP first.", nil)
	}
	if utf8.RuneCountInString(newPassword) < c.config.PasswordReset.MinPasswordLength {
		p.mu.Unlock()
		c.metrics.Inc(MetricValidationFailure)
		return nil, newStatusError(ErrValidation, passwordLengthMessage(c.config.PasswordReset.MinPasswordLength), nil)
	}
	if newPassword != confirm {
		p.mu.Unlock()
		c.metrics.Inc(MetricValidationFailure)
		return nil, newStatusError(ErrValidation, "Passwords do not match.", nil)
	}
	email := p.draft.Email
	otp := p.draft.OTP
	gen, err := p.begin()
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	defer p.end()

	out, err := flows.RunResetPassword(ctx, email, otp, newPassword, c.deps)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return nil, c.staleResponse(ctx, flowPasswordReset, email)
	}
	if err != nil {
		return nil, err
	}

	// The used OTP must not be submitted again.
	p.draft = ResetDraft{}
	p.finished = true
	p.generation++
	closeGen := p.generation

	delay := c.config.PasswordReset.CloseDelay
	p.closeTimer = time.AfterFunc(delay, func() {
		p.mu.Lock()
		stillCurrent := p.generation == closeGen
		p.mu.Unlock()
		if stillCurrent {
			p.close()
		}
	})
	return &ResetResult{Message: out.Message, CloseAfter: delay, RequestID: out.RequestID}, nil
}
