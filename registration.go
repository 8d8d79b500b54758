package erpauth

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/triovision/erpauth/internal/flows"
)

// RegistrationStage is the stage of the OTP registration machine. Each variant
// carries only the fields valid at that stage.
type RegistrationStage interface {
	stageName() string
}

// StageEditing is the initial stage: no OTP has been dispatched.
type StageEditing struct{}

// StageOTPSent means an OTP was dispatched to CanonicalEmail.
type StageOTPSent struct {
	CanonicalEmail string
}

// StageOTPVerified means the server accepted OTP for CanonicalEmail; the password is too short to submit.
type StageOTPVerified struct {
	CanonicalEmail string
	OTP            string
}

// StageSubmittable means the email is verified and the password is long enough.
type StageSubmittable struct {
	CanonicalEmail string
	OTP            string
}

// StageRegistered is terminal.
type StageRegistered struct {
	CanonicalEmail string
}

func (StageEditing) stageName() string     { return "editing" }
func (StageOTPSent) stageName() string     { return "otp_sent" }
func (StageOTPVerified) stageName() string { return "otp_verified" }
func (StageSubmittable) stageName() string { return "submittable" }
func (StageRegistered) stageName() string  { return "registered" }

// StageName returns the snake_case name of s.
func StageName(s RegistrationStage) string {
	if s == nil {
		return ""
	}
	return s.stageName()
}

// RegistrationDraft is a copy of the registration form fields.
type RegistrationDraft struct {
	TrioID     string
	Username   string
	EmailInput string
	OTP        string
	Password   string
}

// Notice is the acknowledgment of an intermediate step.
type Notice struct {
	Message   string
	RequestID string
}

// RegistrationResult is returned by a successful [Registration.Submit].
type RegistrationResult struct {
	Message  string
	Redirect string
	// RedirectAfter is how long the success message stays visible before Redirect.
	RedirectAfter time.Duration
	RequestID     string
}

// Registration is the OTP-gated account creation form. Create one per visit
// with [Client.NewRegistration].
type Registration struct {
	client *Client

	mu         sync.Mutex
	draft      RegistrationDraft
	stage      RegistrationStage
	generation uint64

	sending    bool
	verifying  bool
	submitting bool
}

// NewRegistration returns an empty registration draft.
func (c *Client) NewRegistration() *Registration {
	return &Registration{
		client: c,
		draft:  RegistrationDraft{TrioID: c.config.Registration.DefaultTrioID},
		stage:  StageEditing{},
	}
}

// Stage returns the current stage.
func (r *Registration) Stage() RegistrationStage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stage
}

// Draft returns a copy of the form fields.
func (r *Registration) Draft() RegistrationDraft {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draft
}

// CanonicalEmail returns the address the OTP was dispatched to, if any.
func (r *Registration) CanonicalEmail() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch s := r.stage.(type) {
	case StageOTPSent:
		return s.CanonicalEmail, true
	case StageOTPVerified:
		return s.CanonicalEmail, true
	case StageSubmittable:
		return s.CanonicalEmail, true
	case StageRegistered:
		return s.CanonicalEmail, true
	}
	return "", false
}

// Verified reports whether the email has been verified.
func (r *Registration) Verified() bool {
	switch r.Stage().(type) {
	case StageOTPVerified, StageSubmittable, StageRegistered:
		return true
	}
	return false
}

// SendLabel is the caption of the dispatch button.
func (r *Registration) SendLabel() string {
	if _, ok := r.Stage().(StageEditing); ok {
		return "Send OTP"
	}
	return "Resend OTP"
}

// Pending reports which actions have a request outstanding.
func (r *Registration) Pending() (send, verify, submit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sending, r.verifying, r.submitting
}

// CanSendOTP reports whether the dispatch button is enabled.
func (r *Registration) CanSendOTP() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sending {
		return false
	}
	switch r.stage.(type) {
	case StageEditing, StageOTPSent:
		return CanSendOTP(r.draft.EmailInput)
	}
	return false
}

func (r *Registration) SetTrioID(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draft.TrioID = v
}

// SetUsername overrides the name derived from the email local part.
func (r *Registration) SetUsername(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draft.Username = v
}

// SetEmail applies autocompletion to raw and returns the resulting field value.
// Changing the value after an OTP was dispatched restarts the machine at
// [StageEditing]; responses still in flight are then discarded.
func (r *Registration) SetEmail(raw string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := AutocompleteEmail(raw, r.client.config.Registration.OrgDomain)
	if _, done := r.stage.(StageRegistered); done {
		return r.draft.EmailInput
	}
	changed := v != r.draft.EmailInput
	r.draft.EmailInput = v

	if r.draft.Username == "" {
		if local := localPart(v); local != "" {
			r.draft.Username = local
		}
	}

	if changed {
		if _, editing := r.stage.(StageEditing); !editing {
			r.stage = StageEditing{}
			r.draft.OTP = ""
		}
		r.generation++
	}
	return v
}

// SetOTP sets the code typed by the user. Only available while an OTP is pending verification.
func (r *Registration) SetOTP(v string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.stage.(type) {
	case StageEditing:
		return newStatusError(ErrOTPNotSent, "Please send OTP first.", nil)
	case StageOTPSent:
		r.draft.OTP = v
		return nil
	}
	return newStatusError(ErrInvalidTransition, "Email already verified.", nil)
}

// SetPassword sets the password. The field is locked until the email is verified;
// afterwards the stage follows the password length.
func (r *Registration) SetPassword(pw string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var email, otp string
	switch s := r.stage.(type) {
	case StageOTPVerified:
		email, otp = s.CanonicalEmail, s.OTP
	case StageSubmittable:
		email, otp = s.CanonicalEmail, s.OTP
	case StageRegistered:
		return newStatusError(ErrInvalidTransition, "Already registered.", nil)
	default:
		return newStatusError(ErrPasswordLocked, "Please verify your email first.", nil)
	}

	r.draft.Password = pw
	if utf8.RuneCountInString(pw) >= r.client.config.Registration.MinPasswordLength {
		r.stage = StageSubmittable{CanonicalEmail: email, OTP: otp}
	} else {
		r.stage = StageOTPVerified{CanonicalEmail: email, OTP: otp}
	}
	return nil
}

// Reset discards the draft and any response still in flight.
func (r *Registration) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draft = RegistrationDraft{TrioID: r.client.config.Registration.DefaultTrioID}
	r.stage = StageEditing{}
	r.generation++
}

// SendOTP dispatches an OTP to the normalized email, or re-dispatches while
// awaiting verification. The canonical email is frozen at this point.
func (r *Registration) SendOTP(ctx context.Context) (*Notice, error) {
	c := r.client
	if c == nil || !c.ready {
		return nil, ErrClientNotReady
	}

	r.mu.Lock()
	if r.sending {
		r.mu.Unlock()
		return nil, newStatusError(ErrBusy, "Sending OTP...", nil)
	}
	var resend bool
	switch r.stage.(type) {
	case StageEditing:
	case StageOTPSent:
		resend = true
	default:
		r.mu.Unlock()
		return nil, newStatusError(ErrInvalidTransition, "Email already verified.", nil)
	}
	if !CanSendOTP(r.draft.EmailInput) {
		r.mu.Unlock()
		c.metrics.Inc(MetricValidationFailure)
		return nil, newStatusError(ErrValidation, "Enter a valid email or local part.", nil)
	}
	email := NormalizeEmail(r.draft.EmailInput, c.config.Registration.OrgDomain)
	if email == "" {
		r.mu.Unlock()
		c.metrics.Inc(MetricValidationFailure)
		return nil, newStatusError(ErrValidation, "Invalid email.", nil)
	}
	userName := strings.TrimSpace(r.draft.Username)
	r.sending = true
	gen := r.generation
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.sending = false
		r.mu.Unlock()
	}()

	if err := c.checkOTPSend(ctx, flowRegistration, email); err != nil {
		return nil, err
	}

	out, err := flows.RunSendOTP(ctx, flows.SendOTPInput{Email: email, UserName: userName, Resend: resend}, c.config.Registration.UseResendEndpoint, c.deps)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return nil, c.staleResponse(ctx, flowRegistration, email)
	}
	if err != nil {
		return nil, err
	}
	c.recordOTPSend(ctx, flowRegistration, email)
	r.stage = StageOTPSent{CanonicalEmail: email}
	r.draft.OTP = ""
	return &Notice{Message: out.Message, RequestID: out.RequestID}, nil
}

// VerifyOTP asks the server to verify the typed OTP for the canonical email.
func (r *Registration) VerifyOTP(ctx context.Context) (*Notice, error) {
	c := r.client
	if c == nil || !c.ready {
		return nil, ErrClientNotReady
	}

	r.mu.Lock()
	if r.verifying {
		r.mu.Unlock()
		return nil, newStatusError(ErrBusy, "Verifying...", nil)
	}
	var email string
	switch s := r.stage.(type) {
	case StageOTPSent:
		email = s.CanonicalEmail
	case StageEditing:
		r.mu.Unlock()
		return nil, newStatusError(ErrOTPNotSent, "Please send OTP first.", nil)
	default:
		r.mu.Unlock()
		return nil, newStatusError(ErrInvalidTransition, "Email already verified.", nil)
	}
	otp := strings.TrimSpace(r.draft.OTP)
	if otp == "" {
		r.mu.Unlock()
		c.metrics.Inc(MetricValidationFailure)
		return nil, newStatusError(ErrValidation, "Enter the OTP.", nil)
	}
	userName := strings.TrimSpace(r.draft.Username)
	r.verifying = true
	gen := r.generation
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.verifying = false
		r.mu.Unlock()
	}()

	if err := c.checkOTPVerify(ctx, flowRegistration, email); err != nil {
		return nil, err
	}

	out, err := flows.RunVerifyOTP(ctx, flows.VerifyOTPInput{Email: email, OTP: otp, UserName: userName}, c.deps)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return nil, c.staleResponse(ctx, flowRegistration, email)
	}
	if err != nil {
		return nil, err
	}
	c.resetOTPVerify(ctx, flowRegistration, email)
	r.stage = StageOTPVerified{CanonicalEmail: email, OTP: otp}
	if r.draft.Password != "" && utf8.RuneCountInString(r.draft.Password) >= c.config.Registration.MinPasswordLength {
		r.stage = StageSubmittable{CanonicalEmail: email, OTP: otp}
	}
	return &Notice{Message: out.Message, RequestID: out.RequestID}, nil
}

// Submit creates the account. Verification is checked first, then the
// remaining fields; no request is sent when a local check fails.
func (r *Registration) Submit(ctx context.Context) (*RegistrationResult, error) {
	c := r.client
	if c == nil || !c.ready {
		return nil, ErrClientNotReady
	}

	r.mu.Lock()
	if r.submitting {
		r.mu.Unlock()
		return nil, newStatusError(ErrBusy, "Creating account...", nil)
	}
	var email, otp string
	switch s := r.stage.(type) {
	case StageSubmittable:
		email, otp = s.CanonicalEmail, s.OTP
	case StageOTPVerified:
		email, otp = s.CanonicalEmail, s.OTP
	case StageRegistered:
		r.mu.Unlock()
		return nil, newStatusError(ErrInvalidTransition, "Already registered.", nil)
	default:
		r.mu.Unlock()
		return nil, newStatusError(ErrEmailNotVerified, "Please verify your email first.", nil)
	}
	trioID := strings.TrimSpace(r.draft.TrioID)
	userName := strings.TrimSpace(r.draft.Username)
	password := r.draft.Password
	if trioID == "" || userName == "" {
		r.mu.Unlock()
		c.metrics.Inc(MetricValidationFailure)
		return nil, newStatusError(ErrValidation, "Please fill all fields.", nil)
	}
	if utf8.RuneCountInString(password) < c.config.Registration.MinPasswordLength {
		r.mu.Unlock()
		c.metrics.Inc(MetricValidationFailure)
		return nil, newStatusError(ErrValidation, passwordLengthMessage(c.config.Registration.MinPasswordLength), nil)
	}
	r.submitting = true
	gen := r.generation
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.submitting = false
		r.mu.Unlock()
	}()

	out, err := flows.RunRegister(ctx, flows.RegisterInput{
		UserID:   trioID,
		UserName: userName,
		Email:    email,
		Password: password,
		OTP:      otp,
	}, c.deps)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return nil, c.staleResponse(ctx, flowRegistration, email)
	}
	if err != nil {
		return nil, err
	}
	r.stage = StageRegistered{CanonicalEmail: email}
	r.draft.Password = ""
	return &RegistrationResult{
		Message:       out.Message,
		Redirect:      c.config.Registration.LoginRedirect,
		RedirectAfter: c.config.Registration.RedirectDelay,
		RequestID:     out.RequestID,
	}, nil
}

func passwordLengthMessage(n int) string {
	return "Password must be at least " + strconv.Itoa(n) + " characters."
}
