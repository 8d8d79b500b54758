package erpauth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/triovision/erpauth/internal/flows"
	"go.uber.org/zap"
)

// LoginState is the state of the login form.
type LoginState int

const (
	LoginIdle LoginState = iota
	LoginSubmitting
	LoginSucceeded
	LoginFailed
	// LoginLocked is terminal for the life of the Client.
	LoginLocked
)

func (s LoginState) String() string {
	switch s {
	case LoginIdle:
		return "idle"
	case LoginSubmitting:
		return "submitting"
	case LoginSucceeded:
		return "succeeded"
	case LoginFailed:
		return "failed"
	case LoginLocked:
		return "locked"
	default:
		return "LoginState(" + strconv.Itoa(int(s)) + ")"
	}
}

// LoginResult is returned by a successful [LoginForm.Submit].
type LoginResult struct {
	Message string
	// Redirect is the route to navigate to.
	Redirect string
	// TokenStored is false when the server acknowledged without a token.
	TokenStored bool
	RequestID   string
}

// LoginForm is the credential form with client-side lockout. Obtain it from
// [Client.LoginForm].
type LoginForm struct {
	client *Client

	mu          sync.Mutex
	identifier  string
	password    string
	state       LoginState
	rejected    int
	unreachable int
	generation  uint64
}

func newLoginForm(c *Client) *LoginForm {
	return &LoginForm{client: c}
}

// SetIdentifier sets the user id. Ignored once locked.
func (f *LoginForm) SetIdentifier(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == LoginLocked {
		return
	}
	f.identifier = v
}

// SetPassword sets the password. Ignored once locked.
func (f *LoginForm) SetPassword(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == LoginLocked {
		return
	}
	f.password = v
}

// Identifier returns the current user id input.
func (f *LoginForm) Identifier() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identifier
}

// HasPassword reports whether the password field is non-empty.
func (f *LoginForm) HasPassword() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.password != ""
}

func (f *LoginForm) State() LoginState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Locked reports whether the form accepts no further submissions.
func (f *LoginForm) Locked() bool {
	return f.State() == LoginLocked
}

// FailedAttempts returns the count compared against the lockout threshold.
func (f *LoginForm) FailedAttempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures()
}

// AttemptsRemaining returns how many failures are left before lockout.
func (f *LoginForm) AttemptsRemaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	left := f.client.config.Login.LockoutThreshold - f.failures()
	if left < 0 {
		return 0
	}
	return left
}

// ContactSupport returns the support contact shown while locked.
func (f *LoginForm) ContactSupport() string {
	return f.client.config.Login.SupportContact
}

// Clear empties both fields. A response still in flight for the previous input
// is not applied to the session, but a failure is still counted.
func (f *LoginForm) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == LoginLocked {
		return
	}
	f.identifier = ""
	f.password = ""
	f.generation++
	if f.state != LoginSubmitting {
		f.state = LoginIdle
	}
}

// caller holds mu
func (f *LoginForm) failures() int {
	n := f.rejected
	if f.client.config.Login.CountTransportFailures {
		n += f.unreachable
	}
	return n
}

func (f *LoginForm) lockedError(cause error) error {
	msg := "Too many failed login attempts. Please contact support"
	if contact := f.client.config.Login.SupportContact; contact != "" {
		msg += ": " + contact
	}
	return newStatusError(ErrLoginLocked, msg+".", cause)
}

// Submit sends the credentials. Failures count toward the lockout threshold;
// reaching it locks the form for the life of the Client. The password field is
// cleared after every attempt that reaches the server or fails to.
func (f *LoginForm) Submit(ctx context.Context) (*LoginResult, error) {
	if f == nil || f.client == nil || !f.client.ready {
		return nil, ErrClientNotReady
	}
	c := f.client

	f.mu.Lock()
	switch f.state {
	case LoginLocked:
		f.mu.Unlock()
		c.metrics.Inc(MetricLoginBlocked)
		return nil, f.lockedError(nil)
	case LoginSubmitting:
		f.mu.Unlock()
		return nil, newStatusError(ErrBusy, "Signing in...", nil)
	}
	identifier := strings.TrimSpace(f.identifier)
	password := f.password
	if identifier == "" || password == "" {
		f.mu.Unlock()
		c.metrics.Inc(MetricValidationFailure)
		return nil, newStatusError(ErrValidation, "Enter your User ID and password.", nil)
	}
	f.state = LoginSubmitting
	gen := f.generation
	f.mu.Unlock()

	out, err := flows.RunLogin(ctx, identifier, password, c.deps)

	f.mu.Lock()
	defer f.mu.Unlock()
	stale := gen != f.generation
	if !stale {
		f.password = ""
	}

	if err != nil {
		if errors.Is(err, ErrTransport) {
			f.unreachable++
		} else {
			f.rejected++
		}
		if f.failures() >= c.config.Login.LockoutThreshold {
			f.state = LoginLocked
			f.identifier, f.password = "", ""
			c.metrics.Inc(MetricLoginLocked)
			c.emitAudit(ctx, flowLogin, auditLoginLocked, false, identifier, "", err, func() map[string]string {
				return map[string]string{
					"rejected":    strconv.Itoa(f.rejected),
					"unreachable": strconv.Itoa(f.unreachable),
				}
			})
			c.logger.Warn("login locked", zap.String("identifier", identifier), zap.Int("failures", f.failures()))
			return nil, f.lockedError(err)
		}
		if stale {
			f.state = LoginIdle
			return nil, errors.Join(c.staleResponse(ctx, flowLogin, identifier), err)
		}
		f.state = LoginFailed
		return nil, err
	}

	// The server accepted the credentials even though the token is discarded.
	f.rejected, f.unreachable = 0, 0
	if stale {
		f.state = LoginIdle
		return nil, c.staleResponse(ctx, flowLogin, identifier)
	}

	result := &LoginResult{
		Message:   out.Message,
		Redirect:  c.config.Login.SuccessRedirect,
		RequestID: out.RequestID,
	}
	if out.Token != "" {
		if serr := c.session.Set(ctx, out.Token); serr != nil {
			c.logger.Warn("login: persisting token failed", zap.Error(serr))
		}
		result.TokenStored = true
	}
	f.state = LoginSucceeded
	return result, nil
}

// StatusLine summarizes the form for display.
func (f *LoginForm) StatusLine() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == LoginLocked {
		return "Locked. Contact support: " + f.client.config.Login.SupportContact
	}
	if n := f.failures(); n > 0 {
		return fmt.Sprintf("%d of %d attempts used", n, f.client.config.Login.LockoutThreshold)
	}
	return ""
}
