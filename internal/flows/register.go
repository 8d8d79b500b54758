package flows

import "context"

const PathRegister = "/auth/register"

// RegisterInput is the account creation request.
type RegisterInput struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

// RunRegister creates the account for a verified email.
func RunRegister(ctx context.Context, in RegisterInput, deps Deps) (*Outcome, error) {
	return Run(ctx, Call{
		Path:    PathRegister,
		Body:    in,
		Subject: in.Email,
		Messages: Messages{
			Success:   "Registration successful. Redirecting to login...",
			Rejected:  "Registration failed.",
			Server:    "Registration failed (server).",
			Transport: "Registration failed: no response from server.",
		},
		Metrics: deps.Metrics.Register,
		Events:  deps.Events.Register,
	}, deps)
}
