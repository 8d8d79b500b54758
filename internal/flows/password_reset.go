package flows

import "context"

const (
	PathRequestReset  = "/otp/request-reset"
	PathResetPassword = "/otp/reset-password"
)

type requestResetBody struct {
	Email string `json:"email"`
}

type resetPasswordBody struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// RunRequestReset asks the server to mail a reset OTP.
func RunRequestReset(ctx context.Context, email string, deps Deps) (*Outcome, error) {
	return Run(ctx, Call{
		Path:    PathRequestReset,
		Body:    requestResetBody{Email: email},
		Subject: email,
		Messages: Messages{
			Success:   "OTP sent to your email.",
			Rejected:  "Failed to send OTP.",
			Server:    "Send OTP failed.",
			Transport: "Send OTP failed.",
		},
		Metrics: deps.Metrics.RequestReset,
		Events:  deps.Events.RequestReset,
	}, deps)
}

// RunVerifyResetOTP verifies a reset OTP. It shares the verify endpoint with
// registration but omits the user name.
func RunVerifyResetOTP(ctx context.Context, email, otp string, deps Deps) (*Outcome, error) {
	return Run(ctx, Call{
		Path:    PathVerifyOTP,
		Body:    verifyOTPBody{Email: email, OTP: otp},
		Subject: email,
		Messages: Messages{
			Success:   "OTP verified.",
			Rejected:  "Invalid OTP.",
			Server:    "OTP verification failed.",
			Transport: "OTP verification failed.",
		},
		Metrics: deps.Metrics.VerifyReset,
		Events:  deps.Events.VerifyReset,
	}, deps)
}

// RunResetPassword sets the new password for email.
func RunResetPassword(ctx context.Context, email, otp, newPassword string, deps Deps) (*Outcome, error) {
	return Run(ctx, Call{
		Path:    PathResetPassword,
		Body:    resetPasswordBody{Email: email, OTP: otp, NewPassword: newPassword},
		Subject: email,
		Messages: Messages{
			Success:   "Password updated. Please sign in.",
			Rejected:  "Password reset failed.",
			Server:    "Password reset failed.",
			Transport: "Password reset failed.",
		},
		Metrics: deps.Metrics.ResetPassword,
		Events:  deps.Events.ResetPassword,
	}, deps)
}
