package flows

import "context"

const (
	PathSendOTP   = "/otp/send-otp"
	PathResendOTP = "/otp/resend-otp"
	PathVerifyOTP = "/otp/verify-otp"
)

type sendOTPBody struct {
	Email    string `json:"email"`
	UserName string `json:"userName"`
}

type verifyOTPBody struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	UserName string `json:"userName,omitempty"`
}

// SendOTPInput is the registration OTP dispatch request.
type SendOTPInput struct {
	Email    string
	UserName string
	Resend   bool
}

// RunSendOTP dispatches a registration OTP to the canonical email. Resends go
// to the resend endpoint only when useResendPath is set.
func RunSendOTP(ctx context.Context, in SendOTPInput, useResendPath bool, deps Deps) (*Outcome, error) {
	path := PathSendOTP
	if in.Resend && useResendPath {
		path = PathResendOTP
	}
	return Run(ctx, Call{
		Path:    path,
		Body:    sendOTPBody{Email: in.Email, UserName: in.UserName},
		Subject: in.Email,
		Messages: Messages{
			Success:   "OTP sent to your email.",
			Rejected:  "Failed to send OTP.",
			Server:    "Send OTP failed (server).",
			Transport: "Send OTP failed: no response from server.",
		},
		Metrics: deps.Metrics.SendOTP,
		Events:  deps.Events.SendOTP,
	}, deps)
}

// VerifyOTPInput is the registration OTP verification request.
type VerifyOTPInput struct {
	Email    string
	OTP      string
	UserName string
}

// RunVerifyOTP checks the OTP against the server; the client never judges codes.
func RunVerifyOTP(ctx context.Context, in VerifyOTPInput, deps Deps) (*Outcome, error) {
	return Run(ctx, Call{
		Path:    PathVerifyOTP,
		Body:    verifyOTPBody{Email: in.Email, OTP: in.OTP, UserName: in.UserName},
		Subject: in.Email,
		Messages: Messages{
			Success:   "Email verified.",
			Rejected:  "Invalid OTP.",
			Server:    "Verify OTP failed (server).",
			Transport: "Verify OTP failed: no response from server.",
		},
		Metrics: deps.Metrics.VerifyOTP,
		Events:  deps.Events.VerifyOTP,
	}, deps)
}
