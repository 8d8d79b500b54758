package internaldefs

import (
	"github.com/triovision/erpauth"
)

// CounterDef names one [erpauth.MetricID] for export.
type CounterDef struct {
	ID      erpauth.MetricID
	Name    string
	Help    string
	Flow    string
	Outcome string
}

// HistogramDef names one latency histogram for export.
type HistogramDef struct {
	ID   erpauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: erpauth.MetricLoginSuccess, Name: "erpauth_login_success_total", Help: "Acknowledged login attempts.", Flow: "login", Outcome: "success"},
	{ID: erpauth.MetricLoginRejected, Name: "erpauth_login_rejected_total", Help: "Login attempts rejected by the server.", Flow: "login", Outcome: "rejected"},
	{ID: erpauth.MetricLoginUnreachable, Name: "erpauth_login_unreachable_total", Help: "Login attempts with no server response.", Flow: "login", Outcome: "unreachable"},
	{ID: erpauth.MetricLoginLocked, Name: "erpauth_login_locked_total", Help: "Login forms that reached the failure threshold.", Flow: "login", Outcome: "locked"},
	{ID: erpauth.MetricLoginBlocked, Name: "erpauth_login_blocked_total", Help: "Submissions refused because the form is locked.", Flow: "login", Outcome: "blocked"},
	{ID: erpauth.MetricOTPSendSuccess, Name: "erpauth_otp_send_success_total", Help: "Registration OTP dispatches acknowledged.", Flow: "otp_send", Outcome: "success"},
	{ID: erpauth.MetricOTPSendFailure, Name: "erpauth_otp_send_failure_total", Help: "Registration OTP dispatches rejected.", Flow: "otp_send", Outcome: "rejected"},
	{ID: erpauth.MetricOTPSendUnreachable, Name: "erpauth_otp_send_unreachable_total", Help: "Registration OTP dispatches with no server response.", Flow: "otp_send", Outcome: "unreachable"},
	{ID: erpauth.MetricOTPVerifySuccess, Name: "erpauth_otp_verify_success_total", Help: "Registration OTP verifications acknowledged.", Flow: "otp_verify", Outcome: "success"},
	{ID: erpauth.MetricOTPVerifyFailure, Name: "erpauth_otp_verify_failure_total", Help: "Registration OTP verifications rejected.", Flow: "otp_verify", Outcome: "rejected"},
	{ID: erpauth.MetricOTPVerifyUnreachable, Name: "erpauth_otp_verify_unreachable_total", Help: "Registration OTP verifications with no server response.", Flow: "otp_verify", Outcome: "unreachable"},
	{ID: erpauth.MetricOTPThrottled, Name: "erpauth_otp_throttled_total", Help: "OTP requests denied by the client throttle.", Flow: "otp_send", Outcome: "throttled"},
	{ID: erpauth.MetricRegisterSuccess, Name: "erpauth_register_success_total", Help: "Accounts created.", Flow: "register", Outcome: "success"},
	{ID: erpauth.MetricRegisterFailure, Name: "erpauth_register_failure_total", Help: "Registrations rejected by the server.", Flow: "register", Outcome: "rejected"},
	{ID: erpauth.MetricRegisterUnreachable, Name: "erpauth_register_unreachable_total", Help: "Registrations with no server response.", Flow: "register", Outcome: "unreachable"},
	{ID: erpauth.MetricPasswordResetRequest, Name: "erpauth_password_reset_request_total", Help: "Reset OTP requests acknowledged.", Flow: "reset_request", Outcome: "success"},
	{ID: erpauth.MetricPasswordResetRequestFailure, Name: "erpauth_password_reset_request_failure_total", Help: "Reset OTP requests rejected.", Flow: "reset_request", Outcome: "rejected"},
	{ID: erpauth.MetricPasswordResetVerify, Name: "erpauth_password_reset_verify_total", Help: "Reset OTP verifications acknowledged.", Flow: "reset_verify", Outcome: "success"},
	{ID: erpauth.MetricPasswordResetVerifyFailure, Name: "erpauth_password_reset_verify_failure_total", Help: "Reset OTP verifications rejected.", Flow: "reset_verify", Outcome: "rejected"},
	{ID: erpauth.MetricPasswordResetSuccess, Name: "erpauth_password_reset_success_total", Help: "Passwords reset.", Flow: "reset_submit", Outcome: "success"},
	{ID: erpauth.MetricPasswordResetFailure, Name: "erpauth_password_reset_failure_total", Help: "Password resets rejected.", Flow: "reset_submit", Outcome: "rejected"},
	{ID: erpauth.MetricPasswordResetUnreachable, Name: "erpauth_password_reset_unreachable_total", Help: "Password reset requests with no server response.", Flow: "reset", Outcome: "unreachable"},
	{ID: erpauth.MetricValidationFailure, Name: "erpauth_validation_failure_total", Help: "Submissions stopped by local validation.", Flow: "form", Outcome: "invalid"},
	{ID: erpauth.MetricStaleResponse, Name: "erpauth_stale_response_total", Help: "Responses discarded because the form moved on.", Flow: "form", Outcome: "stale"},
	{ID: erpauth.MetricLogout, Name: "erpauth_logout_total", Help: "Logout operations.", Flow: "logout", Outcome: "success"},
}

// HistogramDefs lists the exported histograms.
var HistogramDefs = []HistogramDef{
	{ID: erpauth.MetricRequestLatency, Name: "erpauth_request_latency_seconds", Help: "API round-trip latency."},
}

// HistogramBounds are the upper bounds of the latency buckets in seconds.
var HistogramBounds = []string{
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"+Inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
