// Package devserver is an in-memory implementation of the ERP auth API used
// for local development and end-to-end tests of the client.
//
// # Endpoints
//
// All routes live under /api and answer with the {success, message, data}
// envelope the hosted service uses:
//
//	POST /api/otp/send-otp        {email, userName}
//	POST /api/otp/resend-otp      {email, userName}
//	POST /api/otp/verify-otp      {email, otp, userName?}
//	POST /api/auth/register       {userId, userName, email, password, otp}
//	POST /api/auth/login          {identifier, userId, password}
//	POST /api/otp/request-reset   {email}
//	POST /api/otp/reset-password  {email, otp, newPassword}
//	GET  /api/auth/me             Authorization: Bearer <token>
//
// # OTP model
//
// One outstanding code per email. verify-otp marks the code verified without
// consuming it; register and reset-password consume it and require the
// matching purpose. Reset requests answer 200 whether or not the email is
// registered.
//
// # What this package must NOT do
//
//   - Persist users beyond the process lifetime.
//   - Log plaintext passwords or codes outside the dry-run mailer.
package devserver
