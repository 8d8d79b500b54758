// Package erpauth is the authentication front end of the Trio ERP: a login form
// with client-side lockout, OTP-gated registration, an OTP-gated password reset,
// and a session that attaches the bearer token to every API request.
//
// The package is designed for interactive front ends: form methods are safe to call
// from multiple goroutines (a UI loop and its request commands) after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// erpauth is the public surface. It exposes [Client], [Builder], [Config], the form
// state machines ([LoginForm], [Registration], [PasswordReset]) and their value
// types. Request orchestration and audit dispatch live under internal/ and are
// never exported. The HTTP collaborator is package api and the
// token owner is package session.
//
// # Stale responses
//
// Every form keeps a generation counter. Edits that invalidate an outstanding
// request (changing the registration email, cancelling the reset modal) advance
// it; a response that arrives for an older generation is discarded and reported
// as [ErrStaleResponse].
//
// # What this package must NOT do
//
//   - Judge OTP codes or passwords beyond length; the server is authoritative.
//   - Refresh or expire tokens. A 401 is an ordinary rejection.
//   - Log passwords or OTP codes.
package erpauth
