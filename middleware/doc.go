// Package middleware provides net/http middleware for services that accept
// ERP login tokens.
//
// # Flow
//
// [Guard] extracts the bearer token from the Authorization header, verifies
// it with a [jwt.Manager], and attaches the claims to the request context for
// [ClaimsFromContext].
//
// # What this package must NOT do
//
//   - Write response bodies beyond the 401 envelope.
//   - Issue or refresh tokens.
package middleware
