// Package session owns the bearer token of the signed-in user and its durable
// persistence.
//
// # Components
//
//   - [Manager]: the single owner of the in-memory token, preloaded from a [Store].
//   - [Store]: durable persistence under the fixed key "token" (memory, JSON file, Redis).
//   - [Inspect]: unverified claim decoding for display.
//
// # Architecture boundaries
//
// This package stores the token and hands it to the API client through [Manager.Token].
// It does NOT decide when a token is obtained or discarded; the login flow and
// logout do that.
//
// # What this package must NOT do
//
//   - Import erpauth or api (no upward imports).
//   - Use decoded claims to gate requests; the server is the authority on validity.
package session
