// Package stores provides short-lived OTP records for the dev backend.
//
// # Design
//
// Each record is a versioned, fixed-size binary encoding holding the code's
// SHA-256 digest, purpose, verified flag, attempt count, and expiry. The Redis
// store mutates records with Lua scripts so verification and consumption are
// atomic; the memory store uses a mutex. Secret comparisons use constant-time
// compare.
//
// # Architecture boundaries
//
// This package owns persistence of outstanding codes. Generating codes and
// mailing them belong to the dev backend.
//
// # What this package must NOT do
//
//   - Import erpauth or any sibling internal package.
//   - Store or log plaintext codes.
//   - Use non-constant-time comparisons for secret matching.
package stores
