// Package internal holds helpers shared by the internal packages: OTP code
// generation and hashing, and random secrets for the dev backend.
//
// # What this package must NOT do
//
//   - Import erpauth or any sibling package.
//   - Log or return codes after hashing them.
package internal
