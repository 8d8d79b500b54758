// Package limiters provides domain-specific throttles built on top of the
// internal/rate window primitives.
//
// # Limiters
//
//   - [OTPLimiter]: per-address resend cooldown, dispatch budget, and
//     verification budget for one-time passwords.
//
// All limiters are nil-safe: calling any method on a nil receiver returns nil.
//
// # What this package must NOT do
//
//   - Import erpauth or any sibling internal package except internal/rate.
//   - Make policy decisions beyond counting: flows decide consequences.
package limiters
