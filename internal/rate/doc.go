// Package rate provides internal fixed-window counter primitives used to build
// client-side throttles for OTP dispatch and verification.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Two backends
// share the same contract:
//   - [RedisWindow]: counters live in Redis so several processes (for example
//     repeated CLI invocations) share one budget.
//   - [MemoryWindow]: process-local map with lazy expiry.
//
// # What this package must NOT do
//
//   - Implement domain-specific policies (those live in internal/limiters).
//   - Be imported outside the erpauth module.
package rate
