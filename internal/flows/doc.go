// Package flows contains the request orchestrators behind every form action.
//
// Each flow function (RunLogin, RunSendOTP, RunVerifyOTP, etc.) accepts a typed
// dependency struct, performs exactly one API round-trip, and classifies the
// outcome as acknowledged, rejected, or unreachable. Form state (stages,
// counters, generations) is owned by the root package; flows never see it.
//
// # Architecture boundaries
//
// Flow functions coordinate the API poster, metrics, audit emission, and error
// construction. They do NOT own any of these resources; ownership stays with
// the Client.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import erpauth (to avoid import cycles).
//   - Put passwords or OTP codes in audit metadata or log fields.
package flows
