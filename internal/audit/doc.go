// Package audit implements async event dispatching for the login, registration,
// and password reset flows.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, zap logger, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: structured audit record with timestamp, type, flow, subject, request id, metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; that responsibility belongs to the Client and the form state machines.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import erpauth or any sibling internal package.
//   - Record passwords or OTP codes in any field.
package audit
