// Package api is the HTTP collaborator of the ERP front end: it posts JSON to the
// auth endpoints and decodes the loose response envelope.
//
// # Architecture boundaries
//
// Post returns a [Response] for every HTTP status, including 4xx and 5xx; only a
// failure to obtain any response is an error ([ErrTransport]). Deciding whether a
// response acknowledges an action belongs to the caller via [Response.Acknowledged].
//
// # What this package must NOT do
//
//   - Retry requests or refresh tokens. A 401 is returned like any other status.
//   - Log request bodies; they carry passwords and OTP codes.
package api
