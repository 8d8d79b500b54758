package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Envelope is the loose response body returned by the auth API. Every field is optional.
type Envelope struct {
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Token   string          `json:"token,omitempty"`
}

// Response is a decoded HTTP response.
type Response struct {
	Status    int
	Envelope  Envelope
	RequestID string
}

// Acknowledged reports whether the server accepted the action: status 200 or success=true.
func (r *Response) Acknowledged() bool {
	if r == nil {
		return false
	}
	if r.Status == http.StatusOK {
		return true
	}
	return r.Envelope.Success != nil && *r.Envelope.Success
}

// Message returns the server message, or fallback when the server sent none.
func (r *Response) Message(fallback string) string {
	if r == nil {
		return fallback
	}
	if msg := strings.TrimSpace(r.Envelope.Message); msg != "" {
		return msg
	}
	return fallback
}

// Token returns the token from the top level of the envelope, falling back to data.token.
func (r *Response) Token() string {
	if r == nil {
		return ""
	}
	if r.Envelope.Token != "" {
		return r.Envelope.Token
	}
	if len(r.Envelope.Data) == 0 {
		return ""
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(r.Envelope.Data, &data); err != nil {
		return ""
	}
	return data.Token
}

func decodeEnvelope(body []byte) Envelope {
	var env Envelope
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return env
	}
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		// Plain-text bodies are surfaced as the message.
		env = Envelope{Message: firstLine(trimmed)}
	}
	return env
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
