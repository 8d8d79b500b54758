package erpauth

import (
	"context"

	"github.com/triovision/erpauth/api"
)

// WithRequestID attaches a correlation id to ctx. Requests made with ctx carry
// it in X-Request-ID and audit events record it; without one a UUID is generated
// per request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return api.WithRequestID(ctx, id)
}

func requestIDFromContext(ctx context.Context) string {
	return api.RequestIDFromContext(ctx)
}
