package goSignup

import "context"

type requestIDContextKey struct{}

// WithRequestID attaches a request identifier to ctx. Log records written by
// the engine for that request carry it when the process logger is built by
// internal/logging.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFromContext returns the identifier set by [WithRequestID].
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
