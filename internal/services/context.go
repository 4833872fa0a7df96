package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	lookupKey    contextKey = "lookup"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithLookup annotates context with the lookup label (usually "title by author")
// currently being resolved.
func WithLookup(ctx context.Context, label string) context.Context {
	if label == "" {
		return ctx
	}
	return context.WithValue(ctx, lookupKey, label)
}

// LookupFromContext returns the lookup label if present.
func LookupFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(lookupKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
