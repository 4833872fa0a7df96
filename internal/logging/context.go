package logging

import (
	"context"
	"log/slog"

	"cinereads/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldNamespace is the standardized structured logging key for cache namespaces.
	FieldNamespace = "namespace"
	// FieldCacheKey is the standardized structured logging key for canonical cache keys.
	FieldCacheKey = "cache_key"
	// FieldQuery is the standardized structured logging key for upstream search queries.
	FieldQuery = "query"
	// FieldStrategy is the standardized structured logging key for search strategy labels.
	FieldStrategy = "strategy"
	// FieldAttempt is the standardized structured logging key for 1-based retry attempts.
	FieldAttempt = "attempt"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType tags log records with a machine-readable event label.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested operator next step for a failure.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	if lookup, ok := services.LookupFromContext(ctx); ok {
		fields = append(fields, slog.String("lookup", lookup))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
