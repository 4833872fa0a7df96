// Package logging wraps log/slog with the handlers and helpers used across
// the service: a console handler for interactive use, a JSON handler for
// machine consumption, typed attribute constructors, and component loggers
// that stamp a standard component field on every record.
package logging
