// Package services defines shared utilities consumed by the metadata
// pipeline and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers and lookup labels
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the retry taxonomy (auth vs rate-limit vs timeout vs transient).
//
// Use these helpers when wiring new integrations so operational behaviour
// (error handling, observability, retries) stays uniform across the service.
package services
