// Package server exposes the recommendation and catalog services over a
// JSON HTTP API. Every request is tagged with a correlation identifier that
// flows through context into structured logs, and shutdown drains in-flight
// requests before the listener closes.
package server
