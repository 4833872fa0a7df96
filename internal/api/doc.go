// Package api defines wire-format types and converters for the HTTP API
// layer. It translates internal recommendation and catalog models into
// transport payloads so handlers never couple consumers to internal types.
//
// DTOs use snake_case JSON tags matching the stored cache payloads, so a
// cached result and a freshly generated one serialize identically.
package api
