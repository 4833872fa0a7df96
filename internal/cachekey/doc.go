// Package cachekey derives deterministic cache keys from logical lookups.
//
// Keys are versioned, namespaced, and hashed: identical logical inputs
// (regardless of list order, whitespace, case, or accents) always produce
// the identical key, and a format bump can never collide with keys from an
// older scheme.
package cachekey
