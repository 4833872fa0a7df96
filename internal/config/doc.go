// Package config loads, normalizes, and validates CineReads configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HARDCOVER_API_KEY, including a best-effort .env file. The Config type
// centralizes every knob the server and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
