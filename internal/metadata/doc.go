// Package metadata orchestrates book lookups end to end: durable cache in
// front, the Hardcover search API behind a retry state machine, and the
// match resolver deciding which candidate wins. Positive results are cached
// for a day, definitive misses briefly, and every outcome is journaled on a
// best-effort basis. Concurrency is bounded by a slot limiter shared between
// single and batch lookups.
package metadata
