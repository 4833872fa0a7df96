// Package diskcache implements the persistent, namespaced, TTL-based cache
// store backing metadata and recommendation lookups.
//
// Each entry is one JSON file under <root>/<namespace>/<key>.json. Writes go
// through a uniquely named temp file plus rename, so a concurrent reader sees
// either the old complete entry or the new one, never a torn write. Expiry is
// enforced lazily on every read and actively by a periodic sweeper; malformed
// or expired entries found on read are deleted and treated as absent.
//
// The cache is an optimization, not a source of truth: write failures are
// logged and swallowed, and no store error is ever fatal to the caller.
package diskcache
