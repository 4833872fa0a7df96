// Package genres canonicalizes the genre labels attached to book documents.
// Upstream sources disagree on spelling ("Sci-Fi", "science-fiction", "SF");
// a built-in alias table, optionally extended by a user YAML file, folds them
// onto one vocabulary so cached payloads and API responses stay consistent.
package genres
