// Package journal keeps a best-effort SQLite log of completed metadata
// lookups: what was searched, which strategy won, the score, and how long it
// took. It exists for diagnostics; writers treat journal failures as
// non-fatal.
package journal
