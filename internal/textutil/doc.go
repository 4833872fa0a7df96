// Package textutil provides text normalization helpers shared by the cache
// key canonicalizer and the match resolver: lowercase/accent-insensitive
// normalization, stop-word-aware token sets, Jaccard similarity, and
// filesystem-safe tokens.
//
// All functions are pure; identical inputs always produce identical outputs.
package textutil
