// Package match resolves noisy book search results to a single best
// candidate. Scoring is tiered: exact normalized-title equality beats
// substring containment beats token overlap, then author agreement and
// popularity nudge the total. A candidate wins only if its score clears
// the acceptance threshold; otherwise the resolver reports an explicit
// no-match so callers can cache the miss.
package match
