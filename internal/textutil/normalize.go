package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopWords are common articles and prepositions that hurt title matching.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "with": {}, "by": {},
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var titleCaser = cases.Title(language.Und)

// Normalize lowercases, trims, folds common symbols to words, and strips
// combining accents so that "Les Misérables" and "les miserables" compare
// equal.
func Normalize(input string) string {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return ""
	}
	normalized = strings.ReplaceAll(normalized, "&", "and")
	normalized = strings.ReplaceAll(normalized, "+", "and")
	if stripped, _, err := transform.String(accentStripper, normalized); err == nil {
		normalized = stripped
	}
	return strings.Join(strings.Fields(normalized), " ")
}

// NormalizeCompact is Normalize with everything except letters and digits
// removed, for strict equality comparison.
func NormalizeCompact(input string) string {
	normalized := Normalize(input)
	if normalized == "" {
		return ""
	}
	var builder strings.Builder
	for _, r := range normalized {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// Tokens splits normalized text into a whitespace token set with stop words
// removed.
func Tokens(input string) map[string]struct{} {
	fields := strings.Fields(Normalize(input))
	set := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if _, stop := stopWords[field]; stop {
			continue
		}
		set[field] = struct{}{}
	}
	return set
}

// Jaccard computes token-set similarity between two sets, intersection size
// over union size. Returns 0 when either set is empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	overlap := 0
	for token := range a {
		if _, ok := b[token]; ok {
			overlap++
		}
	}
	if overlap == 0 {
		return 0
	}
	union := len(a) + len(b) - overlap
	return float64(overlap) / float64(union)
}

// StripStopWords removes stop words from a query string while guaranteeing a
// non-empty result: short queries and queries that would become empty are
// returned unchanged.
func StripStopWords(query string) string {
	normalized := Normalize(query)
	words := strings.Fields(normalized)
	if len(words) <= 2 {
		return normalized
	}
	filtered := make([]string, 0, len(words))
	for _, word := range words {
		if _, stop := stopWords[word]; stop {
			continue
		}
		filtered = append(filtered, word)
	}
	if len(filtered) == 0 {
		return normalized
	}
	return strings.Join(filtered, " ")
}

// DisplayTitle renders a normalized title for human-facing output.
func DisplayTitle(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	return titleCaser.String(trimmed)
}

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters are lowercased, digits and hyphens/underscores are kept, everything
// else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
