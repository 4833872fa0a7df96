package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"cinereads/internal/textutil"
)

// FormatVersion tags the key derivation scheme. Bumping it retires every
// previously derived key without any risk of collision with the old scheme.
const FormatVersion = "v2"

// Namespace identifies a logical cache partition.
type Namespace string

const (
	NamespaceRecommendations Namespace = "recommendations"
	NamespaceBooks           Namespace = "books"
	NamespaceTasteProfiles   Namespace = "taste_profiles"
)

// Namespaces lists every known cache partition.
func Namespaces() []Namespace {
	return []Namespace{NamespaceRecommendations, NamespaceBooks, NamespaceTasteProfiles}
}

// Valid reports whether the namespace is one of the known partitions.
func (n Namespace) Valid() bool {
	switch n {
	case NamespaceRecommendations, NamespaceBooks, NamespaceTasteProfiles:
		return true
	}
	return false
}

// Canonicalize derives a deterministic, collision-resistant cache key from
// the supplied parts. Scalar string parts are normalized and kept positional;
// []string parts are normalized and sorted so input order never changes the
// key; map[string]string parts are serialized with sorted keys. The result is
// a fixed-length filesystem-safe token prefixed with the format version and
// namespace.
func Canonicalize(ns Namespace, parts ...any) string {
	doc := make([]any, 0, len(parts)+1)
	doc = append(doc, FormatVersion)
	for _, part := range parts {
		switch v := part.(type) {
		case string:
			doc = append(doc, textutil.Normalize(v))
		case []string:
			normalized := make([]string, 0, len(v))
			for _, item := range v {
				normalized = append(normalized, textutil.Normalize(item))
			}
			sort.Strings(normalized)
			doc = append(doc, normalized)
		case map[string]string:
			folded := make(map[string]string, len(v))
			for key, value := range v {
				folded[textutil.Normalize(key)] = textutil.Normalize(value)
			}
			doc = append(doc, folded)
		default:
			doc = append(doc, fmt.Sprint(v))
		}
	}

	// encoding/json sorts map keys, so the serialization is deterministic.
	serialized, err := json.Marshal(doc)
	if err != nil {
		// Only reachable for unsupported part kinds; fall back to the raw
		// representation rather than failing key derivation.
		serialized = fmt.Appendf(nil, "%v", doc)
	}
	digest := sha256.Sum256(serialized)
	return fmt.Sprintf("%s-%s-%s", FormatVersion, textutil.SanitizeToken(string(ns)), hex.EncodeToString(digest[:]))
}

// Book derives the canonical key for a (title, author) metadata lookup.
// Title and author are positional: swapping them yields a different key.
func Book(title, author string) string {
	return Canonicalize(NamespaceBooks, title, author)
}

// Recommendations derives the canonical key for a recommendation request.
// The movie list is order-independent.
func Recommendations(movies []string, preferences map[string]string, kind string) string {
	return Canonicalize(NamespaceRecommendations, movies, preferences, kind)
}

// TasteProfile derives the canonical key for a taste-profile analysis of the
// supplied movie list and preferences.
func TasteProfile(movies []string, preferences map[string]string) string {
	return Canonicalize(NamespaceTasteProfiles, movies, preferences, "taste_profile")
}
