package genres

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"cinereads/internal/textutil"
)

// Normalizer maps raw genre strings from upstream documents onto a canonical
// vocabulary. Unknown genres pass through in display casing.
type Normalizer struct {
	aliases map[string]string
}

// aliasFile is the on-disk YAML shape: canonical name to alias list.
//
//	science fiction:
//	  - sci-fi
//	  - sf
type aliasFile map[string][]string

// builtinAliases covers the common variants seen in Hardcover documents.
var builtinAliases = aliasFile{
	"science fiction": {"sci-fi", "scifi", "sf", "science-fiction"},
	"fantasy":         {"high fantasy", "epic fantasy"},
	"nonfiction":      {"non-fiction", "non fiction"},
	"mystery":         {"mystery & crime", "crime"},
	"young adult":     {"ya", "teen"},
	"biography":       {"biographies", "memoir"},
}

// NewNormalizer builds a normalizer from the built-in aliases.
func NewNormalizer() *Normalizer {
	n := &Normalizer{aliases: make(map[string]string)}
	n.merge(builtinAliases)
	return n
}

// Load builds a normalizer from the built-in aliases merged with an optional
// YAML alias file. File entries win over built-ins.
func Load(path string) (*Normalizer, error) {
	n := NewNormalizer()
	if strings.TrimSpace(path) == "" {
		return n, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genre aliases: %w", err)
	}
	var file aliasFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse genre aliases: %w", err)
	}
	n.merge(file)
	return n, nil
}

func (n *Normalizer) merge(file aliasFile) {
	for canonical, aliases := range file {
		canonical = textutil.Normalize(canonical)
		if canonical == "" {
			continue
		}
		n.aliases[canonical] = canonical
		for _, alias := range aliases {
			if key := textutil.Normalize(alias); key != "" {
				n.aliases[key] = canonical
			}
		}
	}
}

// Canonical returns the canonical display form of one genre.
func (n *Normalizer) Canonical(genre string) string {
	key := textutil.Normalize(genre)
	if key == "" {
		return ""
	}
	if canonical, ok := n.aliases[key]; ok {
		return textutil.DisplayTitle(canonical)
	}
	return textutil.DisplayTitle(key)
}

// Apply canonicalizes a genre list, dropping empties and duplicates. The
// result is sorted for stable cache payloads.
func (n *Normalizer) Apply(genres []string) []string {
	if len(genres) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(genres))
	out := make([]string, 0, len(genres))
	for _, genre := range genres {
		canonical := n.Canonical(genre)
		if canonical == "" {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
