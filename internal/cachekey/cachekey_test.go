package cachekey

import (
	"strings"
	"testing"
)

func TestBookKeyDeterministic(t *testing.T) {
	a := Book("The Hobbit", "J.R.R. Tolkien")
	b := Book("  the hobbit ", "j.r.r. tolkien")
	if a != b {
		t.Fatalf("logically equal inputs produced different keys: %q vs %q", a, b)
	}
}

func TestBookKeyPositional(t *testing.T) {
	if Book("Dune", "Frank Herbert") == Book("Frank Herbert", "Dune") {
		t.Fatal("swapped title/author should not collide")
	}
}

func TestRecommendationsKeyOrderIndependent(t *testing.T) {
	prefs := map[string]string{"tone": "dark"}
	a := Recommendations([]string{"Arrival", "Blade Runner", "Solaris"}, prefs, "unified")
	b := Recommendations([]string{"Solaris", "Arrival", "Blade Runner"}, prefs, "unified")
	if a != b {
		t.Fatalf("permuted movie lists produced different keys: %q vs %q", a, b)
	}
}

func TestDistinctInputsDistinctKeys(t *testing.T) {
	keys := map[string]string{
		"hobbit":       Book("The Hobbit", "Tolkien"),
		"hobbit-blank": Book("The Hobbit", ""),
		"dune":         Book("Dune", "Frank Herbert"),
		"recs":         Recommendations([]string{"Arrival"}, nil, "unified"),
		"taste":        TasteProfile([]string{"Arrival"}, nil),
	}
	seen := map[string]string{}
	for name, key := range keys {
		if prev, ok := seen[key]; ok {
			t.Fatalf("key collision between %s and %s: %q", name, prev, key)
		}
		seen[key] = name
	}
}

func TestKeyShape(t *testing.T) {
	key := Book("Dune", "Frank Herbert")
	if !strings.HasPrefix(key, FormatVersion+"-books-") {
		t.Fatalf("key missing version/namespace prefix: %q", key)
	}
	parts := strings.Split(key, "-")
	digest := parts[len(parts)-1]
	if len(digest) != 64 {
		t.Fatalf("expected 64 hex digest chars, got %d in %q", len(digest), key)
	}
	for _, r := range key {
		valid := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
		if !valid {
			t.Fatalf("key contains filesystem-unsafe rune %q: %q", r, key)
		}
	}
}

func TestNamespaceValidity(t *testing.T) {
	for _, ns := range Namespaces() {
		if !ns.Valid() {
			t.Errorf("namespace %q should be valid", ns)
		}
	}
	if Namespace("bogus").Valid() {
		t.Error("unknown namespace should be invalid")
	}
}
