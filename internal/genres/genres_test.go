package genres

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestBuiltinAliases(t *testing.T) {
	n := NewNormalizer()
	cases := map[string]string{
		"Sci-Fi":           "Science Fiction",
		"science-fiction":  "Science Fiction",
		"SF":               "Science Fiction",
		"Non-Fiction":      "Nonfiction",
		"YA":               "Young Adult",
		"Epic Fantasy":     "Fantasy",
		"Literary Fiction": "Literary Fiction", // unknown genres pass through
	}
	for raw, want := range cases {
		if got := n.Canonical(raw); got != want {
			t.Errorf("Canonical(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestApplyDedupesAndSorts(t *testing.T) {
	n := NewNormalizer()
	got := n.Apply([]string{"Sci-Fi", "science fiction", "Fantasy", "", "fantasy"})
	want := []string{"Fantasy", "Science Fiction"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Apply = %v, want %v", got, want)
	}
	if n.Apply(nil) != nil {
		t.Fatal("empty input should return nil")
	}
}

func TestLoadMergesAliasFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genres.yaml")
	body := `
horror:
  - scary
  - terror
science fiction:
  - speculative
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write alias file: %v", err)
	}

	n, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := n.Canonical("scary"); got != "Horror" {
		t.Fatalf("Canonical(scary) = %q", got)
	}
	if got := n.Canonical("speculative"); got != "Science Fiction" {
		t.Fatalf("Canonical(speculative) = %q", got)
	}
	// Built-ins survive the merge.
	if got := n.Canonical("sci-fi"); got != "Science Fiction" {
		t.Fatalf("Canonical(sci-fi) = %q", got)
	}
}

func TestLoadEmptyPathUsesBuiltins(t *testing.T) {
	n, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := n.Canonical("crime"); got != "Mystery" {
		t.Fatalf("Canonical(crime) = %q", got)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genres.yaml")
	if err := os.WriteFile(path, []byte(":\n  - ["), 0o644); err != nil {
		t.Fatalf("write alias file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
