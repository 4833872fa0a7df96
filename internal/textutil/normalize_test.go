package textutil

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"  The Hobbit  ", "the hobbit"},
		{"War & Peace", "war and peace"},
		{"Les Misérables", "les miserables"},
		{"Dune   Messiah", "dune messiah"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.input); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestNormalizeCompact(t *testing.T) {
	if got := NormalizeCompact("The Hitch-Hiker's Guide!"); got != "thehitchhikersguide" {
		t.Fatalf("NormalizeCompact = %q", got)
	}
}

func TestTokensRemovesStopWords(t *testing.T) {
	tokens := Tokens("The Lord of the Rings")
	if _, ok := tokens["the"]; ok {
		t.Fatal("stop word survived tokenization")
	}
	for _, want := range []string{"lord", "rings"} {
		if _, ok := tokens[want]; !ok {
			t.Fatalf("missing token %q in %v", want, tokens)
		}
	}
}

func TestJaccard(t *testing.T) {
	a := Tokens("dune messiah")
	b := Tokens("dune")
	if got := Jaccard(a, b); got != 0.5 {
		t.Fatalf("Jaccard = %v, want 0.5", got)
	}
	if got := Jaccard(a, Tokens("")); got != 0 {
		t.Fatalf("Jaccard with empty set = %v, want 0", got)
	}
	if got := Jaccard(a, Tokens("unrelated words")); got != 0 {
		t.Fatalf("Jaccard with disjoint set = %v, want 0", got)
	}
}

func TestStripStopWords(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"The Name of the Wind", "name wind"},
		// Short queries keep their stop words.
		{"The Road", "the road"},
		// Queries made entirely of stop words stay intact.
		{"of the in", "of the in"},
	}
	for _, tc := range cases {
		if got := StripStopWords(tc.input); got != tc.want {
			t.Errorf("StripStopWords(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("Taste Profile #1"); got != "taste_profile__1" {
		t.Fatalf("SanitizeToken = %q", got)
	}
	if got := SanitizeToken("  "); got != "unknown" {
		t.Fatalf("SanitizeToken empty = %q", got)
	}
}

func TestDisplayTitle(t *testing.T) {
	if got := DisplayTitle("the left hand of darkness"); got != "The Left Hand Of Darkness" {
		t.Fatalf("DisplayTitle = %q", got)
	}
}
