package match

import (
	"strings"

	"cinereads/internal/textutil"
)

// Query is a parsed book lookup: the raw user text split into the title
// portion and a best-effort author portion.
type Query struct {
	Raw    string
	Title  string
	Author string
}

// NewQuery builds a query from already-separated title and author fields.
func NewQuery(title, author string) Query {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	raw := title
	if author != "" {
		raw = title + " by " + author
	}
	return Query{Raw: raw, Title: title, Author: author}
}

// ParseQuery splits free-form lookup text into title and author parts.
// An explicit " by " separator wins; otherwise, for queries longer than
// three words, the last two words are treated as a probable author name.
// Short queries stay title-only rather than guessing.
func ParseQuery(raw string) Query {
	raw = strings.Join(strings.Fields(raw), " ")
	q := Query{Raw: raw}
	if raw == "" {
		return q
	}

	lower := strings.ToLower(raw)
	if idx := strings.Index(lower, " by "); idx > 0 {
		q.Title = strings.TrimSpace(raw[:idx])
		q.Author = strings.TrimSpace(raw[idx+len(" by "):])
		if q.Title == "" {
			q.Title = raw
			q.Author = ""
		}
		return q
	}

	words := strings.Fields(raw)
	if len(words) > 3 {
		q.Title = strings.Join(words[:len(words)-2], " ")
		q.Author = strings.Join(words[len(words)-2:], " ")
		return q
	}

	q.Title = raw
	return q
}

// Strategy is one phrasing of the upstream search plus the label recorded in
// logs and the lookup journal.
type Strategy struct {
	Name string
	Term string
}

// Strategies returns the ordered search strategies for the query: title with
// author, bare title, the title with stop words stripped, then author before
// title. Empty and duplicate terms are dropped while preserving order.
func (q Query) Strategies() []Strategy {
	candidates := make([]Strategy, 0, 4)
	if q.Author != "" {
		candidates = append(candidates, Strategy{Name: "title_author", Term: q.Title + " " + q.Author})
	}
	candidates = append(candidates,
		Strategy{Name: "title_only", Term: q.Title},
		Strategy{Name: "stripped_title", Term: textutil.StripStopWords(q.Title)},
	)
	if q.Author != "" {
		candidates = append(candidates, Strategy{Name: "author_title", Term: q.Author + " " + q.Title})
	}

	seen := make(map[string]struct{}, len(candidates))
	strategies := make([]Strategy, 0, len(candidates))
	for _, strat := range candidates {
		strat.Term = strings.TrimSpace(strat.Term)
		if strat.Term == "" {
			continue
		}
		key := strings.ToLower(strat.Term)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		strategies = append(strategies, strat)
	}
	return strategies
}
