package metadata

import (
	"time"

	"cinereads/internal/hardcover"
)

// Book is the enriched metadata record produced by a successful lookup.
// It is what gets cached and what API responses carry.
type Book struct {
	ID           int64    `json:"id,omitempty"`
	Title        string   `json:"title"`
	Author       string   `json:"author,omitempty"`
	Authors      []string `json:"authors,omitempty"`
	Rating       float64  `json:"rating,omitempty"`
	RatingsCount int64    `json:"ratings_count,omitempty"`
	UsersCount   int64    `json:"users_count,omitempty"`
	URL          string   `json:"url,omitempty"`
	CoverURL     string   `json:"cover_url,omitempty"`
	Description  string   `json:"description,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	Pages        int      `json:"pages,omitempty"`
	ReleaseYear  int      `json:"release_year,omitempty"`
	Publisher    string   `json:"publisher,omitempty"`
	ISBNs        []string `json:"isbns,omitempty"`
	MatchScore   float64  `json:"match_score,omitempty"`
}

// lookupEnvelope is the cached form of a lookup, positive or negative.
// Negative entries remember that a query found nothing so repeated misses
// do not hammer the search API.
type lookupEnvelope struct {
	Found bool  `json:"found"`
	Book  *Book `json:"book,omitempty"`
}

// Settings carries the orchestrator's retry, rate-limit, concurrency, and
// TTL knobs. Zero fields fall back to defaults via normalized.
type Settings struct {
	RetryAttempts int
	// BackoffBase scales linearly with the attempt number for timeouts and
	// transient failures.
	BackoffBase time.Duration
	// RateLimitBase scales linearly with the attempt number on 429s; an
	// upstream Retry-After hint wins when it is longer.
	RateLimitBase time.Duration
	MaxConcurrent int
	// BatchDelay spaces out request launches within GetMany.
	BatchDelay  time.Duration
	BookTTL     time.Duration
	NegativeTTL time.Duration
}

func (s Settings) normalized() Settings {
	if s.RetryAttempts <= 0 {
		s.RetryAttempts = 3
	}
	if s.BackoffBase <= 0 {
		s.BackoffBase = time.Second
	}
	if s.RateLimitBase <= 0 {
		s.RateLimitBase = 5 * time.Second
	}
	if s.MaxConcurrent <= 0 {
		s.MaxConcurrent = 5
	}
	if s.BatchDelay < 0 {
		s.BatchDelay = 0
	}
	if s.BookTTL <= 0 {
		s.BookTTL = 24 * time.Hour
	}
	if s.NegativeTTL <= 0 {
		s.NegativeTTL = 15 * time.Minute
	}
	return s
}

func (s *Service) bookFromCandidate(candidate *hardcover.Candidate, score float64) *Book {
	book := &Book{
		ID:           candidate.ID,
		Title:        candidate.Title,
		Author:       candidate.PrimaryAuthor(),
		Authors:      candidate.Authors,
		Rating:       candidate.Rating,
		RatingsCount: candidate.RatingsCount,
		UsersCount:   candidate.UsersCount,
		URL:          candidate.URL(),
		CoverURL:     candidate.CoverURL,
		Description:  candidate.Description,
		Genres:       candidate.Genres,
		Pages:        candidate.Pages,
		ReleaseYear:  candidate.ReleaseYear,
		Publisher:    candidate.Publisher,
		ISBNs:        candidate.ISBNs,
		MatchScore:   score,
	}
	if s.genres != nil {
		book.Genres = s.genres.Apply(book.Genres)
	}
	return book
}
