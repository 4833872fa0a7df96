package hardcover

import (
	"encoding/json"
	"strings"
)

// Candidate is one raw book document returned by the Hardcover search API,
// not yet confirmed as the correct match.
type Candidate struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Subtitle     string   `json:"subtitle,omitempty"`
	Authors      []string `json:"authors,omitempty"`
	Rating       float64  `json:"rating,omitempty"`
	RatingsCount int64    `json:"ratings_count,omitempty"`
	UsersCount   int64    `json:"users_count,omitempty"`
	Slug         string   `json:"slug,omitempty"`
	CoverURL     string   `json:"cover_url,omitempty"`
	Description  string   `json:"description,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	Pages        int      `json:"pages,omitempty"`
	ReleaseYear  int      `json:"release_year,omitempty"`
	ReleaseDate  string   `json:"release_date,omitempty"`
	Publisher    string   `json:"publisher,omitempty"`
	ISBNs        []string `json:"isbns,omitempty"`
}

// PrimaryAuthor returns the first listed author, or empty.
func (c Candidate) PrimaryAuthor() string {
	if len(c.Authors) == 0 {
		return ""
	}
	return c.Authors[0]
}

// URL builds the canonical Hardcover page for the candidate, or empty when
// the document carried no slug.
func (c Candidate) URL() string {
	slug := strings.TrimSpace(c.Slug)
	if slug == "" {
		return ""
	}
	return "https://hardcover.app/books/" + slug
}

// searchDocument models the loosely-typed document inside a search hit.
// Every field may be absent; documents missing required fields are discarded
// at this boundary instead of failing deep in the pipeline.
type searchDocument struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	AuthorNames []string `json:"author_names"`
	Rating      float64  `json:"rating"`
	RatingsCnt  int64    `json:"ratings_count"`
	UsersCount  int64    `json:"users_count"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Genres      []string `json:"genres"`
	Pages       int      `json:"pages"`
	ReleaseYear int      `json:"release_year"`
	ReleaseDate string   `json:"release_date"`
	Publisher   string   `json:"publisher"`
	ISBNs       []string `json:"isbns"`
	Image       *struct {
		URL string `json:"url"`
	} `json:"image"`
}

// candidate converts a raw document into a Candidate, reporting false for
// documents that are unusable (no title).
func (d searchDocument) candidate() (Candidate, bool) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return Candidate{}, false
	}
	out := Candidate{
		ID:           d.ID,
		Title:        title,
		Subtitle:     strings.TrimSpace(d.Subtitle),
		Authors:      cleanStrings(d.AuthorNames),
		Rating:       d.Rating,
		RatingsCount: d.RatingsCnt,
		UsersCount:   d.UsersCount,
		Slug:         strings.TrimSpace(d.Slug),
		Description:  strings.TrimSpace(d.Description),
		Genres:       cleanStrings(d.Genres),
		Pages:        d.Pages,
		ReleaseYear:  d.ReleaseYear,
		ReleaseDate:  strings.TrimSpace(d.ReleaseDate),
		Publisher:    strings.TrimSpace(d.Publisher),
		ISBNs:        cleanStrings(d.ISBNs),
	}
	if d.Image != nil {
		out.CoverURL = strings.TrimSpace(d.Image.URL)
	}
	return out, true
}

func cleanStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// searchEnvelope models the GraphQL response shell.
type searchEnvelope struct {
	Data *struct {
		Search *struct {
			// Results is a jsonb scalar: sometimes an object, sometimes a
			// JSON-encoded string of that object.
			Results json.RawMessage `json:"results"`
			Error   string          `json:"error"`
		} `json:"search"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// searchResults is the decoded jsonb payload.
type searchResults struct {
	Hits []struct {
		Document searchDocument `json:"document"`
	} `json:"hits"`
}
