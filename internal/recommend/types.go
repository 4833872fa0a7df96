package recommend

import (
	"sort"
	"strings"

	"cinereads/internal/metadata"
)

// Kind selects how recommendations are generated.
type Kind string

const (
	// KindUnified analyzes the whole movie list as one taste profile.
	KindUnified Kind = "unified"
	// KindIndividual generates a separate set per movie.
	KindIndividual Kind = "individual"
)

// Valid reports whether the kind is one the service understands.
func (k Kind) Valid() bool {
	return k == KindUnified || k == KindIndividual
}

// Preferences narrows what the model should recommend.
type Preferences struct {
	Mood           string   `json:"mood,omitempty"`
	Pace           string   `json:"pace,omitempty"`
	Genres         []string `json:"genres,omitempty"`
	GenreBlocklist []string `json:"genre_blocklist,omitempty"`
}

// Empty reports whether no preference is set.
func (p *Preferences) Empty() bool {
	return p == nil || (p.Mood == "" && p.Pace == "" && len(p.Genres) == 0 && len(p.GenreBlocklist) == 0)
}

// keyMap flattens preferences into the canonical cache key form.
func (p *Preferences) keyMap() map[string]string {
	if p.Empty() {
		return nil
	}
	m := make(map[string]string, 4)
	if p.Mood != "" {
		m["mood"] = p.Mood
	}
	if p.Pace != "" {
		m["pace"] = p.Pace
	}
	if len(p.Genres) != 0 {
		m["genres"] = strings.Join(p.Genres, ",")
	}
	if len(p.GenreBlocklist) != 0 {
		m["genre_blocklist"] = strings.Join(p.GenreBlocklist, ",")
	}
	return m
}

// TasteProfile is the model's analysis of what the movie list says about
// the user's preferences.
type TasteProfile struct {
	Themes                []string `json:"themes,omitempty"`
	NarrativeStyle        string   `json:"narrative_style,omitempty"`
	EmotionalTone         string   `json:"emotional_tone,omitempty"`
	GenreFusion           string   `json:"genre_fusion,omitempty"`
	CharacterPreferences  string   `json:"character_preferences,omitempty"`
	ArtisticSensibilities string   `json:"artistic_sensibilities,omitempty"`
	ConfidenceScore       float64  `json:"confidence_score,omitempty"`
}

// Recommendation is one suggested book, enriched with resolved metadata
// when the lookup succeeded.
type Recommendation struct {
	Title           string         `json:"title"`
	Author          string         `json:"author"`
	Reason          string         `json:"reason,omitempty"`
	TasteMatchScore float64        `json:"taste_match_score,omitempty"`
	PrimaryAppeal   string         `json:"primary_appeal,omitempty"`
	Book            *metadata.Book `json:"book,omitempty"`
}

// RecommendationSet groups the recommendations for one taste analysis: the
// whole list for unified mode, one per movie for individual mode.
type RecommendationSet struct {
	Summary         string           `json:"summary"`
	TasteProfile    *TasteProfile    `json:"taste_profile,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Insights aggregates signal across recommendation sets.
type Insights struct {
	MoviesAnalyzed      int      `json:"movies_analyzed"`
	DominantThemes      []string `json:"dominant_themes,omitempty"`
	GenreDiversityScore float64  `json:"genre_diversity_score"`
	Confidence          float64  `json:"confidence"`
}

// Result is the full recommendation response, which is also the cached form.
type Result struct {
	Sets      []RecommendationSet `json:"sets"`
	Insights  *Insights           `json:"insights,omitempty"`
	CacheHit  bool                `json:"cache_hit"`
	Generated string              `json:"generated,omitempty"`
}

// movieSummary phrases the movie list for the response, mirroring how the
// sets are presented to users.
func movieSummary(movies []string) string {
	switch len(movies) {
	case 0:
		return ""
	case 1:
		return "Based on your interest in " + movies[0]
	case 2:
		return "Based on your taste for " + movies[0] + " and " + movies[1]
	default:
		return "Based on your taste profile from " + strings.Join(movies[:len(movies)-1], ", ") + ", and " + movies[len(movies)-1]
	}
}

// buildInsights derives aggregate metrics from the finished sets.
func buildInsights(movies []string, sets []RecommendationSet) *Insights {
	themeCounts := make(map[string]int)
	genreSet := make(map[string]struct{})
	totalConfidence := 0.0
	profiles := 0

	for _, set := range sets {
		if set.TasteProfile != nil {
			for _, theme := range set.TasteProfile.Themes {
				themeCounts[theme]++
			}
			if set.TasteProfile.ConfidenceScore > 0 {
				totalConfidence += set.TasteProfile.ConfidenceScore
				profiles++
			}
		}
		for _, rec := range set.Recommendations {
			if rec.Book == nil {
				continue
			}
			for _, genre := range rec.Book.Genres {
				genreSet[genre] = struct{}{}
			}
		}
	}

	themes := make([]string, 0, len(themeCounts))
	for theme := range themeCounts {
		themes = append(themes, theme)
	}
	sort.Slice(themes, func(i, j int) bool {
		if themeCounts[themes[i]] != themeCounts[themes[j]] {
			return themeCounts[themes[i]] > themeCounts[themes[j]]
		}
		return themes[i] < themes[j]
	})
	if len(themes) > 3 {
		themes = themes[:3]
	}

	confidence := 0.5
	if profiles > 0 {
		confidence = totalConfidence / float64(profiles)
	}

	return &Insights{
		MoviesAnalyzed:      len(movies),
		DominantThemes:      themes,
		GenreDiversityScore: min(1.0, float64(len(genreSet))/10),
		Confidence:          confidence,
	}
}
