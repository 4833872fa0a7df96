package api

import (
	"cinereads/internal/diskcache"
	"cinereads/internal/metadata"
	"cinereads/internal/recommend"
)

// RecommendationsRequest is the POST /api/recommendations body.
type RecommendationsRequest struct {
	Movies             []string            `json:"movies"`
	Preferences        *PreferencesPayload `json:"preferences,omitempty"`
	RecommendationType string              `json:"recommendation_type,omitempty"`
	Refresh            bool                `json:"refresh,omitempty"`
}

// PreferencesPayload mirrors recommend.Preferences on the wire.
type PreferencesPayload struct {
	Mood           string   `json:"mood,omitempty"`
	Pace           string   `json:"pace,omitempty"`
	Genres         []string `json:"genres,omitempty"`
	GenreBlocklist []string `json:"exclude_genres,omitempty"`
}

// TasteProfileRequest is the POST /api/taste-profile body.
type TasteProfileRequest struct {
	Movies      []string            `json:"movies"`
	Preferences *PreferencesPayload `json:"preferences,omitempty"`
}

// RecommendationsResponse carries generated recommendation sets.
type RecommendationsResponse struct {
	Recommendations []recommend.RecommendationSet `json:"recommendations"`
	Insights        recommend.Insights            `json:"insights"`
	CacheHit        bool                          `json:"cache_hit"`
	GeneratedAt     string                        `json:"generated_at,omitempty"`
}

// TasteProfileResponse wraps a standalone taste analysis.
type TasteProfileResponse struct {
	TasteProfile recommend.TasteProfile `json:"taste_profile"`
}

// LookupResponse reports the outcome of a single book lookup.
type LookupResponse struct {
	Found bool           `json:"found"`
	Book  *metadata.Book `json:"book,omitempty"`
}

// CacheStatsResponse exposes store aggregates for observability.
type CacheStatsResponse struct {
	Cache diskcache.Stats `json:"cache"`
}

// ClearCacheResponse reports what a DELETE /api/cache call removed.
type ClearCacheResponse struct {
	Cleared   bool   `json:"cleared"`
	Namespace string `json:"namespace,omitempty"`
}

// HealthResponse is the GET /api/health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ErrorResponse is the uniform error envelope for non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
