package api

import "cinereads/internal/recommend"

// ToPreferences converts the wire payload into the internal form. A nil or
// empty payload yields nil so cache keys stay stable for requests that omit
// preferences entirely.
func (p *PreferencesPayload) ToPreferences() *recommend.Preferences {
	if p == nil {
		return nil
	}
	prefs := &recommend.Preferences{
		Mood:           p.Mood,
		Pace:           p.Pace,
		Genres:         p.Genres,
		GenreBlocklist: p.GenreBlocklist,
	}
	if prefs.Empty() {
		return nil
	}
	return prefs
}

// FromResult converts a recommendation result into its response payload.
func FromResult(result *recommend.Result) RecommendationsResponse {
	if result == nil {
		return RecommendationsResponse{}
	}
	resp := RecommendationsResponse{
		Recommendations: result.Sets,
		CacheHit:        result.CacheHit,
		GeneratedAt:     result.Generated,
	}
	if result.Insights != nil {
		resp.Insights = *result.Insights
	}
	return resp
}
