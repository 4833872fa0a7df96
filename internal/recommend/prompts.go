package recommend

import (
	"fmt"
	"strings"
)

// curatorSystemPrompt frames the model as a literary curator working from a
// unified taste profile rather than movie-by-movie matching.
const curatorSystemPrompt = `You are an expert literary curator who specializes in analyzing a user's overall taste profile from their movie preferences and recommending books that match their unified aesthetic and thematic preferences.

Your task is to:
1. Analyze the collection of movies to identify common themes, genres, narrative styles, emotional tones, and artistic preferences
2. Create a unified taste profile that captures the user's overall preferences
3. Recommend books that align with this unified profile, not individual movies
4. Focus on books that would appeal to someone with this specific combination of tastes

Consider narrative complexity, emotional depth and tone, genre blending, character development preferences, thematic interests, atmosphere, and pacing.

Always respond with valid JSON.`

const analystSystemPrompt = `You are an expert in analyzing artistic and narrative preferences from media consumption patterns. Always respond with valid JSON.`

// llmResponse is the JSON shape requested from the model.
type llmResponse struct {
	TasteProfile           *TasteProfile `json:"taste_profile"`
	UnifiedRecommendations []struct {
		Title           string  `json:"title"`
		Author          string  `json:"author"`
		Reason          string  `json:"reason"`
		TasteMatchScore float64 `json:"taste_match_score"`
		PrimaryAppeal   string  `json:"primary_appeal"`
	} `json:"unified_recommendations"`
}

func buildRecommendationPrompt(movies []string, prefs *Preferences, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on these movies: %s\n\n", strings.Join(movies, ", "))
	b.WriteString(`First, analyze the user's overall taste profile: common themes and motifs, preferred narrative styles, emotional and tonal preferences, genre inclinations, character archetype preferences, and atmospheric elements they are drawn to.

`)
	fmt.Fprintf(&b, "Then recommend exactly %d books that would appeal to someone with this unified taste profile. These should complement their overall aesthetic and thematic preferences, not match individual movies.\n", count)

	if !prefs.Empty() {
		b.WriteString("\nAdditional user preferences to consider:\n")
		if prefs.Mood != "" {
			fmt.Fprintf(&b, "- Mood preference: %s\n", prefs.Mood)
		}
		if prefs.Pace != "" {
			fmt.Fprintf(&b, "- Pacing preference: %s\n", prefs.Pace)
		}
		if len(prefs.Genres) != 0 {
			fmt.Fprintf(&b, "- Preferred genres: %s\n", strings.Join(prefs.Genres, ", "))
		}
		if len(prefs.GenreBlocklist) != 0 {
			fmt.Fprintf(&b, "- Avoid these genres: %s\n", strings.Join(prefs.GenreBlocklist, ", "))
		}
	}

	b.WriteString(`
Format your response as valid JSON with this structure:
{
  "taste_profile": {
    "themes": ["theme1", "theme2", "theme3"],
    "narrative_style": "description of preferred storytelling approach",
    "emotional_tone": "description of preferred emotional register",
    "genre_fusion": "description of genre preferences and blending",
    "character_preferences": "description of preferred character types",
    "artistic_sensibilities": "description of aesthetic preferences",
    "confidence_score": 0.85
  },
  "unified_recommendations": [
    {
      "title": "Book Title",
      "author": "Author Name",
      "reason": "Detailed explanation of why this book matches their unified taste profile",
      "taste_match_score": 0.95,
      "primary_appeal": "What aspect of their taste this book primarily satisfies"
    }
  ]
}

Each recommendation reason should be substantial and explain how the book connects to their overall taste profile. The response MUST be valid JSON.`)
	return b.String()
}

func buildTasteProfilePrompt(movies []string, prefs *Preferences) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the taste profile of someone who enjoys these movies: %s\n\n", strings.Join(movies, ", "))
	b.WriteString(`Identify and describe common themes and motifs, preferred narrative styles, emotional and tonal preferences, genre inclinations, character archetype preferences, and atmospheric elements.
`)
	if !prefs.Empty() {
		if prefs.Mood != "" {
			fmt.Fprintf(&b, "They describe their current mood as: %s\n", prefs.Mood)
		}
		if len(prefs.Genres) != 0 {
			fmt.Fprintf(&b, "They gravitate toward: %s\n", strings.Join(prefs.Genres, ", "))
		}
	}
	b.WriteString(`
Provide the analysis in JSON format:
{
  "themes": ["list of common themes"],
  "narrative_style": "description",
  "emotional_tone": "description",
  "genre_fusion": "description",
  "character_preferences": "description",
  "artistic_sensibilities": "description",
  "confidence_score": 0.85
}`)
	return b.String()
}
