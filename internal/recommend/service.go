package recommend

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"cinereads/internal/cachekey"
	"cinereads/internal/diskcache"
	"cinereads/internal/logging"
	"cinereads/internal/metadata"
	"cinereads/internal/services"
)

// MaxMoviesPerRequest bounds how many movies one request may analyze.
const MaxMoviesPerRequest = 5

// BookResolver enriches recommended titles with real catalog metadata.
// *metadata.Service satisfies it.
type BookResolver interface {
	GetMany(ctx context.Context, queries []string) []metadata.BatchResult
}

// Settings carries the recommendation service knobs.
type Settings struct {
	// Count is how many books each recommendation set asks for.
	Count              int
	RecommendationsTTL time.Duration
	TasteProfilesTTL   time.Duration
}

func (s Settings) normalized() Settings {
	if s.Count <= 0 {
		s.Count = 5
	}
	if s.RecommendationsTTL <= 0 {
		s.RecommendationsTTL = time.Hour
	}
	if s.TasteProfilesTTL <= 0 {
		s.TasteProfilesTTL = 2 * time.Hour
	}
	return s
}

// Service generates book recommendations from movie preferences: the model
// proposes titles, the book resolver grounds them in catalog metadata, and
// results are cached per movie list, preference set, and kind.
type Service struct {
	llm      Completer
	books    BookResolver
	cache    *diskcache.Store
	logger   *slog.Logger
	settings Settings
	now      func() time.Time
}

// NewService wires the recommendation service. The completer, resolver, and
// cache are all required.
func NewService(llm Completer, books BookResolver, cache *diskcache.Store, settings Settings, logger *slog.Logger) (*Service, error) {
	if llm == nil {
		return nil, services.Wrap(services.ErrConfiguration, "recommend", "new", "llm completer required", nil)
	}
	if books == nil {
		return nil, services.Wrap(services.ErrConfiguration, "recommend", "new", "book resolver required", nil)
	}
	if cache == nil {
		return nil, services.Wrap(services.ErrConfiguration, "recommend", "new", "cache required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		llm:      llm,
		books:    books,
		cache:    cache,
		logger:   logging.NewComponentLogger(logger, "recommend"),
		settings: settings.normalized(),
		now:      time.Now,
	}, nil
}

// Recommend produces enriched recommendations for a movie list. With
// refresh set, any cached result is discarded and regenerated.
func (s *Service) Recommend(ctx context.Context, movies []string, prefs *Preferences, kind Kind, refresh bool) (*Result, error) {
	movies, err := cleanMovies(movies)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		kind = KindUnified
	}
	if !kind.Valid() {
		return nil, services.Wrap(services.ErrValidation, "recommend", "recommend", "unknown recommendation kind "+string(kind), nil)
	}

	key := cachekey.Recommendations(movies, prefs.keyMap(), string(kind))
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldCacheKey, key))

	if refresh {
		s.cache.Delete(key, cachekey.NamespaceRecommendations)
	} else {
		var cached Result
		if s.cache.GetJSON(key, cachekey.NamespaceRecommendations, &cached) {
			cached.CacheHit = true
			logger.Debug("recommendations served from cache")
			return &cached, nil
		}
	}

	var sets []RecommendationSet
	switch kind {
	case KindIndividual:
		// One model pass per movie, failures included in the error.
		for _, movie := range movies {
			set, err := s.generateSet(ctx, []string{movie}, prefs)
			if err != nil {
				return nil, err
			}
			sets = append(sets, set)
		}
	default:
		set, err := s.generateSet(ctx, movies, prefs)
		if err != nil {
			return nil, err
		}
		sets = []RecommendationSet{set}
	}

	s.enrich(ctx, sets)

	result := &Result{
		Sets:      sets,
		Insights:  buildInsights(movies, sets),
		Generated: s.now().UTC().Format(time.RFC3339),
	}
	s.cache.Set(key, result, s.settings.RecommendationsTTL, cachekey.NamespaceRecommendations)
	logger.Info("recommendations generated",
		logging.Int("movies", len(movies)),
		logging.Int("sets", len(sets)),
		logging.String("kind", string(kind)))
	return result, nil
}

// TasteProfile analyzes the movie list without recommending books.
func (s *Service) TasteProfile(ctx context.Context, movies []string, prefs *Preferences) (*TasteProfile, error) {
	movies, err := cleanMovies(movies)
	if err != nil {
		return nil, err
	}

	key := cachekey.TasteProfile(movies, prefs.keyMap())
	var cached TasteProfile
	if s.cache.GetJSON(key, cachekey.NamespaceTasteProfiles, &cached) {
		return &cached, nil
	}

	content, err := s.llm.CompleteJSON(ctx, analystSystemPrompt, buildTasteProfilePrompt(movies, prefs))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "recommend", "taste_profile", "model request failed", err)
	}
	var profile TasteProfile
	if err := DecodeModelJSON(content, &profile); err != nil {
		return nil, services.Wrap(services.ErrTransient, "recommend", "taste_profile", "unparseable model payload", err)
	}
	s.cache.Set(key, profile, s.settings.TasteProfilesTTL, cachekey.NamespaceTasteProfiles)
	return &profile, nil
}

func (s *Service) generateSet(ctx context.Context, movies []string, prefs *Preferences) (RecommendationSet, error) {
	var empty RecommendationSet
	content, err := s.llm.CompleteJSON(ctx, curatorSystemPrompt, buildRecommendationPrompt(movies, prefs, s.settings.Count))
	if err != nil {
		return empty, services.Wrap(services.ErrTransient, "recommend", "generate", "model request failed", err)
	}

	var parsed llmResponse
	if err := DecodeModelJSON(content, &parsed); err != nil {
		return empty, services.Wrap(services.ErrTransient, "recommend", "generate", "unparseable model payload", err)
	}

	recs := make([]Recommendation, 0, len(parsed.UnifiedRecommendations))
	for _, raw := range parsed.UnifiedRecommendations {
		title := strings.TrimSpace(raw.Title)
		author := strings.TrimSpace(raw.Author)
		if title == "" || author == "" {
			continue
		}
		recs = append(recs, Recommendation{
			Title:           title,
			Author:          author,
			Reason:          strings.TrimSpace(raw.Reason),
			TasteMatchScore: raw.TasteMatchScore,
			PrimaryAppeal:   strings.TrimSpace(raw.PrimaryAppeal),
		})
	}
	if len(recs) == 0 {
		return empty, services.Wrap(services.ErrTransient, "recommend", "generate", "model returned no usable recommendations", nil)
	}

	return RecommendationSet{
		Summary:         movieSummary(movies),
		TasteProfile:    parsed.TasteProfile,
		Recommendations: recs,
	}, nil
}

// enrich attaches resolved catalog metadata to every recommendation in one
// bounded batch. Lookup failures leave the model's suggestion bare rather
// than failing the request.
func (s *Service) enrich(ctx context.Context, sets []RecommendationSet) {
	type slot struct{ set, rec int }
	var (
		queries []string
		slots   []slot
	)
	for i := range sets {
		for j := range sets[i].Recommendations {
			rec := &sets[i].Recommendations[j]
			queries = append(queries, rec.Title+" by "+rec.Author)
			slots = append(slots, slot{set: i, rec: j})
		}
	}
	if len(queries) == 0 {
		return
	}

	results := s.books.GetMany(ctx, queries)
	for idx, result := range results {
		target := slots[idx]
		if result.Err != nil {
			if !metadata.IsNotFound(result.Err) {
				s.logger.Warn("book enrichment failed",
					logging.String(logging.FieldQuery, result.Query),
					logging.Error(result.Err))
			}
			continue
		}
		sets[target.set].Recommendations[target.rec].Book = result.Book
	}
}

func cleanMovies(movies []string) ([]string, error) {
	cleaned := make([]string, 0, len(movies))
	for _, movie := range movies {
		if trimmed := strings.TrimSpace(movie); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, services.Wrap(services.ErrValidation, "recommend", "validate", "at least one movie is required", nil)
	}
	if len(cleaned) > MaxMoviesPerRequest {
		return nil, services.Wrap(services.ErrValidation, "recommend", "validate", "too many movies in one request", nil)
	}
	return cleaned, nil
}
