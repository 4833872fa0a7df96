package main

import (
	"fmt"
	"log/slog"
	"time"

	"cinereads/internal/config"
	"cinereads/internal/diskcache"
	"cinereads/internal/genres"
	"cinereads/internal/hardcover"
	"cinereads/internal/journal"
	"cinereads/internal/match"
	"cinereads/internal/metadata"
	"cinereads/internal/recommend"
)

// lookupStack bundles the services a lookup-capable command needs.
type lookupStack struct {
	cache    *diskcache.Store
	journal  *journal.Store
	metadata *metadata.Service
}

func (s *lookupStack) close() {
	if s.journal != nil {
		_ = s.journal.Close()
	}
}

func buildLookupStack(cfg *config.Config, logger *slog.Logger) (*lookupStack, error) {
	cache, err := diskcache.NewStore(cfg.Paths.CacheDir, logger)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}

	journalStore, err := journal.Open(cfg.Paths.JournalPath)
	if err != nil {
		return nil, fmt.Errorf("open lookup journal: %w", err)
	}

	client, err := hardcover.NewClient(hardcover.Config{
		APIKey:         cfg.Hardcover.APIKey,
		BaseURL:        cfg.Hardcover.BaseURL,
		TimeoutSeconds: cfg.Hardcover.TimeoutSeconds,
		PerPage:        cfg.Hardcover.PerPage,
	})
	if err != nil {
		_ = journalStore.Close()
		return nil, fmt.Errorf("configure hardcover client: %w", err)
	}

	normalizer, err := genres.Load(cfg.Paths.GenreAliasPath)
	if err != nil {
		_ = journalStore.Close()
		return nil, fmt.Errorf("load genre aliases: %w", err)
	}

	resolver := match.NewResolver(policyFromConfig(cfg.Match), logger)
	svc, err := metadata.NewService(client, resolver, cache, metadataSettings(cfg), logger,
		metadata.WithJournal(journalStore),
		metadata.WithGenreNormalizer(normalizer))
	if err != nil {
		_ = journalStore.Close()
		return nil, fmt.Errorf("configure metadata service: %w", err)
	}

	return &lookupStack{cache: cache, journal: journalStore, metadata: svc}, nil
}

func buildRecommendService(cfg *config.Config, stack *lookupStack, logger *slog.Logger) (*recommend.Service, error) {
	llm := recommend.NewLLMClient(recommend.LLMConfig{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	svc, err := recommend.NewService(llm, stack.metadata, stack.cache, recommend.Settings{
		Count:              cfg.Recommend.Count,
		RecommendationsTTL: secondsDuration(cfg.Cache.RecommendationsTTL),
		TasteProfilesTTL:   secondsDuration(cfg.Cache.TasteProfilesTTL),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("configure recommendation service: %w", err)
	}
	return svc, nil
}

// policyFromConfig maps scoring overrides onto the resolver policy. Zero
// values keep the resolver defaults.
func policyFromConfig(m config.Match) match.Policy {
	return match.Policy{
		ExactTitleScore:       m.ExactTitleScore,
		QueryInTitleScore:     m.QueryInTitleScore,
		TitleInQueryScore:     m.TitleInQueryScore,
		TokenOverlapWeight:    m.TokenOverlapWeight,
		AuthorBonus:           m.AuthorBonus,
		AuthorMismatchPenalty: m.AuthorMismatchPenalty,
		AcceptThreshold:       m.AcceptThreshold,
	}
}

func metadataSettings(cfg *config.Config) metadata.Settings {
	return metadata.Settings{
		RetryAttempts: cfg.Lookup.RetryAttempts,
		BackoffBase:   floatSeconds(cfg.Lookup.BackoffBaseSeconds),
		RateLimitBase: floatSeconds(cfg.Lookup.RateLimitBaseSeconds),
		MaxConcurrent: cfg.Lookup.MaxConcurrent,
		BatchDelay:    time.Duration(cfg.Lookup.BatchDelayMillis) * time.Millisecond,
		BookTTL:       secondsDuration(cfg.Cache.BooksTTL),
		NegativeTTL:   secondsDuration(cfg.Cache.NegativeTTL),
	}
}

func secondsDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

func floatSeconds(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
