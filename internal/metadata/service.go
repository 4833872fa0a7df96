package metadata

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cinereads/internal/cachekey"
	"cinereads/internal/diskcache"
	"cinereads/internal/genres"
	"cinereads/internal/hardcover"
	"cinereads/internal/journal"
	"cinereads/internal/logging"
	"cinereads/internal/match"
	"cinereads/internal/services"
)

// Service orchestrates book metadata lookups: cache first, then the search
// API through the retry loop, with results resolved, enriched, and written
// back to the cache. Concurrent lookups are bounded by a slot limiter.
type Service struct {
	searcher hardcover.Searcher
	resolver *match.Resolver
	cache    *diskcache.Store
	journal  *journal.Store
	genres   *genres.Normalizer
	logger   *slog.Logger
	settings Settings

	slots   chan struct{}
	sleeper func(ctx context.Context, d time.Duration) error
}

// Option customizes the service.
type Option func(*Service)

// WithJournal enables best-effort lookup journaling.
func WithJournal(store *journal.Store) Option {
	return func(s *Service) {
		s.journal = store
	}
}

// WithGenreNormalizer applies genre canonicalization to resolved books.
func WithGenreNormalizer(n *genres.Normalizer) Option {
	return func(s *Service) {
		s.genres = n
	}
}

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleeper func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) {
		if sleeper != nil {
			s.sleeper = sleeper
		}
	}
}

// NewService wires the orchestrator. The searcher and cache are required;
// the resolver falls back to default scoring when nil.
func NewService(searcher hardcover.Searcher, resolver *match.Resolver, cache *diskcache.Store, settings Settings, logger *slog.Logger, opts ...Option) (*Service, error) {
	if searcher == nil {
		return nil, services.Wrap(services.ErrConfiguration, "metadata", "new", "searcher required", nil)
	}
	if cache == nil {
		return nil, services.Wrap(services.ErrConfiguration, "metadata", "new", "cache required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if resolver == nil {
		resolver = match.NewResolver(match.Policy{}, logger)
	}
	settings = settings.normalized()
	svc := &Service{
		searcher: searcher,
		resolver: resolver,
		cache:    cache,
		logger:   logging.NewComponentLogger(logger, "metadata"),
		settings: settings,
		slots:    make(chan struct{}, settings.MaxConcurrent),
		sleeper:  sleepContext,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Lookup resolves free-form query text to a single book. A cache hit,
// positive or negative, answers immediately; otherwise the search attempt
// loop runs and its outcome is cached.
func (s *Service) Lookup(ctx context.Context, raw string) (*Book, error) {
	return s.lookup(ctx, match.ParseQuery(raw))
}

// LookupTitleAuthor resolves an already-separated title and author pair.
func (s *Service) LookupTitleAuthor(ctx context.Context, title, author string) (*Book, error) {
	return s.lookup(ctx, match.NewQuery(title, author))
}

func (s *Service) lookup(ctx context.Context, query match.Query) (*Book, error) {
	if query.Title == "" {
		return nil, services.Wrap(services.ErrValidation, "metadata", "lookup", "empty query", nil)
	}
	key := cachekey.Book(query.Title, query.Author)
	logger := logging.WithContext(ctx, s.logger).With(
		logging.String(logging.FieldQuery, query.Raw),
		logging.String(logging.FieldCacheKey, key))

	var cached lookupEnvelope
	if s.cache.GetJSON(key, cachekey.NamespaceBooks, &cached) {
		logger.Debug("lookup served from cache", logging.Bool("found", cached.Found))
		s.record(journal.Record{Query: query.Raw, Outcome: journal.OutcomeCached})
		if !cached.Found || cached.Book == nil {
			return nil, services.Wrap(services.ErrNotFound, "metadata", "lookup", query.Raw, nil)
		}
		return cached.Book, nil
	}

	if err := s.acquireSlot(ctx); err != nil {
		return nil, err
	}
	defer s.releaseSlot()

	started := time.Now()
	outcome := s.runAttempts(ctx, logger, query)
	duration := time.Since(started)

	switch {
	case outcome.err != nil:
		s.record(journal.Record{
			Query:    query.Raw,
			Strategy: outcome.strategy,
			Outcome:  journal.OutcomeError,
			Duration: duration,
			Detail:   outcome.err.Error(),
		})
		return nil, outcome.err
	case outcome.book == nil:
		// A definitive miss is worth remembering, but only briefly: the
		// catalog may gain the book tomorrow.
		s.cache.Set(key, lookupEnvelope{Found: false}, s.settings.NegativeTTL, cachekey.NamespaceBooks)
		s.record(journal.Record{
			Query:    query.Raw,
			Strategy: outcome.strategy,
			Outcome:  journal.OutcomeNotFound,
			Score:    outcome.score,
			Duration: duration,
		})
		logger.Info("lookup found no acceptable match",
			logging.Float64("best_score", outcome.score),
			logging.Duration("duration", duration))
		return nil, services.Wrap(services.ErrNotFound, "metadata", "lookup", query.Raw, nil)
	default:
		s.cache.Set(key, lookupEnvelope{Found: true, Book: outcome.book}, s.settings.BookTTL, cachekey.NamespaceBooks)
		s.record(journal.Record{
			Query:    query.Raw,
			Strategy: outcome.strategy,
			Outcome:  journal.OutcomeMatched,
			Score:    outcome.score,
			BookID:   outcome.book.ID,
			Duration: duration,
		})
		logger.Info("lookup resolved",
			logging.String("title", outcome.book.Title),
			logging.String(logging.FieldStrategy, outcome.strategy),
			logging.Float64("score", outcome.score),
			logging.Duration("duration", duration))
		return outcome.book, nil
	}
}

// Invalidate drops any cached entry, positive or negative, for the query.
func (s *Service) Invalidate(raw string) {
	query := match.ParseQuery(raw)
	if query.Title == "" {
		return
	}
	s.cache.Delete(cachekey.Book(query.Title, query.Author), cachekey.NamespaceBooks)
}

// CacheStats reports the underlying store's aggregate statistics.
func (s *Service) CacheStats() diskcache.Stats {
	return s.cache.Stats()
}

func (s *Service) acquireSlot(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) releaseSlot() {
	<-s.slots
}

func (s *Service) record(rec journal.Record) {
	if s.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.journal.Append(ctx, rec); err != nil {
		s.logger.Debug("journal append failed", logging.Error(err))
	}
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return s.sleeper(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsNotFound reports whether an error is the orchestrator's definitive miss.
func IsNotFound(err error) bool {
	return errors.Is(err, services.ErrNotFound)
}
