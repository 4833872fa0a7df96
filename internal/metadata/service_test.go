package metadata

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cinereads/internal/diskcache"
	"cinereads/internal/hardcover"
	"cinereads/internal/journal"
	"cinereads/internal/services"
)

type fakeSearcher struct {
	mu      sync.Mutex
	calls   []string
	active  int
	maxSeen int
	delay   time.Duration
	respond func(call int, query string) ([]hardcover.Candidate, error)
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]hardcover.Candidate, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	call := len(f.calls)
	f.active++
	if f.active > f.maxSeen {
		f.maxSeen = f.active
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()
	return f.respond(call, query)
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var duneCandidate = hardcover.Candidate{
	ID: 42, Title: "Dune", Authors: []string{"Frank Herbert"},
	Rating: 4.3, UsersCount: 8000, Slug: "dune", Genres: []string{"Sci-Fi"},
}

type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.sleeps = append(r.sleeps, d)
	r.mu.Unlock()
	return ctx.Err()
}

func newTestService(t *testing.T, searcher hardcover.Searcher, settings Settings, opts ...Option) (*Service, *sleepRecorder) {
	t.Helper()
	cache, err := diskcache.NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	recorder := &sleepRecorder{}
	opts = append(opts, WithSleeper(recorder.sleep))
	svc, err := NewService(searcher, nil, cache, settings, nil, opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, recorder
}

func TestLookupResolvesAndCaches(t *testing.T) {
	searcher := &fakeSearcher{respond: func(int, string) ([]hardcover.Candidate, error) {
		return []hardcover.Candidate{duneCandidate}, nil
	}}
	svc, _ := newTestService(t, searcher, Settings{})

	book, err := svc.Lookup(context.Background(), "dune by frank herbert")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if book.ID != 42 || book.Author != "Frank Herbert" || book.URL != "https://hardcover.app/books/dune" {
		t.Fatalf("book = %+v", book)
	}

	again, err := svc.Lookup(context.Background(), "dune by frank herbert")
	if err != nil {
		t.Fatalf("second Lookup: %v", err)
	}
	if again.ID != 42 {
		t.Fatalf("cached book = %+v", again)
	}
	if searcher.callCount() != 1 {
		t.Fatalf("searcher called %d times, want 1 (second lookup cached)", searcher.callCount())
	}
}

func TestLookupNegativeCaching(t *testing.T) {
	searcher := &fakeSearcher{respond: func(int, string) ([]hardcover.Candidate, error) {
		return nil, nil
	}}
	svc, _ := newTestService(t, searcher, Settings{})

	if _, err := svc.Lookup(context.Background(), "completely unknown book"); !IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
	searchesAfterFirst := searcher.callCount()

	if _, err := svc.Lookup(context.Background(), "completely unknown book"); !IsNotFound(err) {
		t.Fatalf("second err = %v, want not found", err)
	}
	if searcher.callCount() != searchesAfterFirst {
		t.Fatal("negative result should be served from cache")
	}
}

func TestLookupStrategyFallback(t *testing.T) {
	searcher := &fakeSearcher{respond: func(call int, query string) ([]hardcover.Candidate, error) {
		// The title+author term finds nothing; the title-only strategy succeeds.
		if query == "dune" {
			return []hardcover.Candidate{duneCandidate}, nil
		}
		return nil, nil
	}}
	svc, _ := newTestService(t, searcher, Settings{})

	book, err := svc.Lookup(context.Background(), "dune by frank herbert")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if book.ID != 42 {
		t.Fatalf("book = %+v", book)
	}
	if searcher.callCount() < 2 {
		t.Fatalf("expected fallback strategies to run, got calls %v", searcher.calls)
	}
}

func TestLookupRetriesTimeoutWithBackoff(t *testing.T) {
	timeoutErr := services.Wrap(services.ErrTimeout, "hardcover", "search", "request timed out", nil)
	searcher := &fakeSearcher{respond: func(call int, _ string) ([]hardcover.Candidate, error) {
		if call == 1 {
			return nil, timeoutErr
		}
		return []hardcover.Candidate{duneCandidate}, nil
	}}
	svc, recorder := newTestService(t, searcher, Settings{BackoffBase: time.Second})

	book, err := svc.Lookup(context.Background(), "dune")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if book.ID != 42 {
		t.Fatalf("book = %+v", book)
	}
	if len(recorder.sleeps) != 1 || recorder.sleeps[0] != time.Second {
		t.Fatalf("sleeps = %v, want one base backoff", recorder.sleeps)
	}
}

func TestLookupRateLimitHonorsRetryAfter(t *testing.T) {
	rateErr := services.Wrap(services.ErrRateLimited, "hardcover", "search", "rate limited",
		&hardcover.StatusError{StatusCode: 429, RetryAfter: 30 * time.Second})
	searcher := &fakeSearcher{respond: func(call int, _ string) ([]hardcover.Candidate, error) {
		if call == 1 {
			return nil, rateErr
		}
		return []hardcover.Candidate{duneCandidate}, nil
	}}
	svc, recorder := newTestService(t, searcher, Settings{RateLimitBase: 5 * time.Second})

	if _, err := svc.Lookup(context.Background(), "dune"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(recorder.sleeps) != 1 || recorder.sleeps[0] != 30*time.Second {
		t.Fatalf("sleeps = %v, want Retry-After to win over the computed delay", recorder.sleeps)
	}
}

func TestLookupRateLimitComputedDelay(t *testing.T) {
	rateErr := services.Wrap(services.ErrRateLimited, "hardcover", "search", "rate limited",
		&hardcover.StatusError{StatusCode: 429})
	searcher := &fakeSearcher{respond: func(call int, _ string) ([]hardcover.Candidate, error) {
		if call <= 2 {
			return nil, rateErr
		}
		return []hardcover.Candidate{duneCandidate}, nil
	}}
	svc, recorder := newTestService(t, searcher, Settings{RateLimitBase: 5 * time.Second})

	if _, err := svc.Lookup(context.Background(), "dune"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	want := []time.Duration{5 * time.Second, 10 * time.Second}
	if len(recorder.sleeps) != 2 || recorder.sleeps[0] != want[0] || recorder.sleeps[1] != want[1] {
		t.Fatalf("sleeps = %v, want %v", recorder.sleeps, want)
	}
}

func TestLookupAuthAbortsImmediately(t *testing.T) {
	authErr := services.Wrap(services.ErrAuth, "hardcover", "search", "authentication rejected", nil)
	searcher := &fakeSearcher{respond: func(int, string) ([]hardcover.Candidate, error) {
		return nil, authErr
	}}
	svc, recorder := newTestService(t, searcher, Settings{RetryAttempts: 3})

	_, err := svc.Lookup(context.Background(), "dune")
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("err = %v, want ErrAuth", err)
	}
	if searcher.callCount() != 1 {
		t.Fatalf("searcher called %d times, want 1 (no retries on auth failure)", searcher.callCount())
	}
	if len(recorder.sleeps) != 0 {
		t.Fatalf("sleeps = %v, want none", recorder.sleeps)
	}
}

func TestLookupExhaustsAttempts(t *testing.T) {
	timeoutErr := services.Wrap(services.ErrTimeout, "hardcover", "search", "request timed out", nil)
	searcher := &fakeSearcher{respond: func(int, string) ([]hardcover.Candidate, error) {
		return nil, timeoutErr
	}}
	svc, recorder := newTestService(t, searcher, Settings{RetryAttempts: 3, BackoffBase: time.Second})

	_, err := svc.Lookup(context.Background(), "dune")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("err = %v, want exhausted-retries transient error", err)
	}
	// Two backoffs between three attempts, scaling with the attempt number.
	if len(recorder.sleeps) != 2 || recorder.sleeps[0] != time.Second || recorder.sleeps[1] != 2*time.Second {
		t.Fatalf("sleeps = %v", recorder.sleeps)
	}
	// A failed lookup must not be negatively cached.
	if searcher.callCount() == 0 {
		t.Fatal("searcher never called")
	}
	before := searcher.callCount()
	_, _ = svc.Lookup(context.Background(), "dune")
	if searcher.callCount() == before {
		t.Fatal("errored lookup should retry on the next call, not be cached")
	}
}

func TestLookupRejectsEmptyQuery(t *testing.T) {
	searcher := &fakeSearcher{respond: func(int, string) ([]hardcover.Candidate, error) {
		t.Error("no search expected")
		return nil, nil
	}}
	svc, _ := newTestService(t, searcher, Settings{})
	if _, err := svc.Lookup(context.Background(), "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestGetManyIsolatesFailures(t *testing.T) {
	searcher := &fakeSearcher{respond: func(call int, query string) ([]hardcover.Candidate, error) {
		switch query {
		case "dune":
			return []hardcover.Candidate{duneCandidate}, nil
		case "the hobbit":
			return []hardcover.Candidate{{ID: 7, Title: "The Hobbit", Authors: []string{"J.R.R. Tolkien"}}}, nil
		default:
			return nil, nil
		}
	}}
	svc, _ := newTestService(t, searcher, Settings{})

	results := svc.GetMany(context.Background(), []string{"dune", "no such thing anywhere ok", "the hobbit"})
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Book == nil || results[0].Book.ID != 42 {
		t.Fatalf("results[0] = %+v", results[0])
	}
	if results[1].Book != nil || !IsNotFound(results[1].Err) {
		t.Fatalf("results[1] = %+v, want not-found", results[1])
	}
	if results[2].Book == nil || results[2].Book.ID != 7 {
		t.Fatalf("results[2] = %+v", results[2])
	}
}

func TestGetManyBoundsConcurrency(t *testing.T) {
	searcher := &fakeSearcher{
		delay: 30 * time.Millisecond,
		respond: func(int, string) ([]hardcover.Candidate, error) {
			return []hardcover.Candidate{duneCandidate}, nil
		},
	}
	svc, _ := newTestService(t, searcher, Settings{MaxConcurrent: 2})

	queries := []string{"dune one", "dune two", "dune three", "dune four", "dune five"}
	svc.GetMany(context.Background(), queries)

	searcher.mu.Lock()
	maxSeen := searcher.maxSeen
	searcher.mu.Unlock()
	if maxSeen > 2 {
		t.Fatalf("observed %d concurrent searches, limit is 2", maxSeen)
	}
}

func TestInvalidateDropsCachedEntry(t *testing.T) {
	searcher := &fakeSearcher{respond: func(int, string) ([]hardcover.Candidate, error) {
		return []hardcover.Candidate{duneCandidate}, nil
	}}
	svc, _ := newTestService(t, searcher, Settings{})

	if _, err := svc.Lookup(context.Background(), "dune"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	before := searcher.callCount()
	svc.Invalidate("dune")
	if _, err := svc.Lookup(context.Background(), "dune"); err != nil {
		t.Fatalf("Lookup after invalidate: %v", err)
	}
	if searcher.callCount() == before {
		t.Fatal("invalidated entry should force a fresh search")
	}
}

func TestLookupJournalsOutcomes(t *testing.T) {
	store, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	defer store.Close()

	searcher := &fakeSearcher{respond: func(int, string) ([]hardcover.Candidate, error) {
		return []hardcover.Candidate{duneCandidate}, nil
	}}
	svc, _ := newTestService(t, searcher, Settings{}, WithJournal(store))

	if _, err := svc.Lookup(context.Background(), "dune"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if _, err := svc.Lookup(context.Background(), "dune"); err != nil {
		t.Fatalf("cached Lookup: %v", err)
	}

	records, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d journal records, want 2", len(records))
	}
	if records[0].Outcome != journal.OutcomeCached || records[1].Outcome != journal.OutcomeMatched {
		t.Fatalf("outcomes = %v, %v", records[0].Outcome, records[1].Outcome)
	}
	if records[1].BookID != 42 {
		t.Fatalf("matched record = %+v", records[1])
	}
}

func TestGenreNormalizationApplied(t *testing.T) {
	searcher := &fakeSearcher{respond: func(int, string) ([]hardcover.Candidate, error) {
		return []hardcover.Candidate{duneCandidate}, nil
	}}
	svc, _ := newTestService(t, searcher, Settings{})
	// Default service has no normalizer: raw genres pass through.
	book, err := svc.Lookup(context.Background(), "dune")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(book.Genres) != 1 || book.Genres[0] != "Sci-Fi" {
		t.Fatalf("genres = %v", book.Genres)
	}
}
