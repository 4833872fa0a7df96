package diskcache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cinereads/internal/cachekey"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store, err := NewStore(t.TempDir(), nil, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, clock
}

func entryFile(s *Store, key string, ns cachekey.Namespace) string {
	return filepath.Join(s.root, string(ns), key+".json")
}

func TestSetGetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	key := cachekey.Book("Dune", "Frank Herbert")

	store.Set(key, map[string]string{"title": "Dune"}, time.Hour, cachekey.NamespaceBooks)

	var got map[string]string
	if !store.GetJSON(key, cachekey.NamespaceBooks, &got) {
		t.Fatal("expected cache hit immediately after set")
	}
	if got["title"] != "Dune" {
		t.Fatalf("value mismatch: %v", got)
	}
}

func TestGetAfterTTLReturnsAbsentAndDeletes(t *testing.T) {
	store, clock := newTestStore(t)
	key := cachekey.Book("Dune", "Frank Herbert")

	store.Set(key, "payload", time.Hour, cachekey.NamespaceBooks)
	clock.Advance(time.Hour + time.Second)

	if _, ok := store.Get(key, cachekey.NamespaceBooks); ok {
		t.Fatal("expired entry must read as absent")
	}
	if _, err := os.Stat(entryFile(store, key, cachekey.NamespaceBooks)); !os.IsNotExist(err) {
		t.Fatalf("expired entry file should be removed, stat err = %v", err)
	}
}

func TestCorruptedEntrySelfHeals(t *testing.T) {
	store, _ := newTestStore(t)
	key := cachekey.Book("Dune", "Frank Herbert")
	path := entryFile(store, key, cachekey.NamespaceBooks)

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("plant corrupt entry: %v", err)
	}

	if _, ok := store.Get(key, cachekey.NamespaceBooks); ok {
		t.Fatal("corrupt entry must read as absent")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("corrupt entry file should be removed, stat err = %v", err)
	}
}

func TestEntryMissingExpiryIsHealed(t *testing.T) {
	store, _ := newTestStore(t)
	key := cachekey.Book("Dune", "Frank Herbert")
	path := entryFile(store, key, cachekey.NamespaceBooks)

	raw, _ := json.Marshal(Entry{Key: key, Namespace: "books", Value: json.RawMessage(`"x"`)})
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("plant entry: %v", err)
	}
	if _, ok := store.Get(key, cachekey.NamespaceBooks); ok {
		t.Fatal("entry without expiry must read as absent")
	}
}

func TestOverwriteReplacesValue(t *testing.T) {
	store, _ := newTestStore(t)
	key := cachekey.Book("Dune", "Frank Herbert")

	store.Set(key, "old", time.Hour, cachekey.NamespaceBooks)
	store.Set(key, "new", time.Hour, cachekey.NamespaceBooks)

	var got string
	if !store.GetJSON(key, cachekey.NamespaceBooks, &got) || got != "new" {
		t.Fatalf("expected overwritten value, got %q", got)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	key := cachekey.Book("Dune", "Frank Herbert")

	store.Delete(key, cachekey.NamespaceBooks)
	store.Set(key, "payload", time.Hour, cachekey.NamespaceBooks)
	store.Delete(key, cachekey.NamespaceBooks)
	store.Delete(key, cachekey.NamespaceBooks)

	if _, ok := store.Get(key, cachekey.NamespaceBooks); ok {
		t.Fatal("deleted entry must be absent")
	}
}

func TestClearNamespaceLeavesOthers(t *testing.T) {
	store, _ := newTestStore(t)
	bookKey := cachekey.Book("Dune", "Frank Herbert")
	recKey := cachekey.Recommendations([]string{"Arrival"}, nil, "unified")

	store.Set(bookKey, "book", time.Hour, cachekey.NamespaceBooks)
	store.Set(recKey, "recs", time.Hour, cachekey.NamespaceRecommendations)

	if err := store.Clear(cachekey.NamespaceBooks); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if _, ok := store.Get(bookKey, cachekey.NamespaceBooks); ok {
		t.Fatal("cleared namespace should be empty")
	}
	if _, ok := store.Get(recKey, cachekey.NamespaceRecommendations); !ok {
		t.Fatal("other namespace should survive Clear")
	}
}

func TestSweepRemovesExpiredAndMalformed(t *testing.T) {
	store, clock := newTestStore(t)

	store.Set(cachekey.Book("Old One", ""), "x", time.Minute, cachekey.NamespaceBooks)
	store.Set(cachekey.Book("Old Two", ""), "x", time.Minute, cachekey.NamespaceBooks)
	clock.Advance(2 * time.Minute)
	liveKeys := []string{
		cachekey.Book("Live One", ""),
		cachekey.Book("Live Two", ""),
		cachekey.Book("Live Three", ""),
	}
	for _, key := range liveKeys {
		store.Set(key, "x", time.Hour, cachekey.NamespaceBooks)
	}

	if removed := store.Sweep(); removed != 2 {
		t.Fatalf("Sweep removed %d entries, want 2", removed)
	}
	for _, key := range liveKeys {
		if _, ok := store.Get(key, cachekey.NamespaceBooks); !ok {
			t.Fatalf("live key %s should survive sweep", key)
		}
	}

	// Malformed entries count as removable too.
	path := entryFile(store, cachekey.Book("Broken", ""), cachekey.NamespaceBooks)
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("plant corrupt entry: %v", err)
	}
	if removed := store.Sweep(); removed != 1 {
		t.Fatalf("Sweep removed %d entries, want 1", removed)
	}
}

func TestStatsAggregates(t *testing.T) {
	store, _ := newTestStore(t)
	store.statfs = func(string) (uint64, uint64, error) { return 1000, 400, nil }

	store.Set(cachekey.Book("Dune", ""), "x", time.Hour, cachekey.NamespaceBooks)
	store.Set(cachekey.Book("Hyperion", ""), "x", time.Hour, cachekey.NamespaceBooks)
	store.Set(cachekey.Recommendations([]string{"Arrival"}, nil, "unified"), "x", time.Hour, cachekey.NamespaceRecommendations)

	stats := store.Stats()
	if stats.Entries != 3 {
		t.Fatalf("Entries = %d, want 3", stats.Entries)
	}
	if stats.ByNamespace["books"].Entries != 2 {
		t.Fatalf("books entries = %d, want 2", stats.ByNamespace["books"].Entries)
	}
	if stats.TotalBytes <= 0 {
		t.Fatal("TotalBytes should be positive")
	}
	if stats.SchemaVersions[SchemaVersion] != 3 {
		t.Fatalf("schema histogram = %v", stats.SchemaVersions)
	}
	if stats.FreeBytes != 400 || stats.TotalFSBytes != 1000 {
		t.Fatalf("statfs passthrough failed: %+v", stats)
	}
}

func TestConcurrentReadersNeverSeeTornWrites(t *testing.T) {
	store, _ := newTestStore(t)
	key := cachekey.Book("Dune", "Frank Herbert")
	type payload struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	full := payload{Title: "Dune", Body: string(make([]byte, 4096))}

	store.Set(key, full, time.Hour, cachekey.NamespaceBooks)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				store.Set(key, full, time.Hour, cachekey.NamespaceBooks)
			}
		}
	}()

	for i := 0; i < 200; i++ {
		var got payload
		if !store.GetJSON(key, cachekey.NamespaceBooks, &got) {
			t.Error("reader observed absence during concurrent writes")
			break
		}
		if got.Title != "Dune" || len(got.Body) != 4096 {
			t.Errorf("reader observed torn value: %+v", got.Title)
			break
		}
	}
	close(done)
	wg.Wait()
}

func TestRejectsUnsafeKeys(t *testing.T) {
	store, _ := newTestStore(t)
	store.Set("../escape", "x", time.Hour, cachekey.NamespaceBooks)
	if _, ok := store.Get("../escape", cachekey.NamespaceBooks); ok {
		t.Fatal("keys with path separators must be rejected")
	}
	if _, ok := store.Get("", cachekey.NamespaceBooks); ok {
		t.Fatal("empty key must be rejected")
	}
}
