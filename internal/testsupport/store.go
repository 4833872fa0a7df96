package testsupport

import (
	"testing"

	"cinereads/internal/config"
	"cinereads/internal/diskcache"
	"cinereads/internal/journal"
)

// MustOpenCache opens a disk cache store rooted at the config's cache
// directory and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *diskcache.Store {
	t.Helper()

	store, err := diskcache.NewStore(cfg.Paths.CacheDir, nil)
	if err != nil {
		t.Fatalf("diskcache.NewStore: %v", err)
	}
	return store
}

// MustOpenJournal opens a lookup journal for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	store, err := journal.Open(cfg.Paths.JournalPath)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
