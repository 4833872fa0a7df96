package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cinereads/internal/cachekey"
	"cinereads/internal/diskcache"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "cinereads.toml")
	content := `
[paths]
cache_dir = "` + filepath.Join(base, "cache") + `"
log_dir = "` + filepath.Join(base, "logs") + `"
journal_path = "` + filepath.Join(base, "journal.db") + `"
lock_path = "` + filepath.Join(base, "cinereads.lock") + `"

[hardcover]
api_key = "test"

[llm]
api_key = "test"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("command %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestCacheStatsCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)
	cacheDir := filepath.Join(filepath.Dir(cfgPath), "cache")
	store, err := diskcache.NewStore(cacheDir, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	store.Set("cinereads:v2:books:x", map[string]string{"title": "Dune"}, time.Hour, cachekey.NamespaceBooks)

	out := runCommand(t, "--config", cfgPath, "cache", "stats")
	if !strings.Contains(out, "books") {
		t.Fatalf("stats output missing namespace:\n%s", out)
	}
	if !strings.Contains(out, "total") {
		t.Fatalf("stats output missing total row:\n%s", out)
	}
}

func TestCacheSweepCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)
	cacheDir := filepath.Join(filepath.Dir(cfgPath), "cache")
	store, err := diskcache.NewStore(cacheDir, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	store.Set("cinereads:v2:books:stale", "x", -time.Hour, cachekey.NamespaceBooks)

	out := runCommand(t, "--config", cfgPath, "cache", "sweep")
	if !strings.Contains(out, "Removed") {
		t.Fatalf("sweep output unexpected:\n%s", out)
	}
}

func TestCacheClearRejectsUnknownNamespace(t *testing.T) {
	cfgPath := writeTestConfig(t)

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", cfgPath, "cache", "clear", "--namespace", "bogus"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown namespace")
	}
}

func TestJournalRecentEmpty(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out := runCommand(t, "--config", cfgPath, "journal", "recent")
	if !strings.Contains(out, "Journal is empty") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
