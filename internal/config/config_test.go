package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("HARDCOVER_API_KEY", "env-key")
	path := writeConfig(t, "")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Hardcover.APIKey != "env-key" {
		t.Fatalf("api key not picked up from env: %q", cfg.Hardcover.APIKey)
	}
	if cfg.Cache.RecommendationsTTL != 3600 || cfg.Cache.BooksTTL != 86400 || cfg.Cache.TasteProfilesTTL != 7200 {
		t.Fatalf("TTL defaults wrong: %+v", cfg.Cache)
	}
	if cfg.Lookup.MaxConcurrent != 5 || cfg.Lookup.BatchDelayMillis != 1100 {
		t.Fatalf("lookup defaults wrong: %+v", cfg.Lookup)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("logging defaults wrong: %+v", cfg.Logging)
	}
	if !filepath.IsAbs(cfg.Paths.CacheDir) {
		t.Fatalf("cache dir not expanded: %q", cfg.Paths.CacheDir)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[hardcover]
api_key = "file-key"
timeout_seconds = 30

[cache]
books_ttl = 120

[lookup]
max_concurrent = 2

[match]
accept_threshold = 25.0

[logging]
format = "json"
level = "debug"
`)

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Hardcover.APIKey != "file-key" || cfg.Hardcover.TimeoutSeconds != 30 {
		t.Fatalf("hardcover overrides lost: %+v", cfg.Hardcover)
	}
	if cfg.Cache.BooksTTL != 120 {
		t.Fatalf("books_ttl = %d, want 120", cfg.Cache.BooksTTL)
	}
	if cfg.Lookup.MaxConcurrent != 2 {
		t.Fatalf("max_concurrent = %d, want 2", cfg.Lookup.MaxConcurrent)
	}
	if cfg.Match.AcceptThreshold != 25 {
		t.Fatalf("accept_threshold = %v, want 25", cfg.Match.AcceptThreshold)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging overrides lost: %+v", cfg.Logging)
	}
}

func TestLoadRequiresHardcoverKey(t *testing.T) {
	t.Setenv("HARDCOVER_API_KEY", "")
	path := writeConfig(t, "")

	_, _, _, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "hardcover.api_key") {
		t.Fatalf("err = %v, want missing api key error", err)
	}
}

func TestLoadRejectsBadBind(t *testing.T) {
	t.Setenv("HARDCOVER_API_KEY", "k")
	path := writeConfig(t, `
[paths]
api_bind = "not-a-bind"
`)
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected bind validation error")
	}
}

func TestLoadRejectsBadPenalty(t *testing.T) {
	t.Setenv("HARDCOVER_API_KEY", "k")
	path := writeConfig(t, `
[match]
author_mismatch_penalty = 1.5
`)
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected penalty validation error")
	}
}

func TestLoadUnknownFormatFallsBack(t *testing.T) {
	t.Setenv("HARDCOVER_API_KEY", "k")
	path := writeConfig(t, `
[logging]
format = "yaml"
`)
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("format = %q, want console fallback", cfg.Logging.Format)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HARDCOVER_API_KEY", "k")
	missing := filepath.Join(t.TempDir(), "nope.toml")

	cfg, resolved, exists, err := Load(missing)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("missing file must report exists=false")
	}
	if resolved != missing {
		t.Fatalf("resolved = %q", resolved)
	}
	if cfg.Recommend.Count != 5 {
		t.Fatalf("recommend.count default = %d", cfg.Recommend.Count)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HARDCOVER_API_KEY", "k")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := Load(path); err != nil || !exists {
		t.Fatalf("sample config should load cleanly: exists=%v err=%v", exists, err)
	}
}
