package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory, file, and bind address configuration.
type Paths struct {
	CacheDir       string `toml:"cache_dir"`
	LogDir         string `toml:"log_dir"`
	JournalPath    string `toml:"journal_path"`
	GenreAliasPath string `toml:"genre_alias_path"`
	LockPath       string `toml:"lock_path"`
	APIBind        string `toml:"api_bind"`
}

// Hardcover contains configuration for the Hardcover book API.
type Hardcover struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	PerPage        int    `toml:"per_page"`
}

// LLM contains connection settings for the recommendation model.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Cache contains per-namespace TTLs and sweeper timing, all in seconds.
type Cache struct {
	RecommendationsTTL   int `toml:"recommendations_ttl"`
	BooksTTL             int `toml:"books_ttl"`
	TasteProfilesTTL     int `toml:"taste_profiles_ttl"`
	NegativeTTL          int `toml:"negative_ttl"`
	SweepInterval        int `toml:"sweep_interval"`
	JournalRetentionDays int `toml:"journal_retention_days"`
}

// Lookup contains retry, rate-limit, and batching settings for metadata
// lookups against Hardcover.
type Lookup struct {
	RetryAttempts        int     `toml:"retry_attempts"`
	BackoffBaseSeconds   float64 `toml:"backoff_base_seconds"`
	RateLimitBaseSeconds float64 `toml:"rate_limit_base_seconds"`
	MaxConcurrent        int     `toml:"max_concurrent"`
	BatchDelayMillis     int     `toml:"batch_delay_millis"`
}

// Match contains scoring overrides for the candidate resolver. Zero values
// keep the built-in defaults.
type Match struct {
	ExactTitleScore       float64 `toml:"exact_title_score"`
	QueryInTitleScore     float64 `toml:"query_in_title_score"`
	TitleInQueryScore     float64 `toml:"title_in_query_score"`
	TokenOverlapWeight    float64 `toml:"token_overlap_weight"`
	AuthorBonus           float64 `toml:"author_bonus"`
	AuthorMismatchPenalty float64 `toml:"author_mismatch_penalty"`
	AcceptThreshold       float64 `toml:"accept_threshold"`
}

// Recommend contains recommendation generation settings.
type Recommend struct {
	Count int `toml:"count"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for CineReads.
//
// Configuration sections by subsystem:
//   - Paths: cache/log/journal locations and API bind address
//   - Hardcover: book metadata search API
//   - LLM: recommendation model connection settings
//   - Cache: per-namespace TTLs and sweeper timing
//   - Lookup: retry, rate-limit, and batch concurrency settings
//   - Match: resolver scoring overrides
//   - Recommend: recommendation generation settings
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Hardcover Hardcover `toml:"hardcover"`
	LLM       LLM       `toml:"llm"`
	Cache     Cache     `toml:"cache"`
	Lookup    Lookup    `toml:"lookup"`
	Match     Match     `toml:"match"`
	Recommend Recommend `toml:"recommend"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cinereads/config.toml")
}

// Load locates, parses, and validates a configuration file. Secrets missing
// from the file are picked up from the environment, including a best-effort
// .env file in the working directory. The returned config has all path
// fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	// Secrets usually live in the environment rather than the config file.
	_ = godotenv.Load()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cinereads.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the server needs at startup.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.CacheDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.JournalPath),
		filepath.Dir(c.Paths.LockPath),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
