package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeHardcover()
	c.normalizeLLM()
	c.normalizeCache()
	c.normalizeLookup()
	c.normalizeRecommend()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.JournalPath) == "" {
		c.Paths.JournalPath = defaultJournalPath
	}
	if c.Paths.JournalPath, err = expandPath(c.Paths.JournalPath); err != nil {
		return fmt.Errorf("paths.journal_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockPath) == "" {
		c.Paths.LockPath = defaultLockPath
	}
	if c.Paths.LockPath, err = expandPath(c.Paths.LockPath); err != nil {
		return fmt.Errorf("paths.lock_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.GenreAliasPath) != "" {
		if c.Paths.GenreAliasPath, err = expandPath(c.Paths.GenreAliasPath); err != nil {
			return fmt.Errorf("paths.genre_alias_path: %w", err)
		}
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeHardcover() {
	c.Hardcover.APIKey = strings.TrimSpace(c.Hardcover.APIKey)
	if c.Hardcover.APIKey == "" {
		if value, ok := os.LookupEnv("HARDCOVER_API_KEY"); ok {
			c.Hardcover.APIKey = strings.TrimSpace(value)
		}
	}
	c.Hardcover.BaseURL = strings.TrimSpace(c.Hardcover.BaseURL)
	if c.Hardcover.BaseURL == "" {
		c.Hardcover.BaseURL = defaultHardcoverBaseURL
	}
	if c.Hardcover.TimeoutSeconds <= 0 {
		c.Hardcover.TimeoutSeconds = defaultHardcoverTimeout
	}
	if c.Hardcover.PerPage <= 0 {
		c.Hardcover.PerPage = defaultHardcoverPerPage
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeCache() {
	if c.Cache.RecommendationsTTL <= 0 {
		c.Cache.RecommendationsTTL = defaultRecommendationsTTL
	}
	if c.Cache.BooksTTL <= 0 {
		c.Cache.BooksTTL = defaultBooksTTL
	}
	if c.Cache.TasteProfilesTTL <= 0 {
		c.Cache.TasteProfilesTTL = defaultTasteProfilesTTL
	}
	if c.Cache.NegativeTTL <= 0 {
		c.Cache.NegativeTTL = defaultNegativeTTL
	}
	if c.Cache.SweepInterval <= 0 {
		c.Cache.SweepInterval = defaultSweepInterval
	}
	if c.Cache.JournalRetentionDays <= 0 {
		c.Cache.JournalRetentionDays = defaultJournalRetentionDays
	}
}

func (c *Config) normalizeLookup() {
	if c.Lookup.RetryAttempts <= 0 {
		c.Lookup.RetryAttempts = defaultRetryAttempts
	}
	if c.Lookup.BackoffBaseSeconds <= 0 {
		c.Lookup.BackoffBaseSeconds = defaultBackoffBaseSeconds
	}
	if c.Lookup.RateLimitBaseSeconds <= 0 {
		c.Lookup.RateLimitBaseSeconds = defaultRateLimitBaseSecs
	}
	if c.Lookup.MaxConcurrent <= 0 {
		c.Lookup.MaxConcurrent = defaultMaxConcurrent
	}
	if c.Lookup.BatchDelayMillis < 0 {
		c.Lookup.BatchDelayMillis = defaultBatchDelayMillis
	}
}

func (c *Config) normalizeRecommend() {
	if c.Recommend.Count <= 0 {
		c.Recommend.Count = defaultRecommendCount
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
