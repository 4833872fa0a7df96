package config

const (
	defaultCacheDir             = "~/.local/share/cinereads/cache"
	defaultLogDir               = "~/.local/share/cinereads/logs"
	defaultJournalPath          = "~/.local/share/cinereads/journal.db"
	defaultLockPath             = "~/.local/share/cinereads/cinereads.lock"
	defaultAPIBind              = "127.0.0.1:8330"
	defaultHardcoverBaseURL     = "https://api.hardcover.app/v1/graphql"
	defaultHardcoverTimeout     = 15
	defaultHardcoverPerPage     = 10
	defaultLLMBaseURL           = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel             = "openai/gpt-4o-mini"
	defaultLLMReferer           = "https://github.com/cinereads/cinereads"
	defaultLLMTitle             = "CineReads Recommender"
	defaultLLMTimeoutSeconds    = 60
	defaultRecommendationsTTL   = 3600
	defaultBooksTTL             = 86400
	defaultTasteProfilesTTL     = 7200
	defaultNegativeTTL          = 900
	defaultSweepInterval        = 3600
	defaultJournalRetentionDays = 30
	defaultRetryAttempts        = 3
	defaultBackoffBaseSeconds   = 1.0
	defaultRateLimitBaseSecs    = 5.0
	defaultMaxConcurrent        = 5
	defaultBatchDelayMillis     = 1100
	defaultRecommendCount       = 5
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir:    defaultCacheDir,
			LogDir:      defaultLogDir,
			JournalPath: defaultJournalPath,
			LockPath:    defaultLockPath,
			APIBind:     defaultAPIBind,
		},
		Hardcover: Hardcover{
			BaseURL:        defaultHardcoverBaseURL,
			TimeoutSeconds: defaultHardcoverTimeout,
			PerPage:        defaultHardcoverPerPage,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Cache: Cache{
			RecommendationsTTL:   defaultRecommendationsTTL,
			BooksTTL:             defaultBooksTTL,
			TasteProfilesTTL:     defaultTasteProfilesTTL,
			NegativeTTL:          defaultNegativeTTL,
			SweepInterval:        defaultSweepInterval,
			JournalRetentionDays: defaultJournalRetentionDays,
		},
		Lookup: Lookup{
			RetryAttempts:        defaultRetryAttempts,
			BackoffBaseSeconds:   defaultBackoffBaseSeconds,
			RateLimitBaseSeconds: defaultRateLimitBaseSecs,
			MaxConcurrent:        defaultMaxConcurrent,
			BatchDelayMillis:     defaultBatchDelayMillis,
		},
		Recommend: Recommend{
			Count: defaultRecommendCount,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
