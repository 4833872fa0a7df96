package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateHardcover(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLookup(); err != nil {
		return err
	}
	if err := c.validateMatch(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateHardcover() error {
	if c.Hardcover.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/cinereads/config.toml"
		}
		return fmt.Errorf("hardcover.api_key is required. Set HARDCOVER_API_KEY env var or edit %s (create with 'cinereads config init')", defaultPath)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return errors.New("paths.cache_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind %q is not host:port: %w", c.Paths.APIBind, err)
	}
	return nil
}

func (c *Config) validateLookup() error {
	return ensurePositiveMap(map[string]int{
		"lookup.retry_attempts": c.Lookup.RetryAttempts,
		"lookup.max_concurrent": c.Lookup.MaxConcurrent,
	})
}

func (c *Config) validateMatch() error {
	if c.Match.AuthorMismatchPenalty < 0 || c.Match.AuthorMismatchPenalty > 1 {
		return errors.New("match.author_mismatch_penalty must be between 0 and 1")
	}
	if c.Match.AcceptThreshold < 0 {
		return errors.New("match.accept_threshold must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
