package diskcache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"cinereads/internal/cachekey"
	"cinereads/internal/logging"
)

// Sweep scans every namespace and deletes expired or malformed entries,
// returning the number removed. It is safe to run concurrently with reads
// and writes: a racing Get applies the same expiry rules, and per-key file
// operations cannot corrupt unrelated keys.
func (s *Store) Sweep() int {
	removed := 0
	now := s.now()
	for _, ns := range cachekey.Namespaces() {
		matches, err := filepath.Glob(filepath.Join(s.namespaceDir(ns), "*.json"))
		if err != nil {
			s.logger.Warn("sweep enumerate failed",
				logging.String(logging.FieldNamespace, string(ns)),
				logging.Error(err))
			continue
		}
		for _, path := range matches {
			if s.sweepEntry(path, now) {
				removed++
			}
		}
	}
	if removed > 0 {
		s.logger.Debug("swept cache", logging.Int("removed", removed))
	}
	return removed
}

func (s *Store) sweepEntry(path string, now time.Time) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		// Entry vanished between enumeration and read; nothing to do.
		return false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.removeFile(path)
		return true
	}
	if entry.ExpiresAt.IsZero() || entry.expired(now) {
		s.removeFile(path)
		return true
	}
	return false
}

// RunSweeper periodically sweeps the store until ctx is cancelled. It is
// owned by the store's lifecycle: started once at process init and stopped
// at shutdown, independent of any request path.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Debug("cache sweeper started", logging.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("cache sweeper stopped")
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				s.logger.Info("cache sweep removed expired entries", logging.Int("removed", removed))
			}
		}
	}
}
