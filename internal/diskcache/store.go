package diskcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cinereads/internal/cachekey"
	"cinereads/internal/logging"
)

// SchemaVersion tags the on-disk entry format so future format changes can
// coexist with old entries without crashing readers.
const SchemaVersion = "2.0"

// Entry is the on-disk envelope around a cached payload. The value is an
// opaque blob; the store never interprets it.
type Entry struct {
	Key           string          `json:"key"`
	Namespace     string          `json:"namespace"`
	Value         json.RawMessage `json:"value"`
	CreatedAt     time.Time       `json:"created_at"`
	ExpiresAt     time.Time       `json:"expires_at"`
	SchemaVersion string          `json:"schema_version"`
}

func (e Entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Store is a namespaced key/value cache persisted as one JSON file per entry.
// Per-key file operations keep unrelated keys from blocking each other; the
// only synchronization is the atomicity of a single rename.
type Store struct {
	root   string
	logger *slog.Logger
	now    func() time.Time
	statfs statfsFunc
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source (useful for expiry tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a cache store rooted at dir, creating the namespace
// subdirectories up front.
func NewStore(dir string, logger *slog.Logger, opts ...Option) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("cache directory required")
	}
	store := &Store{
		root:   dir,
		logger: logging.NewComponentLogger(logger, "diskcache"),
		now:    time.Now,
		statfs: realStatfs,
	}
	for _, opt := range opts {
		opt(store)
	}
	for _, ns := range cachekey.Namespaces() {
		if err := os.MkdirAll(store.namespaceDir(ns), 0o755); err != nil {
			return nil, fmt.Errorf("create cache namespace %s: %w", ns, err)
		}
	}
	return store, nil
}

// Get returns the cached value for key, or absent. Expired and malformed
// entries encountered on read are deleted as a side effect and reported
// absent; no read ever returns a value past its expiry.
func (s *Store) Get(key string, ns cachekey.Namespace) (json.RawMessage, bool) {
	path, err := s.entryPath(key, ns)
	if err != nil {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("cache read failed",
				logging.String(logging.FieldCacheKey, key),
				logging.Error(err))
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.heal(path, key, ns, "malformed entry", err)
		return nil, false
	}
	if entry.ExpiresAt.IsZero() {
		s.heal(path, key, ns, "missing expiry", nil)
		return nil, false
	}
	if entry.expired(s.now()) {
		s.heal(path, key, ns, "expired entry", nil)
		return nil, false
	}
	return entry.Value, true
}

// GetJSON reads a cached value and unmarshals it into target.
func (s *Store) GetJSON(key string, ns cachekey.Namespace, target any) bool {
	raw, ok := s.Get(key, ns)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, target); err != nil {
		s.logger.Debug("cached value does not fit target type",
			logging.String(logging.FieldCacheKey, key),
			logging.Error(err))
		return false
	}
	return true
}

// Set writes a new entry with the supplied TTL, replacing any existing entry
// for the key. The write is atomic: a concurrent Get sees either the old
// complete entry or the new complete entry. Storage errors are logged and
// swallowed; a cache write failure must never fail the caller's primary
// operation.
func (s *Store) Set(key string, value any, ttl time.Duration, ns cachekey.Namespace) {
	path, err := s.entryPath(key, ns)
	if err != nil {
		s.logger.Warn("cache write skipped",
			logging.String(logging.FieldCacheKey, key),
			logging.Error(err))
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache write failed: encode value",
			logging.String(logging.FieldCacheKey, key),
			logging.String(logging.FieldNamespace, string(ns)),
			logging.Error(err))
		return
	}

	now := s.now()
	entry := Entry{
		Key:           key,
		Namespace:     string(ns),
		Value:         raw,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
		SchemaVersion: SchemaVersion,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		s.logger.Warn("cache write failed: encode entry",
			logging.String(logging.FieldCacheKey, key),
			logging.Error(err))
		return
	}

	if err := s.writeAtomic(path, data); err != nil {
		s.logger.Warn("cache write failed",
			logging.String(logging.FieldCacheKey, key),
			logging.String(logging.FieldNamespace, string(ns)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "result not cached; next lookup hits upstream"))
		return
	}

	s.logger.Debug("cached entry",
		logging.String(logging.FieldCacheKey, key),
		logging.String(logging.FieldNamespace, string(ns)),
		logging.Duration("ttl", ttl))
}

// Delete removes an entry. Removing an absent key is not an error.
func (s *Store) Delete(key string, ns cachekey.Namespace) {
	path, err := s.entryPath(key, ns)
	if err != nil {
		return
	}
	s.removeFile(path)
}

// Clear removes every entry in the namespace.
func (s *Store) Clear(ns cachekey.Namespace) error {
	matches, err := filepath.Glob(filepath.Join(s.namespaceDir(ns), "*.json"))
	if err != nil {
		return fmt.Errorf("enumerate namespace %s: %w", ns, err)
	}
	for _, path := range matches {
		s.removeFile(path)
	}
	s.logger.Debug("cleared cache namespace",
		logging.String(logging.FieldNamespace, string(ns)),
		logging.Int("entry_count", len(matches)))
	return nil
}

// ClearAll removes every entry in every namespace.
func (s *Store) ClearAll() error {
	for _, ns := range cachekey.Namespaces() {
		if err := s.Clear(ns); err != nil {
			return err
		}
	}
	return nil
}

// writeAtomic writes data to a uniquely named temp file in the target
// directory and renames it into place. The unique temp name keeps racing
// writers to the same key from tearing each other's writes; last rename wins.
func (s *Store) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// heal removes an entry that failed a read-side check.
func (s *Store) heal(path, key string, ns cachekey.Namespace, reason string, cause error) {
	s.removeFile(path)
	attrs := []logging.Attr{
		logging.String(logging.FieldCacheKey, key),
		logging.String(logging.FieldNamespace, string(ns)),
		logging.String("reason", reason),
	}
	if cause != nil {
		attrs = append(attrs, logging.Error(cause))
	}
	s.logger.Debug("removed unusable cache entry", logging.Args(attrs...)...)
}

func (s *Store) removeFile(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		// Another process may have removed it already.
		s.logger.Debug("cache remove failed", logging.String("path", path), logging.Error(err))
	}
}

func (s *Store) namespaceDir(ns cachekey.Namespace) string {
	return filepath.Join(s.root, string(ns))
}

func (s *Store) entryPath(key string, ns cachekey.Namespace) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("cache key required")
	}
	if key != filepath.Base(key) {
		return "", fmt.Errorf("cache key %q contains path separators", key)
	}
	if !ns.Valid() {
		return "", fmt.Errorf("unknown cache namespace %q", ns)
	}
	return filepath.Join(s.namespaceDir(ns), key+".json"), nil
}
