package diskcache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"cinereads/internal/cachekey"
	"cinereads/internal/logging"
)

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

// NamespaceStats describes one cache partition.
type NamespaceStats struct {
	Entries    int   `json:"entries"`
	TotalBytes int64 `json:"total_bytes"`
}

// Stats aggregates store contents for observability.
type Stats struct {
	Entries        int                       `json:"entries"`
	TotalBytes     int64                     `json:"total_bytes"`
	ByNamespace    map[string]NamespaceStats `json:"by_namespace"`
	SchemaVersions map[string]int            `json:"schema_versions"`
	FreeBytes      uint64                    `json:"free_bytes"`
	TotalFSBytes   uint64                    `json:"total_fs_bytes"`
}

// Stats scans the store and returns aggregate counts, sizes, a schema-version
// histogram, and filesystem free space. It is read-only and never mutates
// entries, expired ones included.
func (s *Store) Stats() Stats {
	stats := Stats{
		ByNamespace:    make(map[string]NamespaceStats, 3),
		SchemaVersions: make(map[string]int),
	}

	for _, ns := range cachekey.Namespaces() {
		matches, err := filepath.Glob(filepath.Join(s.namespaceDir(ns), "*.json"))
		if err != nil {
			s.logger.Warn("stats enumerate failed",
				logging.String(logging.FieldNamespace, string(ns)),
				logging.Error(err))
			continue
		}
		nsStats := NamespaceStats{}
		for _, path := range matches {
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			nsStats.Entries++
			nsStats.TotalBytes += info.Size()
			stats.SchemaVersions[s.entrySchemaVersion(path)]++
		}
		stats.ByNamespace[string(ns)] = nsStats
		stats.Entries += nsStats.Entries
		stats.TotalBytes += nsStats.TotalBytes
	}

	if total, free, err := s.statfs(s.root); err == nil {
		stats.TotalFSBytes = total
		stats.FreeBytes = free
	}
	return stats
}

func (s *Store) entrySchemaVersion(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	var entry struct {
		SchemaVersion string `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &entry); err != nil || entry.SchemaVersion == "" {
		return "unknown"
	}
	return entry.SchemaVersion
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}
