package metadata

import (
	"context"
	"sync"

	"cinereads/internal/logging"
)

// BatchResult pairs one batch query with its outcome. Results keep the
// input order; a failed item carries its error and a nil Book.
type BatchResult struct {
	Query string
	Book  *Book
	Err   error
}

// GetMany resolves a batch of queries with bounded concurrency. Launches
// are spaced by the configured batch delay so a burst of lookups does not
// trip upstream rate limits, and one item failing never poisons the rest.
func (s *Service) GetMany(ctx context.Context, queries []string) []BatchResult {
	results := make([]BatchResult, len(queries))
	if len(queries) == 0 {
		return results
	}

	var wg sync.WaitGroup
	for i, query := range queries {
		if i > 0 && s.settings.BatchDelay > 0 {
			if err := s.sleep(ctx, s.settings.BatchDelay); err != nil {
				// Context gone: mark the rest failed instead of launching them.
				for j := i; j < len(queries); j++ {
					results[j] = BatchResult{Query: queries[j], Err: err}
				}
				break
			}
		}
		wg.Add(1)
		go func(idx int, raw string) {
			defer wg.Done()
			book, err := s.Lookup(ctx, raw)
			results[idx] = BatchResult{Query: raw, Book: book, Err: err}
		}(i, query)
	}
	wg.Wait()

	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		s.logger.Info("batch lookup finished with failures",
			logging.Int("total", len(queries)),
			logging.Int("failed", failed))
	}
	return results
}
