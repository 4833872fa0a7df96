package metadata

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cinereads/internal/hardcover"
	"cinereads/internal/logging"
	"cinereads/internal/match"
	"cinereads/internal/services"
)

// attemptState tracks where the retry loop is for one lookup.
type attemptState int

const (
	stateAttempting attemptState = iota
	stateBackoff
	stateAborted
	stateSucceeded
)

func (s attemptState) String() string {
	switch s {
	case stateAttempting:
		return "attempting"
	case stateBackoff:
		return "backoff"
	case stateAborted:
		return "aborted"
	case stateSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// attemptOutcome is the final verdict of the retry loop: a book, a
// definitive miss (nil book, nil error), or an error.
type attemptOutcome struct {
	book     *Book
	strategy string
	score    float64
	err      error
}

// runAttempts drives the retry state machine. Each attempt walks the full
// strategy list; an in-attempt error ends that attempt early. Timeouts and
// transient failures back off linearly with the attempt number, rate limits
// back off on a longer base (or the upstream Retry-After when larger), and
// auth failures abort the loop outright. Walking every strategy without an
// error and without a match is a definitive miss and is never retried.
func (s *Service) runAttempts(ctx context.Context, logger *slog.Logger, query match.Query) attemptOutcome {
	strategies := query.Strategies()
	state := stateAttempting
	var lastErr error

	for attempt := 1; attempt <= s.settings.RetryAttempts; attempt++ {
		logger.Debug("search attempt",
			logging.Int(logging.FieldAttempt, attempt),
			logging.String("state", state.String()))

		outcome, err := s.tryStrategies(ctx, logger, query, strategies)
		if err == nil {
			if outcome.book != nil {
				logger.Debug("search attempt finished",
					logging.Int(logging.FieldAttempt, attempt),
					logging.String("state", stateSucceeded.String()))
			}
			return outcome
		}
		lastErr = err

		if errors.Is(err, services.ErrAuth) || ctx.Err() != nil ||
			errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			state = stateAborted
			logger.Warn("lookup aborted",
				logging.Int(logging.FieldAttempt, attempt),
				logging.String("state", state.String()),
				logging.Error(err))
			return attemptOutcome{err: err}
		}

		if attempt == s.settings.RetryAttempts {
			break
		}

		delay := s.retryDelay(err, attempt)
		if delay > 0 {
			state = stateBackoff
			logger.Debug("backing off before retry",
				logging.Int(logging.FieldAttempt, attempt),
				logging.String("state", state.String()),
				logging.Duration("delay", delay))
			if sleepErr := s.sleep(ctx, delay); sleepErr != nil {
				return attemptOutcome{err: sleepErr}
			}
		}
		state = stateAttempting
	}

	return attemptOutcome{err: services.Wrap(services.ErrTransient, "metadata", "lookup",
		"exhausted retry attempts", lastErr)}
}

// tryStrategies runs the strategy list in order. The first error aborts the
// remaining strategies for this attempt; a match short-circuits; exhausting
// the list cleanly returns the best unaccepted score for diagnostics.
func (s *Service) tryStrategies(ctx context.Context, logger *slog.Logger, query match.Query, strategies []match.Strategy) (attemptOutcome, error) {
	bestScore := 0.0
	bestStrategy := ""
	for _, strat := range strategies {
		candidates, err := s.searcher.Search(ctx, strat.Term)
		if err != nil {
			logger.Debug("search strategy failed",
				logging.String(logging.FieldStrategy, strat.Name),
				logging.Error(err))
			return attemptOutcome{strategy: strat.Name}, err
		}
		result := s.resolver.Resolve(query, candidates)
		if result.Matched {
			return attemptOutcome{
				book:     s.bookFromCandidate(result.Candidate, result.Score),
				strategy: strat.Name,
				score:    result.Score,
			}, nil
		}
		if result.Score > bestScore {
			bestScore = result.Score
			bestStrategy = strat.Name
		}
		logger.Debug("search strategy found no match",
			logging.String(logging.FieldStrategy, strat.Name),
			logging.Int("candidates", len(candidates)),
			logging.Float64("best_score", result.Score))
	}
	return attemptOutcome{strategy: bestStrategy, score: bestScore}, nil
}

// retryDelay picks the backoff for a retryable failure. Rate limits use the
// longer base and honor an upstream Retry-After hint when it exceeds the
// computed delay.
func (s *Service) retryDelay(err error, attempt int) time.Duration {
	if errors.Is(err, services.ErrRateLimited) {
		delay := s.settings.RateLimitBase * time.Duration(attempt)
		var statusErr *hardcover.StatusError
		if errors.As(err, &statusErr) && statusErr.RetryAfter > delay {
			delay = statusErr.RetryAfter
		}
		return delay
	}
	if errors.Is(err, services.ErrTimeout) || errors.Is(err, services.ErrTransient) {
		return s.settings.BackoffBase * time.Duration(attempt)
	}
	return 0
}
