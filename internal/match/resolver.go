package match

import (
	"log/slog"
	"strings"

	"cinereads/internal/hardcover"
	"cinereads/internal/logging"
	"cinereads/internal/textutil"
)

// Result reports the resolver's verdict for one query: the winning
// candidate and its score, or Matched=false when nothing cleared the
// acceptance threshold.
type Result struct {
	Candidate *hardcover.Candidate
	Score     float64
	Matched   bool
}

// Resolver picks the best candidate for a query from noisy search results.
// Resolution is deterministic: equal inputs always produce equal outputs,
// and ties keep the earliest candidate in search-result order.
type Resolver struct {
	policy Policy
	logger *slog.Logger
}

// NewResolver builds a resolver with the supplied policy; zero policy
// fields fall back to the defaults.
func NewResolver(policy Policy, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		policy: policy.normalized(),
		logger: logging.NewComponentLogger(logger, "match"),
	}
}

// Policy returns the effective (default-filled) scoring policy.
func (r *Resolver) Policy() Policy {
	return r.policy
}

// Resolve scores every candidate against the query and returns the best
// one, provided its score clears the acceptance threshold. Candidates
// without a title score zero and can never win.
func (r *Resolver) Resolve(query Query, candidates []hardcover.Candidate) Result {
	if len(candidates) == 0 {
		return Result{}
	}

	queryTitle := textutil.Normalize(query.Title)
	queryAuthor := textutil.Normalize(query.Author)
	queryTokens := textutil.Tokens(query.Title)

	var best *hardcover.Candidate
	bestScore := 0.0
	for idx := range candidates {
		score := r.score(queryTitle, queryAuthor, queryTokens, candidates[idx])
		r.logger.Debug("scored candidate",
			logging.Int("result_index", idx),
			logging.Int64("book_id", candidates[idx].ID),
			logging.String("title", candidates[idx].Title),
			logging.Float64("score", score))
		// Strict greater-than keeps the earliest candidate on ties.
		if score > bestScore {
			best = &candidates[idx]
			bestScore = score
		}
	}

	if best == nil || bestScore <= r.policy.AcceptThreshold {
		r.logger.Debug("no candidate above threshold",
			logging.String(logging.FieldQuery, query.Raw),
			logging.Float64("best_score", bestScore),
			logging.Float64("threshold", r.policy.AcceptThreshold))
		return Result{Score: bestScore}
	}

	r.logger.Debug("resolved best candidate",
		logging.String(logging.FieldQuery, query.Raw),
		logging.Int64("book_id", best.ID),
		logging.String("title", best.Title),
		logging.Float64("score", bestScore))
	return Result{Candidate: best, Score: bestScore, Matched: true}
}

// score implements the tiered title comparison plus author and popularity
// adjustments. The author penalty applies before popularity bonuses, so a
// wrong-author candidate keeps its small popularity edge but loses most of
// its title score.
func (r *Resolver) score(queryTitle, queryAuthor string, queryTokens map[string]struct{}, candidate hardcover.Candidate) float64 {
	title := textutil.Normalize(candidate.Title)
	if title == "" || queryTitle == "" {
		return 0
	}

	var score float64
	switch {
	case title == queryTitle || textutil.NormalizeCompact(candidate.Title) == textutil.NormalizeCompact(queryTitle):
		score = r.policy.ExactTitleScore
	case strings.Contains(title, queryTitle):
		score = r.policy.QueryInTitleScore
	case strings.Contains(queryTitle, title):
		score = r.policy.TitleInQueryScore
	default:
		score = textutil.Jaccard(queryTokens, textutil.Tokens(candidate.Title)) * r.policy.TokenOverlapWeight
	}

	if queryAuthor != "" && score > 0 {
		if r.authorMatches(queryAuthor, candidate.Authors) {
			score += r.policy.AuthorBonus
		} else {
			score *= r.policy.AuthorMismatchPenalty
		}
	}

	if candidate.Rating > 0 {
		score += min(r.policy.RatingBonusCap, candidate.Rating)
	}
	if candidate.UsersCount > r.policy.MinUsersForBonus {
		score += min(r.policy.PopularityBonusCap, float64(candidate.UsersCount)/r.policy.PopularityDivisor)
	}
	return score
}

// authorMatches accepts containment in either direction or any shared name
// token, so "J.R.R. Tolkien" matches a "tolkien" query.
func (r *Resolver) authorMatches(queryAuthor string, authors []string) bool {
	queryTokens := textutil.Tokens(queryAuthor)
	for _, author := range authors {
		normalized := textutil.Normalize(author)
		if normalized == "" {
			continue
		}
		if strings.Contains(normalized, queryAuthor) || strings.Contains(queryAuthor, normalized) {
			return true
		}
		if textutil.Jaccard(queryTokens, textutil.Tokens(author)) > 0 {
			return true
		}
	}
	return false
}
