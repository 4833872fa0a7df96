package match

// Policy carries the tunable scoring constants used by the resolver.
// The zero value means "use defaults"; unset fields are filled in by
// normalized, so config files may override only the knobs they care about.
type Policy struct {
	// Title match scores, best to worst.
	ExactTitleScore    float64
	QueryInTitleScore  float64
	TitleInQueryScore  float64
	TokenOverlapWeight float64

	// Author adjustment: flat bonus on a match, multiplicative penalty on a
	// mismatch when the query named an author.
	AuthorBonus           float64
	AuthorMismatchPenalty float64

	// Popularity bonuses, each capped.
	RatingBonusCap     float64
	PopularityBonusCap float64
	PopularityDivisor  float64
	// MinUsersForBonus gates the popularity bonus to books with real usage.
	MinUsersForBonus int64

	// AcceptThreshold is the minimum score (exclusive) for a winner.
	AcceptThreshold float64
}

// DefaultPolicy returns the production scoring constants.
func DefaultPolicy() Policy {
	return Policy{
		ExactTitleScore:       100,
		QueryInTitleScore:     90,
		TitleInQueryScore:     85,
		TokenOverlapWeight:    80,
		AuthorBonus:           20,
		AuthorMismatchPenalty: 0.7,
		RatingBonusCap:        5,
		PopularityBonusCap:    3,
		PopularityDivisor:     1000,
		MinUsersForBonus:      100,
		AcceptThreshold:       10,
	}
}

func (p Policy) normalized() Policy {
	defaults := DefaultPolicy()
	if p.ExactTitleScore <= 0 {
		p.ExactTitleScore = defaults.ExactTitleScore
	}
	if p.QueryInTitleScore <= 0 {
		p.QueryInTitleScore = defaults.QueryInTitleScore
	}
	if p.TitleInQueryScore <= 0 {
		p.TitleInQueryScore = defaults.TitleInQueryScore
	}
	if p.TokenOverlapWeight <= 0 {
		p.TokenOverlapWeight = defaults.TokenOverlapWeight
	}
	if p.AuthorBonus <= 0 {
		p.AuthorBonus = defaults.AuthorBonus
	}
	if p.AuthorMismatchPenalty <= 0 || p.AuthorMismatchPenalty > 1 {
		p.AuthorMismatchPenalty = defaults.AuthorMismatchPenalty
	}
	if p.RatingBonusCap <= 0 {
		p.RatingBonusCap = defaults.RatingBonusCap
	}
	if p.PopularityBonusCap <= 0 {
		p.PopularityBonusCap = defaults.PopularityBonusCap
	}
	if p.PopularityDivisor <= 0 {
		p.PopularityDivisor = defaults.PopularityDivisor
	}
	if p.MinUsersForBonus <= 0 {
		p.MinUsersForBonus = defaults.MinUsersForBonus
	}
	if p.AcceptThreshold <= 0 {
		p.AcceptThreshold = defaults.AcceptThreshold
	}
	return p
}
