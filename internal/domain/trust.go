package domain

import (
	"errors"
	"fmt"
)

// TrustTier is one bracket of the support-amount ladder. MinApproved is the
// inclusive lower bound on the approved-request count.
type TrustTier struct {
	Level       int    `json:"level"`
	Name        string `json:"name"`
	MinApproved int    `json:"min_approved"`
	MinSupport  int64  `json:"min_support"`
	MaxSupport  int64  `json:"max_support"`
}

type TierResult struct {
	Tier              TrustTier `json:"tier"`
	MinSupport        int64     `json:"min_support"`
	MaxSupport        int64     `json:"max_support"`
	NextTierThreshold *int      `json:"next_tier_threshold"`
}

// Remaining is the number of further approvals needed to reach the next tier,
// or 0 at the top tier.
func (r TierResult) Remaining(approvedCount int) int {
	if r.NextTierThreshold == nil {
		return 0
	}
	if approvedCount < 0 {
		approvedCount = 0
	}
	return *r.NextTierThreshold - approvedCount
}

var DefaultTrustTiers = []TrustTier{
	{Level: 1, Name: "newcomer", MinApproved: 0, MinSupport: 500, MaxSupport: 3000},
	{Level: 2, Name: "trusted", MinApproved: 1, MinSupport: 1000, MaxSupport: 7000},
	{Level: 3, Name: "reliable", MinApproved: 3, MinSupport: 3000, MaxSupport: 15000},
	{Level: 4, Name: "honored", MinApproved: 6, MinSupport: 5000, MaxSupport: 30000},
	{Level: 5, Name: "hero", MinApproved: 10, MinSupport: 10000, MaxSupport: 50000},
}

type TrustEngine struct {
	tiers []TrustTier
}

func NewTrustEngine(tiers []TrustTier) (*TrustEngine, error) {
	if len(tiers) == 0 {
		return nil, errors.New("trust tiers: at least one tier required")
	}
	if tiers[0].MinApproved != 0 {
		return nil, errors.New("trust tiers: first tier must start at 0")
	}
	for i, t := range tiers {
		if t.MinSupport > t.MaxSupport {
			return nil, fmt.Errorf("trust tiers: tier %d: min support exceeds max support", t.Level)
		}
		if i > 0 && t.MinApproved <= tiers[i-1].MinApproved {
			return nil, fmt.Errorf("trust tiers: tier %d: lower bounds must be strictly ascending", t.Level)
		}
	}
	cp := make([]TrustTier, len(tiers))
	copy(cp, tiers)
	return &TrustEngine{tiers: cp}, nil
}

var defaultTrustEngine = mustTrustEngine(DefaultTrustTiers)

func DefaultTrustEngine() *TrustEngine { return defaultTrustEngine }

func mustTrustEngine(tiers []TrustTier) *TrustEngine {
	e, err := NewTrustEngine(tiers)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *TrustEngine) Tiers() []TrustTier {
	out := make([]TrustTier, len(e.tiers))
	copy(out, e.tiers)
	return out
}

func (e *TrustEngine) ComputeTier(approvedCount int) TierResult {
	i := e.indexFor(approvedCount)
	t := e.tiers[i]
	res := TierResult{Tier: t, MinSupport: t.MinSupport, MaxSupport: t.MaxSupport}
	if i+1 < len(e.tiers) {
		next := e.tiers[i+1].MinApproved
		res.NextTierThreshold = &next
	}
	return res
}

// ReducedBasis returns the basis one tier below the tier reached by basis:
// the lower bound of the previous tier. At the lowest tier the basis is
// returned unchanged.
func (e *TrustEngine) ReducedBasis(basis int) int {
	if basis < 0 {
		basis = 0
	}
	i := e.indexFor(basis)
	if i == 0 {
		return basis
	}
	return e.tiers[i-1].MinApproved
}

func (e *TrustEngine) indexFor(approvedCount int) int {
	if approvedCount < 0 {
		approvedCount = 0
	}
	idx := 0
	for i, t := range e.tiers {
		if t.MinApproved <= approvedCount {
			idx = i
		}
	}
	return idx
}
