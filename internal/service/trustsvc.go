package service

import (
	"context"

	"heroesfund/internal/domain"
)

type UserTrust struct {
	UserID            string           `json:"user_id"`
	ApprovedCount     int              `json:"approved_count"`
	TrustOffset       int              `json:"trust_offset"`
	Basis             int              `json:"basis"`
	Tier              domain.TrustTier `json:"tier"`
	MinSupport        int64            `json:"min_support"`
	MaxSupport        int64            `json:"max_support"`
	NextTierThreshold *int             `json:"next_tier_threshold"`
	Remaining         int              `json:"remaining"`
}

// TrustService derives a user's tier on every read; nothing here persists a
// tier.
type TrustService struct {
	Trust  TrustStore
	Engine *domain.TrustEngine
}

func (s *TrustService) engine() *domain.TrustEngine {
	if s.Engine == nil {
		return domain.DefaultTrustEngine()
	}
	return s.Engine
}

func (s *TrustService) Tiers() []domain.TrustTier {
	return s.engine().Tiers()
}

func (s *TrustService) UserTrust(ctx context.Context, userID string) (UserTrust, error) {
	b, err := s.Trust.GetTrustBasis(ctx, userID)
	if err != nil {
		return UserTrust{}, err
	}
	basis := b.Effective()
	res := s.engine().ComputeTier(basis)
	return UserTrust{
		UserID:            userID,
		ApprovedCount:     b.ApprovedCount,
		TrustOffset:       b.Offset,
		Basis:             basis,
		Tier:              res.Tier,
		MinSupport:        res.MinSupport,
		MaxSupport:        res.MaxSupport,
		NextTierThreshold: res.NextTierThreshold,
		Remaining:         res.Remaining(basis),
	}, nil
}

// ReductionDelta is the offset increase that drops b one tier.
func (s *TrustService) ReductionDelta(b domain.TrustBasis) int {
	basis := b.Effective()
	return basis - s.engine().ReducedBasis(basis)
}
