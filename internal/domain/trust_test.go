package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTierMonotonic(t *testing.T) {
	e := DefaultTrustEngine()

	prev := 0
	for n := 0; n <= 50; n++ {
		res := e.ComputeTier(n)
		require.GreaterOrEqual(t, res.Tier.Level, prev, "approved=%d", n)
		prev = res.Tier.Level

		if res.NextTierThreshold != nil {
			assert.Greater(t, *res.NextTierThreshold, n, "approved=%d", n)
			assert.GreaterOrEqual(t, res.Remaining(n), 1, "approved=%d", n)
		} else {
			assert.Equal(t, 0, res.Remaining(n))
		}
	}
}

func TestComputeTierBoundaries(t *testing.T) {
	e := DefaultTrustEngine()

	tests := []struct {
		approved int
		level    int
		next     *int
	}{
		{approved: -3, level: 1, next: intPtr(1)},
		{approved: 0, level: 1, next: intPtr(1)},
		{approved: 1, level: 2, next: intPtr(3)},
		{approved: 2, level: 2, next: intPtr(3)},
		{approved: 3, level: 3, next: intPtr(6)},
		{approved: 9, level: 4, next: intPtr(10)},
		{approved: 10, level: 5, next: nil},
		{approved: 1000, level: 5, next: nil},
	}
	for _, tt := range tests {
		res := e.ComputeTier(tt.approved)
		assert.Equal(t, tt.level, res.Tier.Level, "approved=%d", tt.approved)
		assert.Equal(t, tt.next, res.NextTierThreshold, "approved=%d", tt.approved)
		assert.Equal(t, res.Tier.MinSupport, res.MinSupport)
		assert.Equal(t, res.Tier.MaxSupport, res.MaxSupport)
	}
}

func TestReducedBasis(t *testing.T) {
	e := DefaultTrustEngine()

	assert.Equal(t, 0, e.ReducedBasis(0))
	assert.Equal(t, 0, e.ReducedBasis(1))
	assert.Equal(t, 0, e.ReducedBasis(2))
	assert.Equal(t, 1, e.ReducedBasis(4))
	assert.Equal(t, 6, e.ReducedBasis(12))

	for n := 1; n <= 30; n++ {
		before := e.ComputeTier(n).Tier.Level
		after := e.ComputeTier(e.ReducedBasis(n)).Tier.Level
		if before > 1 {
			assert.Equal(t, before-1, after, "basis=%d", n)
		}
	}
}

func TestNewTrustEngineRejectsBadTables(t *testing.T) {
	_, err := NewTrustEngine(nil)
	require.Error(t, err)

	_, err = NewTrustEngine([]TrustTier{{Level: 1, MinApproved: 1}})
	require.Error(t, err)

	_, err = NewTrustEngine([]TrustTier{
		{Level: 1, MinApproved: 0},
		{Level: 2, MinApproved: 0},
	})
	require.Error(t, err)

	_, err = NewTrustEngine([]TrustTier{{Level: 1, MinApproved: 0, MinSupport: 10, MaxSupport: 5}})
	require.Error(t, err)
}

func TestTrustBasisEffective(t *testing.T) {
	assert.Equal(t, 3, TrustBasis{ApprovedCount: 5, Offset: 2}.Effective())
	assert.Equal(t, 0, TrustBasis{ApprovedCount: 1, Offset: 4}.Effective())
}

func intPtr(v int) *int { return &v }
