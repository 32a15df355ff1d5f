package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/domainauction/biddingengine/internal/domain/auction"
)

func TestSelect_AlwaysWithinConfidenceBounds(t *testing.T) {
	s := NewSelector()
	cases := []auction.Context{
		{EstimatedValue: 2000, NumBidders: 0, HoursRemaining: 5, BudgetAvailable: 5000},
		{EstimatedValue: 2000, NumBidders: 1, HoursRemaining: 5, BudgetAvailable: 5000},
		{EstimatedValue: 2000, NumBidders: 4, HoursRemaining: 5, BudgetAvailable: 5000},
		{EstimatedValue: 500, NumBidders: 1, HoursRemaining: 5, BudgetAvailable: 5000, Platform: auction.PlatformGoDaddy},
		{EstimatedValue: 500, NumBidders: 4, HoursRemaining: 5, BudgetAvailable: 5000},
		{EstimatedValue: 50, NumBidders: 0, BudgetAvailable: 5000},
		{EstimatedValue: 50, NumBidders: 1, BudgetAvailable: 5000},
	}
	for _, ctx := range cases {
		d := s.Select(ctx)
		assert.GreaterOrEqual(t, d.Confidence, ConfidenceFloor)
		assert.LessOrEqual(t, d.Confidence, ConfidenceCeiling)
		assert.True(t, d.Valid())
		assert.NotEmpty(t, d.Reasoning)
	}
}

func TestSelect_HighTierBotDetectedSnipes(t *testing.T) {
	s := NewSelector()
	ctx := auction.Context{
		EstimatedValue:  2000,
		CurrentBid:      800,
		BudgetAvailable: 5000,
		NumBidders:      1,
		HoursRemaining:  5,
		BidderAnalysis:  auction.BidderAnalysis{BotDetected: true},
	}

	d := s.Select(ctx)

	assert.Equal(t, auction.StrategyLastMinuteSnipe, d.Strategy)
	assert.Equal(t, auction.RiskHigh, d.RiskLevel)
}

func TestSelect_HighTierNoBiddersNearCloseoutWaits(t *testing.T) {
	s := NewSelector()
	ctx := auction.Context{
		EstimatedValue:  2000,
		CurrentBid:      0,
		BudgetAvailable: 5000,
		NumBidders:      0,
		HoursRemaining:  0.5,
	}

	d := s.Select(ctx)

	assert.Equal(t, auction.StrategyWaitForCloseout, d.Strategy)
	assert.Equal(t, 0.0, d.RecommendedBidAmount)
	assert.Equal(t, ConfidenceCeiling, d.Confidence)
}

func TestSelect_MediumTierGoDaddyCloseoutSnipes(t *testing.T) {
	s := NewSelector()
	ctx := auction.Context{
		EstimatedValue:  500,
		CurrentBid:      200,
		BudgetAvailable: 5000,
		NumBidders:      1,
		HoursRemaining:  0.5,
		Platform:        auction.PlatformGoDaddy,
	}

	d := s.Select(ctx)

	assert.Equal(t, auction.StrategyLastMinuteSnipe, d.Strategy)
}

func TestSelect_MediumTierHeavyCompetitionIncrementalTests(t *testing.T) {
	s := NewSelector()
	ctx := auction.Context{
		EstimatedValue:  500,
		CurrentBid:      200,
		BudgetAvailable: 5000,
		NumBidders:      3,
		HoursRemaining:  5,
		Platform:        auction.PlatformNameJet,
	}

	d := s.Select(ctx)

	assert.Equal(t, auction.StrategyIncrementalTest, d.Strategy)
}

func TestSelect_LowTierNoBiddersWaits(t *testing.T) {
	s := NewSelector()
	ctx := auction.Context{EstimatedValue: 50, NumBidders: 0, BudgetAvailable: 5000}

	d := s.Select(ctx)

	assert.Equal(t, auction.StrategyWaitForCloseout, d.Strategy)
	assert.Equal(t, 0.0, d.RecommendedBidAmount)
}

func TestSelect_LowTierWithBiddersIncrementalTests(t *testing.T) {
	s := NewSelector()
	ctx := auction.Context{EstimatedValue: 50, NumBidders: 1, CurrentBid: 10, BudgetAvailable: 5000}

	d := s.Select(ctx)

	assert.Equal(t, auction.StrategyIncrementalTest, d.Strategy)
}

func TestSelect_NeverExceedsHardCeilingOrBudget(t *testing.T) {
	s := NewSelector()
	ctx := auction.Context{
		EstimatedValue:  1000,
		CurrentBid:      100,
		BudgetAvailable: 50,
		NumBidders:      1,
		HoursRemaining:  5,
	}

	d := s.Select(ctx)

	assert.LessOrEqual(t, d.RecommendedBidAmount, ctx.BudgetAvailable)
	assert.LessOrEqual(t, d.RecommendedBidAmount, ctx.HardCeiling())
}
