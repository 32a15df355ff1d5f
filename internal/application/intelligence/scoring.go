package intelligence

import (
	"math"

	"github.com/domainauction/biddingengine/internal/domain/auction"
)

// WinProbabilityBase maps a bidder count to the starting win probability
// before the bidder/budget/volatility adjustments are applied.
func winProbabilityBase(numBidders int) float64 {
	switch {
	case numBidders <= 0:
		return 0.95
	case numBidders == 1:
		return 0.70
	case numBidders == 2:
		return 0.50
	default:
		return 0.30
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// computeWinProbability implements the win_probability formula: base rate
// by bidder count, discounted by the opponent's historical win rate and
// fold probability, scaled by budget adequacy against safe_max and by
// domain-price volatility. An unknown bidder (Found false) carries no fold
// prediction and is treated as neutral (0.5).
func computeWinProbability(ctx auction.Context, bidder auction.BidderIntel, domain auction.DomainIntel) float64 {
	p := winProbabilityBase(ctx.NumBidders)
	p *= 1 - bidder.AvgWinRate*0.5
	foldProbability := bidder.FoldProbability
	if !bidder.Found {
		foldProbability = 0.5
	}
	p += (foldProbability - 0.5) * 0.2

	safeMax := ctx.SafeMax()
	budgetAdequacy := 0.5
	if safeMax > 0 {
		budgetAdequacy = 0.5 + 0.5*math.Min(1, ctx.BudgetAvailable/safeMax)
	}
	p *= budgetAdequacy
	p *= 1 - domain.Volatility*0.5

	return clamp01(p)
}

// computeExpectedValue implements the expected_value_analysis derivation.
// expected_final_price falls back to 70% of estimated_value (the same
// safe-max heuristic the proxy calculator uses as its cap) when no domain
// price history is available at all.
func computeExpectedValue(ctx auction.Context, domain auction.DomainIntel, winProbability float64) auction.ExpectedValueAnalysis {
	expectedFinalPrice := domain.PricePercentiles.P50
	if expectedFinalPrice <= 0 {
		expectedFinalPrice = ctx.SafeMax()
	}

	expectedProfit := ctx.EstimatedValue - expectedFinalPrice
	ev := winProbability * expectedProfit
	riskAdjustedEV := ev * (1 - domain.Volatility*0.5)

	roi := 0.0
	if expectedFinalPrice > 0 {
		roi = riskAdjustedEV / expectedFinalPrice
	}

	recommendation := "neutral"
	switch {
	case riskAdjustedEV > 0 && roi > 0.2:
		recommendation = "favorable"
	case riskAdjustedEV < 0:
		recommendation = "unfavorable"
	}

	return auction.ExpectedValueAnalysis{
		ExpectedFinalPrice: expectedFinalPrice,
		ExpectedProfit:     expectedProfit,
		RiskAdjustedEV:     riskAdjustedEV,
		ROI:                roi,
		Recommendation:     recommendation,
	}
}

// ResourceScoreHighThreshold and ResourceScoreMediumThreshold bucket the
// raw resource_score into a coarse priority label.
const (
	ResourceScoreHighThreshold   = 1.0
	ResourceScoreMediumThreshold = 0.5
)

// computeResourceScore implements resource_score = win_probability *
// expected_margin * (1 + roi), where expected_margin is the expected
// profit expressed as a fraction of estimated value. th's
// ResourceScoreHighThreshold/ResourceScoreMedThreshold bucket the raw score
// into a coarse priority label.
func computeResourceScore(ctx auction.Context, winProbability float64, ev auction.ExpectedValueAnalysis, th Thresholds) (float64, auction.ResourcePriority) {
	expectedMargin := 0.0
	if ctx.EstimatedValue > 0 {
		expectedMargin = ev.ExpectedProfit / ctx.EstimatedValue
	}

	score := winProbability * expectedMargin * (1 + ev.ROI)

	priority := auction.PriorityLow
	switch {
	case score > th.ResourceScoreHighThreshold:
		priority = auction.PriorityHigh
	case score >= th.ResourceScoreMedThreshold:
		priority = auction.PriorityMedium
	}

	return score, priority
}
