// Package rules implements the deterministic tier-and-context strategy
// selector used whenever the Reasoner is unavailable or its output is
// rejected by the Validator. It always succeeds. The threshold groups below
// follow the teacher's regime-detector shape (struct-of-threshold-groups
// plus a classify function) so the cutoffs stay easy to expose as
// configuration, per the spec's Open Questions.
package rules

import (
	"math"

	"github.com/domainauction/biddingengine/internal/domain/auction"
)

// ConfidenceFloor and ConfidenceCeiling bound every Rule Selector decision's
// confidence score.
const (
	ConfidenceFloor   = 0.70
	ConfidenceCeiling = 0.90
)

// HoursRemainingCloseout is the closeout-window threshold used by the
// high-tier "no bidders yet, little time left" branch.
const HoursRemainingCloseout = 1.0

// MediumTierBidderThreshold is the bidder count at which medium-tier
// auctions switch from proxy_max to incremental_test.
const MediumTierBidderThreshold = 3

// HighTierBidderThreshold mirrors the medium-tier threshold for the high
// value tier's snipe branch.
const HighTierBidderThreshold = 3

// Selector holds the (overridable) thresholds the rule selector applies.
// Defaults match the spec; callers may construct a Selector with narrower
// or wider thresholds for experimentation without touching the selection
// logic itself.
type Selector struct {
	HoursRemainingCloseout    float64
	MediumTierBidderThreshold int
	HighTierBidderThreshold   int
}

// NewSelector returns a Selector configured with the spec's default
// thresholds.
func NewSelector() *Selector {
	return &Selector{
		HoursRemainingCloseout:    HoursRemainingCloseout,
		MediumTierBidderThreshold: MediumTierBidderThreshold,
		HighTierBidderThreshold:   HighTierBidderThreshold,
	}
}

// Select deterministically picks a strategy and bid amount for the given
// context, always producing a usable StrategyDecision with confidence in
// [0.70, 0.90].
func (s *Selector) Select(ctx auction.Context) auction.StrategyDecision {
	tier := ctx.Tier()
	cappedAmount := math.Min(ctx.SafeMax(), math.Min(ctx.BudgetAvailable, ctx.HardCeiling()))

	switch tier {
	case auction.TierHigh:
		return s.selectHigh(ctx, cappedAmount)
	case auction.TierMedium:
		return s.selectMedium(ctx, cappedAmount)
	default:
		return s.selectLow(ctx, cappedAmount)
	}
}

func (s *Selector) selectHigh(ctx auction.Context, cappedAmount float64) auction.StrategyDecision {
	if ctx.BidderAnalysis.BotDetected {
		return decision(auction.StrategyLastMinuteSnipe, cappedAmount, 0.85, auction.RiskHigh,
			"high-value auction with a detected bot bidder: sniping at the safe max avoids feeding an automated escalation competition while protecting overall profit and risk exposure")
	}
	if ctx.NumBidders >= s.HighTierBidderThreshold {
		return decision(auction.StrategyLastMinuteSnipe, cappedAmount, 0.80, auction.RiskHigh,
			"high-value auction with heavy competition: a last-minute snipe strategy limits early price discovery risk while keeping a fair shot at profit")
	}
	if ctx.NumBidders >= 1 {
		return decision(auction.StrategyProxyMax, cappedAmount, 0.80, auction.RiskMedium,
			"high-value auction with moderate competition: setting proxy_max at the safe target balances winning probability against overpayment risk")
	}
	if ctx.HoursRemaining < s.HoursRemainingCloseout {
		return decision(auction.StrategyWaitForCloseout, 0, ConfidenceCeiling, auction.RiskLow,
			"high-value auction with no competition and the closeout window already open: waiting avoids unnecessary risk since no rival strategy is forcing our hand")
	}
	return decision(auction.StrategyProxyMax, cappedAmount, 0.75, auction.RiskMedium,
		"high-value auction with no competition yet and time remaining: proxy_max keeps a standing strategy in place without premature risk")
}

func (s *Selector) selectMedium(ctx auction.Context, cappedAmount float64) auction.StrategyDecision {
	if ctx.Platform == auction.PlatformGoDaddy && ctx.HoursRemaining < s.HoursRemainingCloseout {
		return decision(auction.StrategyLastMinuteSnipe, cappedAmount, 0.80, auction.RiskMedium,
			"medium-value GoDaddy auction entering closeout: snipe strategy respects the platform's bid-extension rule while protecting against late competition")
	}
	if ctx.NumBidders >= s.MediumTierBidderThreshold {
		return decision(auction.StrategyIncrementalTest, cappedAmount, 0.75, auction.RiskMedium,
			"medium-value auction with significant competition: incremental_test probes opponent strategy and risk tolerance before committing further budget")
	}
	return decision(auction.StrategyProxyMax, cappedAmount, ConfidenceFloor, auction.RiskMedium,
		"medium-value auction with manageable competition: proxy_max is the default profit-preserving strategy for this tier")
}

func (s *Selector) selectLow(ctx auction.Context, cappedAmount float64) auction.StrategyDecision {
	if ctx.NumBidders == 0 {
		return decision(auction.StrategyWaitForCloseout, 0, ConfidenceCeiling, auction.RiskLow,
			"low-value auction with no competition: waiting for closeout avoids spending effort and risk on a domain nobody else is contesting")
	}
	return decision(auction.StrategyIncrementalTest, cappedAmount, 0.75, auction.RiskMedium,
		"low-value auction with some competition: incremental_test limits exposure while testing strategy against low-stakes risk")
}

func decision(strategy auction.Strategy, amount, confidence float64, risk auction.RiskLevel, reasoning string) auction.StrategyDecision {
	return auction.StrategyDecision{
		Strategy:             strategy,
		RecommendedBidAmount: amount,
		Confidence:           confidence,
		RiskLevel:            risk,
		Reasoning:            reasoning,
	}
}
