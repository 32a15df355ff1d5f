package gates

import (
	"fmt"
	"strings"

	"github.com/domainauction/biddingengine/internal/domain/auction"
)

// HardCeilingRatio bounds the recommended bid as a fraction of estimated
// value. This is deliberately distinct from the rule selector's 0.70 safe
// max: 0.70 is a target, 0.80 is the absolute cap the validator enforces.
const HardCeilingRatio = 0.80

// ReasoningMinLength is the minimum length a StrategyDecision's reasoning
// text must meet to be considered substantive.
const ReasoningMinLength = 100

// ReasoningKeywords are the substance markers the reasoning-quality check
// looks for; at least two must be present, case-insensitively. Tunable
// parameter, not contract (see spec Open Questions).
var ReasoningKeywords = []string{"profit", "risk", "competition", "strategy"}

// AggressiveEarlyMinValue bounds when aggressive_early is a valid strategy.
const AggressiveEarlyMinValue = 500.0

// WaitForCloseoutMaxBidders bounds when wait_for_closeout is logically
// consistent.
const WaitForCloseoutMaxBidders = 2

// ValidationResult is the outcome of running the validator against a
// reasoner-produced StrategyDecision.
type ValidationResult struct {
	Valid  bool
	Reason string // "KIND: details" on failure, empty on success
}

// validatorCheck is one ordered, named check in the validator.
type validatorCheck struct {
	kind string
	fn   func(ctx auction.Context, d auction.StrategyDecision) (bool, string)
}

var validatorChecks = []validatorCheck{
	{
		kind: "BID_CEILING",
		fn: func(ctx auction.Context, d auction.StrategyDecision) (bool, string) {
			ceiling := HardCeilingRatio * ctx.EstimatedValue
			if d.RecommendedBidAmount <= ceiling {
				return true, ""
			}
			return false, fmt.Sprintf("amount %.2f exceeds hard ceiling %.2f (%.0f%% of estimated value)", d.RecommendedBidAmount, ceiling, HardCeilingRatio*100)
		},
	},
	{
		kind: "BUDGET_FEASIBILITY",
		fn: func(ctx auction.Context, d auction.StrategyDecision) (bool, string) {
			if d.RecommendedBidAmount <= ctx.BudgetAvailable {
				return true, ""
			}
			return false, fmt.Sprintf("amount %.2f exceeds budget_available %.2f", d.RecommendedBidAmount, ctx.BudgetAvailable)
		},
	},
	{
		kind: "LOGICAL_CONSISTENCY",
		fn: func(ctx auction.Context, d auction.StrategyDecision) (bool, string) {
			if d.Strategy == auction.StrategyDoNotBid && d.RecommendedBidAmount != 0 {
				return false, fmt.Sprintf("do_not_bid requires amount 0, got %.2f", d.RecommendedBidAmount)
			}
			if d.Strategy == auction.StrategyWaitForCloseout && ctx.NumBidders > WaitForCloseoutMaxBidders {
				return false, fmt.Sprintf("wait_for_closeout requires num_bidders <= %d, got %d", WaitForCloseoutMaxBidders, ctx.NumBidders)
			}
			if d.RiskLevel == auction.RiskLow && d.Confidence < 0.5 {
				return false, fmt.Sprintf("low risk requires confidence >= 0.5, got %.2f", d.Confidence)
			}
			return true, ""
		},
	},
	{
		kind: "REASONING_QUALITY",
		fn: func(ctx auction.Context, d auction.StrategyDecision) (bool, string) {
			if len(d.Reasoning) < ReasoningMinLength {
				return false, fmt.Sprintf("reasoning length %d below minimum %d", len(d.Reasoning), ReasoningMinLength)
			}
			lower := strings.ToLower(d.Reasoning)
			hits := 0
			for _, kw := range ReasoningKeywords {
				if strings.Contains(lower, kw) {
					hits++
				}
			}
			if hits < 2 {
				return false, fmt.Sprintf("reasoning mentions only %d of the required substance keywords", hits)
			}
			return true, ""
		},
	},
	{
		kind: "CONTEXT_FIT",
		fn: func(ctx auction.Context, d auction.StrategyDecision) (bool, string) {
			if d.Strategy == auction.StrategyAggressiveEarly && ctx.EstimatedValue < AggressiveEarlyMinValue {
				return false, fmt.Sprintf("aggressive_early requires estimated_value >= %.2f, got %.2f", AggressiveEarlyMinValue, ctx.EstimatedValue)
			}
			return true, ""
		},
	},
}

// Validate applies the hard post-checks to a reasoner-produced decision, in
// the given order, stopping at the first failure. This is not a retry loop:
// the caller never re-invokes the reasoner on rejection, it falls through to
// the Rule Selector.
func Validate(ctx auction.Context, d auction.StrategyDecision) ValidationResult {
	for _, check := range validatorChecks {
		ok, detail := check.fn(ctx, d)
		if !ok {
			return ValidationResult{Valid: false, Reason: fmt.Sprintf("%s: %s", check.kind, detail)}
		}
	}
	return ValidationResult{Valid: true}
}
