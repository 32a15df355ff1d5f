// Package gates implements the two hard, deterministic checkpoints of the
// decision pipeline: the pre-reasoner Safety Gate and the post-reasoner
// Validator. Both run an ordered list of named checks in which the first
// failure decides the outcome, the way the teacher's EvaluateAllGates
// short-circuits on a gate failure. The Safety Gate still evaluates and
// records every check for the audit log; the Validator stops at the first
// failure.
package gates

import (
	"fmt"

	"github.com/domainauction/biddingengine/internal/domain/auction"
)

// MinBudget is the hard floor below which no auction is worth pursuing.
const MinBudget = 100.0

// OverpaymentRatio bounds how far current_bid may exceed estimated_value.
const OverpaymentRatio = 1.30

// ConcentrationRatio bounds estimated_value as a fraction of total budget.
const ConcentrationRatio = 0.50

// SafetyReason names a single safety check and its verdict.
type SafetyReason struct {
	Name    string
	Passed  bool
	Message string
}

// SafetyResult is the outcome of running every safety check.
type SafetyResult struct {
	Blocked bool
	Reason  string
	Reasons []SafetyReason
}

// safetyCheck is one ordered, named check in the gate.
type safetyCheck struct {
	name string
	fn   func(ctx auction.Context) (bool, string)
}

var safetyChecks = []safetyCheck{
	{
		name: "valuation_validity",
		fn: func(ctx auction.Context) (bool, string) {
			if ctx.EstimatedValue > 0 {
				return true, fmt.Sprintf("estimated_value %.2f > 0", ctx.EstimatedValue)
			}
			return false, "estimated_value must be greater than zero"
		},
	},
	{
		name: "minimum_budget",
		fn: func(ctx auction.Context) (bool, string) {
			if ctx.BudgetAvailable >= MinBudget {
				return true, fmt.Sprintf("budget_available %.2f >= %.2f", ctx.BudgetAvailable, MinBudget)
			}
			return false, fmt.Sprintf("budget_available %.2f below minimum %.2f", ctx.BudgetAvailable, MinBudget)
		},
	},
	{
		name: "overpayment",
		fn: func(ctx auction.Context) (bool, string) {
			ceiling := OverpaymentRatio * ctx.EstimatedValue
			if ctx.CurrentBid <= ceiling {
				return true, fmt.Sprintf("current_bid %.2f <= %.2f (%.0f%% of estimated value)", ctx.CurrentBid, ceiling, OverpaymentRatio*100)
			}
			return false, fmt.Sprintf("current_bid %.2f exceeds overpayment ceiling %.2f (%.0f%% of estimated value)", ctx.CurrentBid, ceiling, OverpaymentRatio*100)
		},
	},
	{
		name: "portfolio_concentration",
		fn: func(ctx auction.Context) (bool, string) {
			cap := ConcentrationRatio * ctx.BudgetAvailable
			if ctx.EstimatedValue <= cap {
				return true, fmt.Sprintf("estimated_value %.2f <= %.2f (%.0f%% of budget)", ctx.EstimatedValue, cap, ConcentrationRatio*100)
			}
			return false, fmt.Sprintf("estimated_value %.2f exceeds concentration cap %.2f (%.0f%% of budget)", ctx.EstimatedValue, cap, ConcentrationRatio*100)
		},
	},
}

// EvaluateSafety runs every safety check in fixed order and short-circuits
// the decision on the first failure. All four checks are hard constants;
// no downstream stage may override them.
func EvaluateSafety(ctx auction.Context) SafetyResult {
	result := SafetyResult{Reasons: make([]SafetyReason, 0, len(safetyChecks))}

	for _, check := range safetyChecks {
		passed, msg := check.fn(ctx)
		result.Reasons = append(result.Reasons, SafetyReason{
			Name:    check.name,
			Passed:  passed,
			Message: msg,
		})
		if !passed && !result.Blocked {
			result.Blocked = true
			result.Reason = fmt.Sprintf("%s: %s", check.name, msg)
		}
	}

	return result
}
