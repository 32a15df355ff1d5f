package gates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/domainauction/biddingengine/internal/domain/auction"
)

func validReasoning() string {
	return strings.Repeat("a", 30) + " this covers profit and risk considerations at length to satisfy the minimum."
}

func TestValidate(t *testing.T) {
	ctx := baseContext()

	tests := []struct {
		name           string
		estimatedValue float64 // overrides ctx.EstimatedValue when non-zero
		decision       auction.StrategyDecision
		wantValid      bool
		reasonKind     string
	}{
		{
			name: "valid_decision",
			decision: auction.StrategyDecision{
				Strategy:             auction.StrategyProxyMax,
				RecommendedBidAmount: 700,
				Confidence:           0.8,
				RiskLevel:            auction.RiskMedium,
				Reasoning:            validReasoning(),
			},
			wantValid: true,
		},
		{
			name: "exceeds_hard_ceiling",
			decision: auction.StrategyDecision{
				Strategy:             auction.StrategyProxyMax,
				RecommendedBidAmount: 900, // > 0.80 * 1000
				Confidence:           0.8,
				RiskLevel:            auction.RiskMedium,
				Reasoning:            validReasoning(),
			},
			wantValid:  false,
			reasonKind: "BID_CEILING",
		},
		{
			name: "within_budget_passes",
			decision: auction.StrategyDecision{
				Strategy:             auction.StrategyProxyMax,
				RecommendedBidAmount: 600,
				Confidence:           0.8,
				RiskLevel:            auction.RiskMedium,
				Reasoning:            validReasoning(),
			},
			wantValid: true, // budget is 5000 in baseContext, passes
		},
		{
			name: "do_not_bid_with_nonzero_amount",
			decision: auction.StrategyDecision{
				Strategy:             auction.StrategyDoNotBid,
				RecommendedBidAmount: 50,
				Confidence:           0.9,
				RiskLevel:            auction.RiskLow,
				Reasoning:            validReasoning(),
			},
			wantValid:  false,
			reasonKind: "LOGICAL_CONSISTENCY",
		},
		{
			name: "low_risk_with_low_confidence",
			decision: auction.StrategyDecision{
				Strategy:             auction.StrategyProxyMax,
				RecommendedBidAmount: 600,
				Confidence:           0.3,
				RiskLevel:            auction.RiskLow,
				Reasoning:            validReasoning(),
			},
			wantValid:  false,
			reasonKind: "LOGICAL_CONSISTENCY",
		},
		{
			name: "reasoning_too_short",
			decision: auction.StrategyDecision{
				Strategy:             auction.StrategyProxyMax,
				RecommendedBidAmount: 600,
				Confidence:           0.8,
				RiskLevel:            auction.RiskMedium,
				Reasoning:            "too short",
			},
			wantValid:  false,
			reasonKind: "REASONING_QUALITY",
		},
		{
			name: "reasoning_missing_keywords",
			decision: auction.StrategyDecision{
				Strategy:             auction.StrategyProxyMax,
				RecommendedBidAmount: 600,
				Confidence:           0.8,
				RiskLevel:            auction.RiskMedium,
				Reasoning:            strings.Repeat("lorem ipsum filler text with no substance markers at all ", 3),
			},
			wantValid:  false,
			reasonKind: "REASONING_QUALITY",
		},
		{
			name:           "aggressive_early_below_min_value",
			estimatedValue: 400, // below AggressiveEarlyMinValue
			decision: auction.StrategyDecision{
				Strategy:             auction.StrategyAggressiveEarly,
				RecommendedBidAmount: 60,
				Confidence:           0.8,
				RiskLevel:            auction.RiskMedium,
				Reasoning:            validReasoning(),
			},
			wantValid:  false,
			reasonKind: "CONTEXT_FIT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ctx
			if tt.estimatedValue != 0 {
				c.EstimatedValue = tt.estimatedValue
			}
			result := Validate(c, tt.decision)
			assert.Equal(t, tt.wantValid, result.Valid)
			if !tt.wantValid {
				assert.Contains(t, result.Reason, tt.reasonKind)
			}
		})
	}
}

func TestValidate_WaitForCloseoutRequiresFewBidders(t *testing.T) {
	ctx := baseContext()
	ctx.NumBidders = 3

	result := Validate(ctx, auction.StrategyDecision{
		Strategy:             auction.StrategyWaitForCloseout,
		RecommendedBidAmount: 0,
		Confidence:           0.8,
		RiskLevel:            auction.RiskMedium,
		Reasoning:            validReasoning(),
	})

	assert.False(t, result.Valid)
	assert.Contains(t, result.Reason, "LOGICAL_CONSISTENCY")
}
