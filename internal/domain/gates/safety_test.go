package gates

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/domainauction/biddingengine/internal/domain/auction"
)

func baseContext() auction.Context {
	return auction.Context{
		Domain:           "example.com",
		Platform:         auction.PlatformGoDaddy,
		EstimatedValue:   1000,
		CurrentBid:       500,
		YourCurrentProxy: 0,
		BudgetAvailable:  5000,
		NumBidders:       1,
		HoursRemaining:   3,
	}
}

func TestEvaluateSafety(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(c *auction.Context)
		wantBlocked  bool
		reasonSubstr string
	}{
		{
			name:        "passes_all_checks",
			mutate:      func(c *auction.Context) {},
			wantBlocked: false,
		},
		{
			name:         "blocks_on_zero_estimated_value",
			mutate:       func(c *auction.Context) { c.EstimatedValue = 0 },
			wantBlocked:  true,
			reasonSubstr: "valuation_validity",
		},
		{
			name:         "blocks_below_minimum_budget",
			mutate:       func(c *auction.Context) { c.BudgetAvailable = 99.99 },
			wantBlocked:  true,
			reasonSubstr: "minimum_budget",
		},
		{
			name:        "minimum_budget_exactly_100_passes",
			mutate:      func(c *auction.Context) { c.BudgetAvailable = 100 },
			wantBlocked: false,
		},
		{
			name:         "blocks_overpayment",
			mutate:       func(c *auction.Context) { c.CurrentBid = 1350; c.EstimatedValue = 1000; c.BudgetAvailable = 5000 },
			wantBlocked:  true,
			reasonSubstr: "overpayment",
		},
		{
			name: "overpayment_exactly_130_percent_does_not_block",
			mutate: func(c *auction.Context) {
				c.EstimatedValue = 1000
				c.CurrentBid = 1300
				c.BudgetAvailable = 5000
			},
			wantBlocked: false,
		},
		{
			name:         "blocks_portfolio_concentration",
			mutate:       func(c *auction.Context) { c.EstimatedValue = 3000; c.BudgetAvailable = 5000 },
			wantBlocked:  true,
			reasonSubstr: "portfolio_concentration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := baseContext()
			tt.mutate(&ctx)

			result := EvaluateSafety(ctx)

			assert.Equal(t, tt.wantBlocked, result.Blocked)
			if tt.wantBlocked {
				assert.Contains(t, result.Reason, tt.reasonSubstr)
			}
			assert.Len(t, result.Reasons, len(safetyChecks))
		})
	}
}

func TestEvaluateSafety_CollectsAllReasonsEvenAfterFirstFailure(t *testing.T) {
	ctx := baseContext()
	ctx.EstimatedValue = 0
	ctx.BudgetAvailable = 50

	result := EvaluateSafety(ctx)

	assert.True(t, result.Blocked)
	assert.Len(t, result.Reasons, len(safetyChecks))
	assert.False(t, result.Reasons[0].Passed)
	assert.False(t, result.Reasons[1].Passed)
}
