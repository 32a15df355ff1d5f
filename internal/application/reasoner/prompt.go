// Package reasoner wraps an external LLM client behind the Reasoner
// Adapter contract: propose(ctx, intel, history) -> optional<StrategyDecision>,
// never erroring to the caller. Grounded on the teacher pack's AI Brain
// (irfndi-NeuraTrade's ai-brain.go): a system+user prompt pair built from
// the current state, a demanded JSON response shape, and tolerant parsing
// that degrades to "no decision" rather than a panic or error on malformed
// output.
package reasoner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/domainauction/biddingengine/internal/domain/auction"
)

// AllowedStrategies lists the six strategy labels the prompt demands the
// model choose from.
var AllowedStrategies = []auction.Strategy{
	auction.StrategyProxyMax,
	auction.StrategyLastMinuteSnipe,
	auction.StrategyIncrementalTest,
	auction.StrategyWaitForCloseout,
	auction.StrategyAggressiveEarly,
	auction.StrategyDoNotBid,
}

// platformNotes are short platform-specific reminders folded into the
// prompt so the model respects per-marketplace bidding mechanics.
var platformNotes = map[auction.Platform]string{
	auction.PlatformGoDaddy: "GoDaddy extends the auction close time when a bid lands in the final minutes; late sniping does not guarantee the last word.",
	auction.PlatformNameJet: "NameJet auctions close at a fixed time with no extension; a well-timed snipe in the last seconds is final.",
	auction.PlatformDynadot: "Dynadot's minimum increment scales with the current bid (5% of current bid, floor $5); proxy adjustments should account for that.",
}

const systemPrompt = `You are a domain-name auction bidding strategist. Given the live state of a single auction and its market intelligence enrichment, choose exactly one strategy and a recommended bid amount.

Respond with a single JSON object and nothing else, matching this shape:
{
  "strategy": "proxy_max|last_minute_snipe|incremental_test|wait_for_closeout|aggressive_early|do_not_bid",
  "recommended_bid_amount": 0.0,
  "confidence": 0.0,
  "risk_level": "low|medium|high",
  "reasoning": "at least 100 characters, naming at least two of: profit, risk, competition, strategy"
}

Rules:
- do_not_bid must carry recommended_bid_amount == 0.
- recommended_bid_amount must never exceed 80% of estimated_value, and never exceed budget_available.
- aggressive_early is only appropriate when estimated_value is at least $500.
- wait_for_closeout is only appropriate when at most 2 other bidders are active.
- Be decisive. Do not hedge with a strategy you are not confident in.`

// BuildPrompt constructs the system and user prompt pair for a single
// decide() call.
func BuildPrompt(ctx auction.Context, intel auction.Intelligence, previousAttempts []string) (system, user string) {
	tier := ctx.Tier()

	var b strings.Builder
	fmt.Fprintf(&b, "AUCTION CONTEXT:\n")
	fmt.Fprintf(&b, "  domain: %s\n", ctx.Domain)
	fmt.Fprintf(&b, "  platform: %s\n", ctx.Platform)
	fmt.Fprintf(&b, "  estimated_value: %.2f (tier: %s)\n", ctx.EstimatedValue, tier)
	fmt.Fprintf(&b, "  current_bid: %.2f\n", ctx.CurrentBid)
	fmt.Fprintf(&b, "  your_current_proxy: %.2f\n", ctx.YourCurrentProxy)
	fmt.Fprintf(&b, "  budget_available: %.2f\n", ctx.BudgetAvailable)
	fmt.Fprintf(&b, "  num_bidders: %d\n", ctx.NumBidders)
	fmt.Fprintf(&b, "  hours_remaining: %.2f\n", ctx.HoursRemaining)
	fmt.Fprintf(&b, "  safe_max (70%%): %.2f\n", ctx.SafeMax())
	fmt.Fprintf(&b, "  hard_ceiling (80%%): %.2f\n", ctx.HardCeiling())
	if note, ok := platformNotes[ctx.Platform]; ok {
		fmt.Fprintf(&b, "  platform_note: %s\n", note)
	}

	fmt.Fprintf(&b, "\nMARKET INTELLIGENCE:\n")
	intelJSON, _ := json.MarshalIndent(intel, "  ", "  ")
	b.Write(intelJSON)
	b.WriteString("\n")

	if len(previousAttempts) > 0 {
		fmt.Fprintf(&b, "\nPREVIOUS ATTEMPTS IN THIS THREAD:\n")
		for _, a := range previousAttempts {
			fmt.Fprintf(&b, "  - %s\n", a)
		}
	}

	fmt.Fprintf(&b, "\nAllowed strategies: ")
	labels := make([]string, len(AllowedStrategies))
	for i, s := range AllowedStrategies {
		labels[i] = string(s)
	}
	b.WriteString(strings.Join(labels, ", "))
	b.WriteString("\n\nRespond with the JSON object only.")

	return systemPrompt, b.String()
}
