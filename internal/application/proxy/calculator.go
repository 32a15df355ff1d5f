// Package proxy implements the mathematical outbid/proxy-adjustment engine.
// It is the only stage permitted to override an upstream strategy: when the
// math says the safe ceiling has already been exceeded, it unconditionally
// flips the decision to do_not_bid regardless of what the reasoner or rule
// selector recommended.
package proxy

import (
	"fmt"
	"math"

	"github.com/domainauction/biddingengine/internal/domain/auction"
)

// DefaultIncrement is the platform-increment fallback for an unrecognized
// platform.
const DefaultIncrement = 5.0

// RaiseMultiplier is how many increments of headroom must exist above the
// current proxy before the calculator bothers raising it.
const RaiseMultiplier = 3.0

// PlatformIncrement returns the minimum-bid-increment convention for a
// platform.
func PlatformIncrement(platform auction.Platform, currentBid float64) float64 {
	switch platform {
	case auction.PlatformGoDaddy, auction.PlatformNameJet:
		return 5.0
	case auction.PlatformDynadot:
		return math.Max(5.0, 0.05*currentBid)
	default:
		return DefaultIncrement
	}
}

// Result bundles the ProxyDecision together with the (possibly overridden)
// strategy the orchestrator should carry into FinalDecision.
type Result struct {
	Proxy    auction.ProxyDecision
	Strategy auction.Strategy
	Amount   float64
	Overridden bool
}

// Compute runs the three mutually-exclusive proxy scenarios against the
// chosen upstream StrategyDecision.
func Compute(ctx auction.Context, chosen auction.StrategyDecision) Result {
	safeMax := ctx.SafeMax()
	increment := PlatformIncrement(ctx.Platform, ctx.CurrentBid)
	potential := math.Min(safeMax, math.Min(ctx.BudgetAvailable, ctx.HardCeiling()))

	base := auction.ProxyDecision{
		CurrentProxy:       ctx.YourCurrentProxy,
		CurrentBid:         ctx.CurrentBid,
		SafeMax:            safeMax,
		MaxBudgetForDomain: potential,
	}

	switch {
	case ctx.YourCurrentProxy == 0:
		base.NewProxyMax = potential
		base.NextBidAmount = ctx.CurrentBid + increment
		base.ProxyAction = auction.ProxyInitialSetup
		base.ShouldIncreaseProxy = true
		base.Explanation = fmt.Sprintf("initial proxy setup: capped at min(safe_max=%.2f, budget=%.2f, hard_ceiling=%.2f) = %.2f", safeMax, ctx.BudgetAvailable, ctx.HardCeiling(), potential)
		return Result{Proxy: base, Strategy: chosen.Strategy, Amount: chosen.RecommendedBidAmount}

	case safeMax <= ctx.CurrentBid:
		base.NewProxyMax = ctx.YourCurrentProxy
		base.NextBidAmount = 0
		base.ProxyAction = auction.ProxyAcceptLoss
		base.ShouldIncreaseProxy = false
		base.Explanation = fmt.Sprintf("current_bid %.2f has already reached safe_max %.2f; accepting loss on this domain", ctx.CurrentBid, safeMax)
		return Result{Proxy: base, Strategy: auction.StrategyDoNotBid, Amount: 0, Overridden: true}

	default: // safeMax > currentBid: increase zone
		base.NewProxyMax = ctx.YourCurrentProxy
		base.NextBidAmount = 0
		base.ProxyAction = auction.ProxyMaintain
		base.ShouldIncreaseProxy = false
		if potential-ctx.YourCurrentProxy > RaiseMultiplier*increment {
			base.NewProxyMax = potential
			base.NextBidAmount = ctx.CurrentBid + increment
			base.ProxyAction = auction.ProxyIncrease
			base.ShouldIncreaseProxy = true
			base.Explanation = fmt.Sprintf("headroom %.2f exceeds %dx increment (%.2f); raising proxy to %.2f", potential-ctx.YourCurrentProxy, int(RaiseMultiplier), RaiseMultiplier*increment, potential)
		} else {
			base.Explanation = fmt.Sprintf("headroom %.2f does not exceed %dx increment (%.2f); maintaining current proxy", potential-ctx.YourCurrentProxy, int(RaiseMultiplier), RaiseMultiplier*increment)
		}
		return Result{Proxy: base, Strategy: chosen.Strategy, Amount: chosen.RecommendedBidAmount}
	}
}
