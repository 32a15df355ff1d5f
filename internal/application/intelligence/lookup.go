package intelligence

import (
	"math"
	"strings"

	"github.com/domainauction/biddingengine/internal/domain/auction"
)

// MinClusterSamples is the minimum number of matching bidder profiles
// required before a cluster-match prediction is considered usable.
const MinClusterSamples = 5

// AggressionTolerance and ReactionToleranceS bound the cluster-match filter
// for the bidder lookup's fallback tier.
const (
	AggressionTolerance = 2.0
	ReactionToleranceS  = 60.0
)

// FallbackConfidenceCap is the ceiling applied to any domain-lookup match
// that is not an exact hit.
const FallbackConfidenceCap = 0.75

// ValueTierPatternBand is the ±tolerance (as a fraction) used by the
// value-tier-pattern domain fallback.
const ValueTierPatternBand = 0.30

// lookupBidder resolves BidderIntel for the current call's opposing bidder
// using exact-id lookup, falling back to a cluster match over profiles with
// similar aggression and reaction time. th bounds the cluster-match filter
// and its minimum sample size — see Thresholds.
func lookupBidder(t *Tables, ctx auction.Context, th Thresholds) auction.BidderIntel {
	if ctx.LastBidderID != "" {
		if p, ok := t.biddersByID[ctx.LastBidderID]; ok {
			return auction.BidderIntel{
				Found:             true,
				BehavioralCluster: classifyCluster(ctx, p.Aggression, p.ReactionTimeS),
				SampleSize:        p.TotalRounds(),
				FoldProbability:   1 - p.WinRateFraction(),
				AvgWinRate:        p.WinRateFraction(),
			}
		}
	}

	qAggression := ctx.BidderAnalysis.AggressionScore
	qReaction := ctx.BidderAnalysis.ReactionTimeAvgS

	var wins, losses int
	var aggressionSum, reactionSum float64
	var matched int
	for _, p := range t.Bidders {
		if math.Abs(p.Aggression-qAggression) > th.ClusterAggressionTolerance {
			continue
		}
		if math.Abs(p.ReactionTimeS-qReaction) > th.ClusterReactionToleranceS {
			continue
		}
		wins += p.WinRate
		losses += p.Losses
		aggressionSum += p.Aggression
		reactionSum += p.ReactionTimeS
		matched++
	}

	if matched < th.MinClusterSamples {
		return auction.BidderIntel{Found: false, BehavioralCluster: auction.ClusterUnknown}
	}

	total := wins + losses
	avgWinRate := 0.0
	if total > 0 {
		avgWinRate = float64(wins) / float64(total)
	}

	return auction.BidderIntel{
		Found:             true,
		BehavioralCluster: classifyCluster(ctx, aggressionSum/float64(matched), reactionSum/float64(matched)),
		SampleSize:        matched,
		FoldProbability:   1 - avgWinRate,
		AvgWinRate:        avgWinRate,
	}
}

// classifyCluster assigns a coarse behavioral label. Bot/corporate flags
// observed for the current round take precedence over the historical
// aggression/reaction-time profile, since they reflect this auction's live
// signal.
func classifyCluster(ctx auction.Context, avgAggression, avgReactionS float64) auction.BehavioralCluster {
	switch {
	case ctx.BidderAnalysis.BotDetected:
		return auction.ClusterBot
	case ctx.BidderAnalysis.CorporateBuyer:
		return auction.ClusterCorporate
	case avgReactionS > 0 && avgReactionS < 10:
		return auction.ClusterSniper
	case avgAggression >= 7:
		return auction.ClusterAggressive
	default:
		return auction.ClusterCasual
	}
}

// lookupDomain resolves DomainIntel via exact name, TLD pattern, value-tier
// pattern, and finally a platform-wide average, in that order.
func lookupDomain(t *Tables, ctx auction.Context) auction.DomainIntel {
	if d, ok := t.domainsByName[ctx.Domain]; ok {
		return domainIntelFrom(d, auction.MatchExact, d.SampleSize)
	}

	tld := tldOf(ctx.Domain)
	if tld != "" {
		if agg, ok := aggregateDomains(t.Domains, func(d DomainStat) bool { return d.TLD == tld }); ok {
			return domainIntelFrom(agg, auction.MatchTLDPattern, agg.SampleSize)
		}
	}

	if agg, ok := aggregateDomains(t.Domains, func(d DomainStat) bool {
		if ctx.EstimatedValue <= 0 {
			return false
		}
		lo := ctx.EstimatedValue * (1 - ValueTierPatternBand)
		hi := ctx.EstimatedValue * (1 + ValueTierPatternBand)
		return d.AvgFinalPrice >= lo && d.AvgFinalPrice <= hi
	}); ok {
		return domainIntelFrom(agg, auction.MatchValueTierPattern, agg.SampleSize)
	}

	if agg, ok := aggregateDomains(t.Domains, func(DomainStat) bool { return true }); ok {
		return domainIntelFrom(agg, auction.MatchPlatformAvg, agg.SampleSize)
	}

	return auction.DomainIntel{MatchType: auction.MatchPlatformAvg, Confidence: 0}
}

func tldOf(domain string) string {
	idx := strings.LastIndex(domain, ".")
	if idx < 0 || idx == len(domain)-1 {
		return ""
	}
	return domain[idx+1:]
}

// aggregateDomains averages the DomainStat fields over every row matching
// pred, returning ok=false when nothing matches.
func aggregateDomains(domains []DomainStat, pred func(DomainStat) bool) (DomainStat, bool) {
	var sum DomainStat
	var n int
	for _, d := range domains {
		if !pred(d) {
			continue
		}
		sum.AvgFinalPrice += d.AvgFinalPrice
		sum.P25 += d.P25
		sum.P50 += d.P50
		sum.P75 += d.P75
		sum.P90 += d.P90
		sum.Volatility += d.Volatility
		sum.SampleSize += d.SampleSize
		n++
	}
	if n == 0 {
		return DomainStat{}, false
	}
	return DomainStat{
		AvgFinalPrice: sum.AvgFinalPrice / float64(n),
		P25:           sum.P25 / float64(n),
		P50:           sum.P50 / float64(n),
		P75:           sum.P75 / float64(n),
		P90:           sum.P90 / float64(n),
		Volatility:    sum.Volatility / float64(n),
		SampleSize:    sum.SampleSize,
	}, true
}

func domainIntelFrom(d DomainStat, matchType auction.DomainMatchType, sampleSize int) auction.DomainIntel {
	confidence := math.Min(1.0, math.Sqrt(float64(sampleSize)/50.0))
	if matchType != auction.MatchExact {
		confidence = math.Min(confidence, FallbackConfidenceCap)
	}
	return auction.DomainIntel{
		MatchType:     matchType,
		AvgFinalPrice: d.AvgFinalPrice,
		PricePercentiles: auction.PricePercentiles{
			P25: d.P25, P50: d.P50, P75: d.P75, P90: d.P90,
		},
		Volatility: d.Volatility,
		SampleSize: sampleSize,
		Confidence: confidence,
	}
}

// Escalation/dominance classification thresholds for the archetype lookup.
const (
	EscalationSlowMaxJump = 50.0
	EscalationFastMinJump = 200.0
	SniperDominatedRatio  = 0.7
	ProxyDrivenRatio      = 0.3
)

// lookupArchetype resolves the platform-level ArchetypeIntel, classifying
// escalation speed and bidding-style dominance from the raw aggregates.
func lookupArchetype(t *Tables, ctx auction.Context) auction.ArchetypeIntel {
	a, ok := t.Archetypes[string(ctx.Platform)]
	if !ok {
		return auction.ArchetypeIntel{EscalationSpeed: auction.EscalationNormal}
	}

	speed := auction.EscalationNormal
	switch {
	case a.AvgBidJump < EscalationSlowMaxJump:
		speed = auction.EscalationSlow
	case a.AvgBidJump > EscalationFastMinJump:
		speed = auction.EscalationFast
	}

	return auction.ArchetypeIntel{
		AvgLateBidRatio: a.AvgLateBidRatio,
		AvgBidJump:      a.AvgBidJump,
		AvgDurationS:    a.AvgDurationS,
		EscalationSpeed: speed,
		SniperDominated: a.AvgLateBidRatio > SniperDominatedRatio,
		ProxyDriven:     a.AvgLateBidRatio < ProxyDrivenRatio,
	}
}
