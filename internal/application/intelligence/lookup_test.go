package intelligence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/domainauction/biddingengine/internal/domain/auction"
)

func sampleTables() *Tables {
	bidders := []BidderProfile{
		{ID: "bidder-1", Aggression: 8, ReactionTimeS: 5, WinRate: 8, Losses: 2},
		{ID: "cluster-a", Aggression: 5, ReactionTimeS: 90, WinRate: 3, Losses: 2},
		{ID: "cluster-b", Aggression: 6, ReactionTimeS: 100, WinRate: 2, Losses: 3},
		{ID: "cluster-c", Aggression: 4, ReactionTimeS: 80, WinRate: 4, Losses: 1},
		{ID: "cluster-d", Aggression: 5, ReactionTimeS: 95, WinRate: 1, Losses: 4},
		{ID: "cluster-e", Aggression: 6, ReactionTimeS: 85, WinRate: 5, Losses: 0},
	}
	domains := []DomainStat{
		{Name: "exact.com", TLD: "com", AvgFinalPrice: 900, P50: 850, SampleSize: 60},
		{Name: "other1.com", TLD: "com", AvgFinalPrice: 500, P50: 480, SampleSize: 40},
		{Name: "other2.net", TLD: "net", AvgFinalPrice: 300, P50: 290, SampleSize: 20},
	}
	archetypes := map[string]ArchetypeStat{
		"godaddy": {Platform: "godaddy", AvgLateBidRatio: 0.8, AvgBidJump: 20, AvgDurationS: 3600},
		"dynadot": {Platform: "dynadot", AvgLateBidRatio: 0.2, AvgBidJump: 250, AvgDurationS: 1800},
	}

	t := &Tables{
		Bidders:       bidders,
		biddersByID:   make(map[string]BidderProfile, len(bidders)),
		Domains:       domains,
		domainsByName: make(map[string]DomainStat, len(domains)),
		Archetypes:    archetypes,
	}
	for _, b := range bidders {
		t.biddersByID[b.ID] = b
	}
	for _, d := range domains {
		t.domainsByName[d.Name] = d
	}
	return t
}

func TestLookupBidder_ExactMatch(t *testing.T) {
	tb := sampleTables()
	ctx := auction.Context{LastBidderID: "bidder-1"}

	intel := lookupBidder(tb, ctx, DefaultThresholds())

	assert.True(t, intel.Found)
	assert.Equal(t, 10, intel.SampleSize)
	assert.InDelta(t, 0.8, intel.AvgWinRate, 0.001)
	assert.InDelta(t, 0.2, intel.FoldProbability, 0.001)
}

func TestLookupBidder_ClusterMatchRequiresMinimumSamples(t *testing.T) {
	tb := sampleTables()
	ctx := auction.Context{
		BidderAnalysis: auction.BidderAnalysis{AggressionScore: 5, ReactionTimeAvgS: 90},
	}

	intel := lookupBidder(tb, ctx, DefaultThresholds())

	assert.True(t, intel.Found)
	assert.Equal(t, 5, intel.SampleSize) // cluster-a..e all within tolerance
}

func TestLookupBidder_BelowMinimumSamplesReturnsUnknown(t *testing.T) {
	tb := &Tables{
		Bidders:     []BidderProfile{{ID: "solo", Aggression: 9, ReactionTimeS: 2, WinRate: 1}},
		biddersByID: map[string]BidderProfile{"solo": {ID: "solo", Aggression: 9, ReactionTimeS: 2, WinRate: 1}},
	}
	ctx := auction.Context{BidderAnalysis: auction.BidderAnalysis{AggressionScore: 9, ReactionTimeAvgS: 2}}

	intel := lookupBidder(tb, ctx, DefaultThresholds())

	assert.False(t, intel.Found)
	assert.Equal(t, auction.ClusterUnknown, intel.BehavioralCluster)
}

func TestLookupBidder_BotDetectedOverridesCluster(t *testing.T) {
	tb := sampleTables()
	ctx := auction.Context{LastBidderID: "bidder-1", BidderAnalysis: auction.BidderAnalysis{BotDetected: true}}

	intel := lookupBidder(tb, ctx, DefaultThresholds())

	assert.Equal(t, auction.ClusterBot, intel.BehavioralCluster)
}

func TestLookupDomain_ExactMatch(t *testing.T) {
	tb := sampleTables()
	ctx := auction.Context{Domain: "exact.com", EstimatedValue: 1000}

	intel := lookupDomain(tb, ctx)

	assert.Equal(t, auction.MatchExact, intel.MatchType)
	assert.InDelta(t, 900, intel.AvgFinalPrice, 0.001)
	assert.Greater(t, intel.Confidence, FallbackConfidenceCap) // exact isn't capped
}

func TestLookupDomain_TLDPatternFallback(t *testing.T) {
	tb := sampleTables()
	ctx := auction.Context{Domain: "unknown123.com", EstimatedValue: 1000}

	intel := lookupDomain(tb, ctx)

	assert.Equal(t, auction.MatchTLDPattern, intel.MatchType)
	assert.LessOrEqual(t, intel.Confidence, FallbackConfidenceCap)
}

func TestLookupDomain_ValueTierPatternFallback(t *testing.T) {
	tb := &Tables{
		Domains: []DomainStat{
			{Name: "a.io", TLD: "io", AvgFinalPrice: 290, SampleSize: 30},
		},
		domainsByName: map[string]DomainStat{},
	}
	ctx := auction.Context{Domain: "brandnew.xyz", EstimatedValue: 300}

	intel := lookupDomain(tb, ctx)

	assert.Equal(t, auction.MatchValueTierPattern, intel.MatchType)
}

func TestLookupArchetype_ClassifiesEscalationAndDominance(t *testing.T) {
	tb := sampleTables()

	godaddy := lookupArchetype(tb, auction.Context{Platform: auction.PlatformGoDaddy})
	assert.Equal(t, auction.EscalationSlow, godaddy.EscalationSpeed)
	assert.True(t, godaddy.SniperDominated)

	dynadot := lookupArchetype(tb, auction.Context{Platform: auction.PlatformDynadot})
	assert.Equal(t, auction.EscalationFast, dynadot.EscalationSpeed)
	assert.True(t, dynadot.ProxyDriven)
}

func TestLookupArchetype_UnknownPlatformIsNormal(t *testing.T) {
	tb := sampleTables()

	intel := lookupArchetype(tb, auction.Context{Platform: auction.PlatformNameJet})

	assert.Equal(t, auction.EscalationNormal, intel.EscalationSpeed)
	assert.False(t, intel.SniperDominated)
	assert.False(t, intel.ProxyDriven)
}
