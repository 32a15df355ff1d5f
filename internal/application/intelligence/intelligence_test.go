package intelligence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/domainauction/biddingengine/internal/cache"
	"github.com/domainauction/biddingengine/internal/domain/auction"
)

func TestEnrich_ProducesFullIntelligenceBlock(t *testing.T) {
	engine := NewEngine(sampleTables(), cache.New())
	ctx := auction.Context{
		Domain:          "exact.com",
		Platform:        auction.PlatformGoDaddy,
		EstimatedValue:  1000,
		BudgetAvailable: 5000,
		NumBidders:      1,
	}

	intel := engine.Enrich(ctx)

	assert.Equal(t, auction.MatchExact, intel.Domain.MatchType)
	assert.GreaterOrEqual(t, intel.WinProbability, 0.0)
	assert.LessOrEqual(t, intel.WinProbability, 1.0)
	assert.NotEmpty(t, intel.ResourcePriority)
}

func TestEnrich_ReusesCachedLookupsAcrossCalls(t *testing.T) {
	c := cache.New()
	engine := NewEngine(sampleTables(), c)
	ctx := auction.Context{Domain: "exact.com", Platform: auction.PlatformGoDaddy, EstimatedValue: 1000, BudgetAvailable: 5000}

	first := engine.Enrich(ctx)
	second := engine.Enrich(ctx)

	assert.Equal(t, first.Domain, second.Domain)
	assert.Equal(t, first.Archetype, second.Archetype)
}

func TestEnrich_NilCacheStillWorks(t *testing.T) {
	engine := NewEngine(sampleTables(), nil)
	ctx := auction.Context{Domain: "exact.com", EstimatedValue: 1000, BudgetAvailable: 5000}

	intel := engine.Enrich(ctx)

	assert.Equal(t, auction.MatchExact, intel.Domain.MatchType)
}

func TestEnrich_UnknownDomainAndBidderFailsOpen(t *testing.T) {
	engine := NewEngine(&Tables{Archetypes: map[string]ArchetypeStat{}}, cache.New())
	ctx := auction.Context{Domain: "nowhere.zzz", EstimatedValue: 1000, BudgetAvailable: 5000}

	intel := engine.Enrich(ctx)

	assert.False(t, intel.Bidder.Found)
	assert.Equal(t, auction.ClusterUnknown, intel.Bidder.BehavioralCluster)
}
