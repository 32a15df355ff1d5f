package intelligence

import "time"

// Thresholds collects the Market Intelligence tunables Open Question 3
// calls out as configuration rather than contract: the cluster-match
// filter's tolerance and minimum sample size, the resource-score priority
// cutoffs, and the lookup cache's TTL. internal/config's IntelligenceConfig
// is the YAML-facing mirror of this struct; the CLI converts one into the
// other at startup and calls Engine.SetThresholds.
//
// This is deliberately separate from the Safety Gate and Validator
// constants, which SPEC_FULL.md keeps hard and non-configurable — only the
// enrichment stage's classification behavior is tunable.
type Thresholds struct {
	MinClusterSamples          int
	ClusterAggressionTolerance float64
	ClusterReactionToleranceS  float64
	ResourceScoreHighThreshold float64
	ResourceScoreMedThreshold  float64
	LookupCacheTTL             time.Duration
}

// DefaultThresholds mirrors the literal constants the formulas used before
// they became configurable, so an Engine built without an explicit config
// file behaves exactly as it did when these were hardcoded.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinClusterSamples:          MinClusterSamples,
		ClusterAggressionTolerance: AggressionTolerance,
		ClusterReactionToleranceS:  ReactionToleranceS,
		ResourceScoreHighThreshold: ResourceScoreHighThreshold,
		ResourceScoreMedThreshold:  ResourceScoreMediumThreshold,
		LookupCacheTTL:             5 * time.Minute,
	}
}
