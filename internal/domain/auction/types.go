// Package auction defines the core data model shared by every stage of the
// bidding decision pipeline: the input context, the intermediate decisions
// produced by the reasoner and rule selector, the proxy math output, the
// enrichment shape produced by market intelligence, and the final record
// returned to the caller.
package auction

import (
	"time"

	"github.com/google/uuid"
)

// Platform identifies a supported domain-auction marketplace.
type Platform string

const (
	PlatformGoDaddy Platform = "godaddy"
	PlatformNameJet Platform = "namejet"
	PlatformDynadot Platform = "dynadot"
)

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformGoDaddy, PlatformNameJet, PlatformDynadot:
		return true
	default:
		return false
	}
}

// Strategy is one of the six bidding strategies the engine can recommend.
type Strategy string

const (
	StrategyProxyMax         Strategy = "proxy_max"
	StrategyLastMinuteSnipe  Strategy = "last_minute_snipe"
	StrategyIncrementalTest  Strategy = "incremental_test"
	StrategyWaitForCloseout  Strategy = "wait_for_closeout"
	StrategyAggressiveEarly  Strategy = "aggressive_early"
	StrategyDoNotBid         Strategy = "do_not_bid"
)

// RiskLevel is a coarse qualitative risk label attached to a StrategyDecision.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// DecisionSource names which pipeline stage produced the FinalDecision.
type DecisionSource string

const (
	SourceLLM           DecisionSource = "llm"
	SourceRulesFallback DecisionSource = "rules_fallback"
	SourceSafetyBlock   DecisionSource = "safety_block"
	SourceSystemError   DecisionSource = "system_error"
)

// ValueTier buckets an estimated value into the tiers the rule selector and
// validator reason about. Tier boundaries resolve to the higher tier: a
// value of exactly $1000 is High, exactly $100 is Medium.
type ValueTier string

const (
	TierHigh   ValueTier = "high"
	TierMedium ValueTier = "medium"
	TierLow    ValueTier = "low"
)

// ClassifyTier returns the value tier for an estimated value.
func ClassifyTier(estimatedValue float64) ValueTier {
	switch {
	case estimatedValue >= 1000:
		return TierHigh
	case estimatedValue >= 100:
		return TierMedium
	default:
		return TierLow
	}
}

// BidderAnalysis carries the outer loop's read on the opposing bidder(s) in
// the current round.
type BidderAnalysis struct {
	BotDetected      bool    `json:"bot_detected"`
	CorporateBuyer   bool    `json:"corporate_buyer"`
	AggressionScore  float64 `json:"aggression_score"` // [0,10]
	ReactionTimeAvgS float64 `json:"reaction_time_avg_s"`
}

// Context is the immutable per-call input to decide(). It is never mutated
// by any pipeline stage.
type Context struct {
	Domain            string          `json:"domain"`
	Platform          Platform        `json:"platform"`
	EstimatedValue    float64         `json:"estimated_value"`
	CurrentBid        float64         `json:"current_bid"`
	YourCurrentProxy  float64         `json:"your_current_proxy"`
	BudgetAvailable   float64         `json:"budget_available"`
	NumBidders        int             `json:"num_bidders"`
	HoursRemaining    float64         `json:"hours_remaining"`
	BidderAnalysis    BidderAnalysis  `json:"bidder_analysis"`
	ThreadID          string          `json:"thread_id"`
	LastBidderID      string          `json:"last_bidder_id,omitempty"`
}

// Tier returns the value tier this context falls into.
func (c Context) Tier() ValueTier {
	return ClassifyTier(c.EstimatedValue)
}

// SafeMax is 70% of the estimated value — the rule target and proxy cap.
func (c Context) SafeMax() float64 {
	return 0.70 * c.EstimatedValue
}

// HardCeiling is 80% of the estimated value — the validator's absolute cap.
func (c Context) HardCeiling() float64 {
	return 0.80 * c.EstimatedValue
}

// StrategyDecision is produced by either the Reasoner or the Rule Selector.
type StrategyDecision struct {
	Strategy              Strategy  `json:"strategy"`
	RecommendedBidAmount  float64   `json:"recommended_bid_amount"`
	Confidence            float64   `json:"confidence"` // [0,1]
	RiskLevel             RiskLevel `json:"risk_level"`
	Reasoning             string    `json:"reasoning"`
}

// Valid checks the StrategyDecision invariant that do_not_bid implies a zero
// bid amount. It does not run the full Validator checks (see gates.Validate).
func (d StrategyDecision) Valid() bool {
	if d.Strategy == StrategyDoNotBid && d.RecommendedBidAmount != 0 {
		return false
	}
	return true
}

// ProxyAction names the scenario the Proxy Calculator resolved to.
type ProxyAction string

const (
	ProxyAcceptLoss     ProxyAction = "accept_loss"
	ProxyIncrease       ProxyAction = "increase_proxy"
	ProxyMaintain       ProxyAction = "maintain_proxy"
	ProxyInitialSetup   ProxyAction = "initial_setup"
)

// ProxyDecision is produced by the Proxy Calculator.
type ProxyDecision struct {
	CurrentProxy        float64     `json:"current_proxy"`
	CurrentBid          float64     `json:"current_bid"`
	SafeMax             float64     `json:"safe_max"`
	NewProxyMax         float64     `json:"new_proxy_max"`
	NextBidAmount       float64     `json:"next_bid_amount"`
	MaxBudgetForDomain  float64     `json:"max_budget_for_domain"`
	ShouldIncreaseProxy bool        `json:"should_increase_proxy"`
	ProxyAction         ProxyAction `json:"proxy_action"`
	Explanation         string      `json:"explanation"`
}

// BehavioralCluster is a coarse label for opponent behavior derived from
// similarity search over the bidder table.
type BehavioralCluster string

const (
	ClusterCasual     BehavioralCluster = "casual"
	ClusterAggressive BehavioralCluster = "aggressive"
	ClusterSniper     BehavioralCluster = "sniper"
	ClusterBot        BehavioralCluster = "bot"
	ClusterCorporate  BehavioralCluster = "corporate"
	ClusterUnknown    BehavioralCluster = "unknown"
)

// BidderIntel is the enrichment Market Intelligence derives about the
// opposing bidder(s).
type BidderIntel struct {
	Found             bool              `json:"found"`
	BehavioralCluster BehavioralCluster `json:"behavioral_cluster"`
	SampleSize        int               `json:"sample_size"`
	FoldProbability   float64           `json:"fold_probability"`
	AvgWinRate        float64           `json:"avg_win_rate"`
}

// DomainMatchType names which fallback tier satisfied a domain lookup.
type DomainMatchType string

const (
	MatchExact           DomainMatchType = "exact"
	MatchTLDPattern      DomainMatchType = "tld_pattern"
	MatchValueTierPattern DomainMatchType = "value_tier_pattern"
	MatchPlatformAvg     DomainMatchType = "platform_avg"
)

// PricePercentiles summarizes the historical final-price distribution for a
// domain cohort.
type PricePercentiles struct {
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
}

// DomainIntel is the enrichment Market Intelligence derives about the
// domain's expected final price.
type DomainIntel struct {
	MatchType      DomainMatchType  `json:"match_type"`
	AvgFinalPrice  float64          `json:"avg_final_price"`
	PricePercentiles PricePercentiles `json:"price_percentiles"`
	Volatility     float64          `json:"volatility"`
	SampleSize     int              `json:"sample_size"`
	Confidence     float64          `json:"confidence"`
}

// EscalationSpeed classifies how quickly bids escalate on a platform.
type EscalationSpeed string

const (
	EscalationSlow   EscalationSpeed = "slow"
	EscalationNormal EscalationSpeed = "normal"
	EscalationFast   EscalationSpeed = "fast"
)

// ArchetypeIntel is a platform-level statistical profile.
type ArchetypeIntel struct {
	AvgLateBidRatio  float64         `json:"avg_late_bid_ratio"`
	AvgBidJump       float64         `json:"avg_bid_jump"`
	AvgDurationS     float64         `json:"avg_duration_s"`
	EscalationSpeed  EscalationSpeed `json:"escalation_speed"`
	SniperDominated  bool            `json:"sniper_dominated"`
	ProxyDriven      bool            `json:"proxy_driven"`
}

// ExpectedValueAnalysis is a derived economic projection for the auction.
type ExpectedValueAnalysis struct {
	ExpectedFinalPrice float64 `json:"expected_final_price"`
	ExpectedProfit     float64 `json:"expected_profit"`
	RiskAdjustedEV     float64 `json:"risk_adjusted_ev"`
	ROI                float64 `json:"roi"`
	Recommendation     string  `json:"recommendation"`
}

// ResourcePriority buckets the resource score into a coarse priority label.
type ResourcePriority string

const (
	PriorityHigh   ResourcePriority = "HIGH"
	PriorityMedium ResourcePriority = "MEDIUM"
	PriorityLow    ResourcePriority = "LOW"
)

// Intelligence is the full enrichment shape produced by the Market
// Intelligence component for a single call.
type Intelligence struct {
	Bidder               BidderIntel            `json:"bidder"`
	Domain               DomainIntel            `json:"domain"`
	Archetype            ArchetypeIntel         `json:"archetype"`
	WinProbability       float64                `json:"win_probability"`
	ExpectedValueAnalysis ExpectedValueAnalysis `json:"expected_value_analysis"`
	ResourceScore        float64                `json:"resource_score"`
	ResourcePriority     ResourcePriority        `json:"resource_priority"`
}

// FinalDecision is the terminal output of decide(). Every call to decide()
// returns exactly one of these, never an error.
type FinalDecision struct {
	DecisionID           uuid.UUID      `json:"decision_id"`
	Strategy             Strategy       `json:"strategy"`
	RecommendedBidAmount float64        `json:"recommended_bid_amount"`
	Confidence           float64        `json:"confidence"`
	RiskLevel            RiskLevel      `json:"risk_level"`
	Reasoning            string         `json:"reasoning"`

	CurrentProxy        float64     `json:"current_proxy"`
	CurrentBid          float64     `json:"current_bid"`
	SafeMax             float64     `json:"safe_max"`
	NewProxyMax         float64     `json:"new_proxy_max"`
	NextBidAmount       float64     `json:"next_bid_amount"`
	MaxBudgetForDomain  float64     `json:"max_budget_for_domain"`
	ShouldIncreaseProxy bool        `json:"should_increase_proxy"`
	ProxyAction         ProxyAction `json:"proxy_action"`
	ProxyExplanation    string      `json:"proxy_explanation,omitempty"`

	DecisionSource DecisionSource `json:"decision_source"`
	BlockReason    string         `json:"block_reason,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
}

// RoundOutcome is the interim result of a single bidding round.
type RoundOutcome string

const (
	RoundOutbid RoundOutcome = "outbid"
	RoundWon    RoundOutcome = "won"
	RoundLost   RoundOutcome = "lost"
)

// RoundRecord is a single round of a thread, appended by the outer loop.
type RoundRecord struct {
	ThreadID      string       `json:"thread_id" db:"thread_id"`
	RoundNumber   int          `json:"round_number" db:"round_number"`
	Strategy      Strategy     `json:"strategy" db:"strategy"`
	Amount        float64      `json:"amount" db:"amount"`
	InterimResult RoundOutcome `json:"interim_result" db:"interim_result"`
	RecordedAt    time.Time    `json:"recorded_at" db:"recorded_at"`
}

// OutcomeRecord is the final snapshot of a resolved auction.
type OutcomeRecord struct {
	AuctionID    string    `json:"auction_id"`
	Context      Context   `json:"context"`
	FinalPrice   float64   `json:"final_price"`
	Won          bool      `json:"won"`
	ProfitMargin float64   `json:"profit_margin"`
	Strategy     Strategy  `json:"strategy"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// StrategyStats is the aggregate performance of a (strategy, platform, tier)
// bucket.
type StrategyStats struct {
	Strategy   Strategy  `json:"strategy" db:"strategy"`
	Platform   Platform  `json:"platform" db:"platform"`
	ValueTier  ValueTier `json:"value_tier" db:"value_tier"`
	TotalUses  int64     `json:"total_uses" db:"total_uses"`
	Wins       int64     `json:"wins" db:"wins"`
	TotalProfit float64  `json:"total_profit" db:"total_profit"`
}

// WinRate returns the fraction of uses that won, or 0 if never used.
func (s StrategyStats) WinRate() float64 {
	if s.TotalUses == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.TotalUses)
}
