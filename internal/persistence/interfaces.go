// Package persistence defines the History Recorder's storage contract.
// The recorder sits outside the per-call decision pipeline: callers invoke
// it when a round completes or an auction resolves. The store also answers
// similar-auction and strategy-performance queries, but Market
// Intelligence does not read them; the only read inside the engine is
// OrchestratorHistory's per-thread round summary for the reasoner prompt.
package persistence

import (
	"context"

	"github.com/domainauction/biddingengine/internal/domain/auction"
)

// DefaultMinSamples is the minimum number of recorded uses a
// (strategy, platform, value_tier) bucket must have before its win rate is
// considered a usable signal.
const DefaultMinSamples = 5

// SimilarAuctionQuery bounds a similar-auction lookup.
type SimilarAuctionQuery struct {
	Platform       auction.Platform
	EstimatedValue float64
	Limit          int
}

// HistoryStore is the durable store behind the History Recorder.
type HistoryStore interface {
	// RecordRound appends a single bidding round, keyed uniquely by
	// (thread_id, round_number).
	RecordRound(ctx context.Context, r auction.RoundRecord) error

	// RecordOutcome stores the terminal snapshot of a resolved auction,
	// keyed uniquely by auction_id; a repeat call for the same auction_id
	// replaces the prior snapshot.
	RecordOutcome(ctx context.Context, o auction.OutcomeRecord) error

	// UpdateAggregate atomically folds one more use of (strategy,
	// platform, valueTier) into its running totals.
	UpdateAggregate(ctx context.Context, strategy auction.Strategy, platform auction.Platform, tier auction.ValueTier, won bool, profit float64) error

	// SimilarAuctions returns recently resolved auctions on the same
	// platform with an estimated value within ±30% of q.EstimatedValue,
	// most recent first, bounded by q.Limit.
	SimilarAuctions(ctx context.Context, q SimilarAuctionQuery) ([]auction.OutcomeRecord, error)

	// StrategyStats returns the aggregate for one (strategy, platform,
	// value_tier) bucket. TotalUses is 0 if the bucket has never been
	// used.
	StrategyStats(ctx context.Context, strategy auction.Strategy, platform auction.Platform, tier auction.ValueTier) (auction.StrategyStats, error)

	// BestStrategy returns the strategy with the highest win rate among
	// those meeting minSamples for (platform, tier). ok is false if no
	// strategy meets the threshold.
	BestStrategy(ctx context.Context, platform auction.Platform, tier auction.ValueTier, minSamples int) (strategy auction.Strategy, ok bool, err error)

	// RoundsForThread returns every recorded round for threadID, ordered
	// by round_number ascending.
	RoundsForThread(ctx context.Context, threadID string) ([]auction.RoundRecord, error)
}
