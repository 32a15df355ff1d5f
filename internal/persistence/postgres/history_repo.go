// Package postgres implements the History Recorder's HistoryStore contract
// over PostgreSQL via jmoiron/sqlx and lib/pq, continuing the teacher's
// internal/persistence/postgres/premove_repo.go: the same
// INSERT ... ON CONFLICT ... DO UPDATE upsert idiom for the
// outcome and round tables, and a lock-free INSERT ... ON CONFLICT DO
// UPDATE SET total_uses = total_uses + 1, ... increment for the aggregate
// table — Postgres's own upsert semantics give the atomicity §5 requires
// per (strategy, platform, value_tier) key without a SELECT ... FOR UPDATE.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/domainauction/biddingengine/internal/domain/auction"
	"github.com/domainauction/biddingengine/internal/persistence"
)

// historyRepo implements persistence.HistoryStore over PostgreSQL.
type historyRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewHistoryRepo constructs a persistence.HistoryStore backed by db. Every
// query is bounded by timeout, matching premoveRepo's per-call deadline.
func NewHistoryRepo(db *sqlx.DB, timeout time.Duration) persistence.HistoryStore {
	return &historyRepo{db: db, timeout: timeout}
}

func (r *historyRepo) RecordRound(ctx context.Context, rec auction.RoundRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		INSERT INTO auction_rounds (thread_id, round_number, strategy, amount, interim_result, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (thread_id, round_number) DO UPDATE SET
			strategy = EXCLUDED.strategy,
			amount = EXCLUDED.amount,
			interim_result = EXCLUDED.interim_result,
			recorded_at = EXCLUDED.recorded_at`

	if _, err := r.db.ExecContext(ctx, query,
		rec.ThreadID, rec.RoundNumber, rec.Strategy, rec.Amount, rec.InterimResult, rec.RecordedAt); err != nil {
		return fmt.Errorf("postgres: record round: %w", err)
	}
	return nil
}

func (r *historyRepo) RecordOutcome(ctx context.Context, o auction.OutcomeRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	contextJSON, err := json.Marshal(o.Context)
	if err != nil {
		return fmt.Errorf("postgres: marshal context snapshot: %w", err)
	}

	const query = `
		INSERT INTO auction_outcomes (auction_id, context, final_price, won, profit_margin, strategy, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (auction_id) DO UPDATE SET
			context = EXCLUDED.context,
			final_price = EXCLUDED.final_price,
			won = EXCLUDED.won,
			profit_margin = EXCLUDED.profit_margin,
			strategy = EXCLUDED.strategy,
			recorded_at = EXCLUDED.recorded_at`

	if _, err := r.db.ExecContext(ctx, query,
		o.AuctionID, contextJSON, o.FinalPrice, o.Won, o.ProfitMargin, o.Strategy, o.RecordedAt); err != nil {
		return fmt.Errorf("postgres: record outcome: %w", err)
	}
	return nil
}

func (r *historyRepo) UpdateAggregate(ctx context.Context, strategy auction.Strategy, platform auction.Platform, tier auction.ValueTier, won bool, profit float64) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	win := 0
	if won {
		win = 1
	}

	const query = `
		INSERT INTO strategy_performance (strategy, platform, value_tier, total_uses, wins, total_profit)
		VALUES ($1, $2, $3, 1, $4, $5)
		ON CONFLICT (strategy, platform, value_tier) DO UPDATE SET
			total_uses = strategy_performance.total_uses + 1,
			wins = strategy_performance.wins + EXCLUDED.wins,
			total_profit = strategy_performance.total_profit + EXCLUDED.total_profit`

	if _, err := r.db.ExecContext(ctx, query, strategy, platform, tier, win, profit); err != nil {
		return fmt.Errorf("postgres: update aggregate: %w", err)
	}
	return nil
}

func (r *historyRepo) SimilarAuctions(ctx context.Context, q persistence.SimilarAuctionQuery) ([]auction.OutcomeRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	lo := q.EstimatedValue * 0.70
	hi := q.EstimatedValue * 1.30

	const query = `
		SELECT auction_id, context, final_price, won, profit_margin, strategy, recorded_at
		FROM auction_outcomes
		WHERE (context->>'platform') = $1
		  AND (context->>'estimated_value')::float8 BETWEEN $2 AND $3
		ORDER BY recorded_at DESC
		LIMIT $4`

	rows, err := r.db.QueryxContext(ctx, query, q.Platform, lo, hi, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: similar auctions: %w", err)
	}
	defer rows.Close()

	var out []auction.OutcomeRecord
	for rows.Next() {
		rec, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *historyRepo) StrategyStats(ctx context.Context, strategy auction.Strategy, platform auction.Platform, tier auction.ValueTier) (auction.StrategyStats, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		SELECT strategy, platform, value_tier, total_uses, wins, total_profit
		FROM strategy_performance
		WHERE strategy = $1 AND platform = $2 AND value_tier = $3`

	var stats auction.StrategyStats
	err := r.db.GetContext(ctx, &stats, query, strategy, platform, tier)
	if err != nil {
		if isNoRows(err) {
			return auction.StrategyStats{Strategy: strategy, Platform: platform, ValueTier: tier}, nil
		}
		return auction.StrategyStats{}, fmt.Errorf("postgres: strategy stats: %w", err)
	}
	return stats, nil
}

func (r *historyRepo) BestStrategy(ctx context.Context, platform auction.Platform, tier auction.ValueTier, minSamples int) (auction.Strategy, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		SELECT strategy
		FROM strategy_performance
		WHERE platform = $1 AND value_tier = $2 AND total_uses >= $3
		ORDER BY (wins::float8 / NULLIF(total_uses, 0)) DESC
		LIMIT 1`

	var strategy auction.Strategy
	err := r.db.GetContext(ctx, &strategy, query, platform, tier, minSamples)
	if err != nil {
		if isNoRows(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("postgres: best strategy: %w", err)
	}
	return strategy, true, nil
}

func (r *historyRepo) RoundsForThread(ctx context.Context, threadID string) ([]auction.RoundRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		SELECT thread_id, round_number, strategy, amount, interim_result, recorded_at
		FROM auction_rounds
		WHERE thread_id = $1
		ORDER BY round_number ASC`

	var rounds []auction.RoundRecord
	if err := r.db.SelectContext(ctx, &rounds, query, threadID); err != nil {
		return nil, fmt.Errorf("postgres: rounds for thread: %w", err)
	}
	return rounds, nil
}

func scanOutcome(rows *sqlx.Rows) (auction.OutcomeRecord, error) {
	var rec auction.OutcomeRecord
	var contextJSON []byte
	if err := rows.Scan(&rec.AuctionID, &contextJSON, &rec.FinalPrice, &rec.Won, &rec.ProfitMargin, &rec.Strategy, &rec.RecordedAt); err != nil {
		return auction.OutcomeRecord{}, fmt.Errorf("postgres: scan outcome: %w", err)
	}
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &rec.Context); err != nil {
			return auction.OutcomeRecord{}, fmt.Errorf("postgres: unmarshal context snapshot: %w", err)
		}
	}
	return rec, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
