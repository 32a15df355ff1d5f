package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domainauction/biddingengine/internal/domain/auction"
	"github.com/domainauction/biddingengine/internal/persistence"
)

func newMockRepo(t *testing.T) (persistence.HistoryStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")
	return NewHistoryRepo(sqlxDB, time.Second), mock
}

func TestRecordRound_UpsertsOnConflict(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO auction_rounds").
		WithArgs("thread-1", 1, auction.StrategyProxyMax, 650.0, auction.RoundOutbid, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.RecordRound(context.Background(), auction.RoundRecord{
		ThreadID:      "thread-1",
		RoundNumber:   1,
		Strategy:      auction.StrategyProxyMax,
		Amount:        650.0,
		InterimResult: auction.RoundOutbid,
		RecordedAt:    time.Now(),
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordOutcome_UpsertsOnConflictByAuctionID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO auction_outcomes").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.RecordOutcome(context.Background(), auction.OutcomeRecord{
		AuctionID:    "auction-1",
		Context:      auction.Context{Domain: "example.com"},
		FinalPrice:   700,
		Won:          true,
		ProfitMargin: 300,
		Strategy:     auction.StrategyProxyMax,
		RecordedAt:   time.Now(),
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAggregate_AtomicIncrementOnConflict(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO strategy_performance").
		WithArgs(auction.StrategyProxyMax, auction.PlatformGoDaddy, auction.TierMedium, 1, 1.0).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.UpdateAggregate(context.Background(), auction.StrategyProxyMax, auction.PlatformGoDaddy, auction.TierMedium, true, 1.0)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStrategyStats_NoRowsReturnsZeroValueWithoutError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT strategy, platform, value_tier, total_uses, wins, total_profit").
		WillReturnError(sql.ErrNoRows)

	stats, err := repo.StrategyStats(context.Background(), auction.StrategyProxyMax, auction.PlatformGoDaddy, auction.TierMedium)

	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalUses)
}

func TestBestStrategy_NoQualifyingBucketReturnsNotOK(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT strategy").
		WillReturnError(sql.ErrNoRows)

	_, ok, err := repo.BestStrategy(context.Background(), auction.PlatformGoDaddy, auction.TierMedium, 5)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoundsForThread_OrdersByRoundNumber(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"thread_id", "round_number", "strategy", "amount", "interim_result", "recorded_at"}).
		AddRow("thread-1", 1, auction.StrategyProxyMax, 650.0, auction.RoundOutbid, time.Now()).
		AddRow("thread-1", 2, auction.StrategyLastMinuteSnipe, 700.0, auction.RoundWon, time.Now())

	mock.ExpectQuery("SELECT thread_id, round_number, strategy, amount, interim_result, recorded_at").
		WithArgs("thread-1").
		WillReturnRows(rows)

	recs, err := repo.RoundsForThread(context.Background(), "thread-1")

	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 1, recs[0].RoundNumber)
	assert.Equal(t, 2, recs[1].RoundNumber)
}
