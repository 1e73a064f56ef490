package application

import (
	"context"
	"testing"
	"time"

	"bookmaker/config"
	"bookmaker/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sellableQuote(id, matchID int64, price string) *entities.MarketQuote {
	return &entities.MarketQuote{
		ID:            id,
		MatchID:       matchID,
		Market:        entities.MarketMatchWinner,
		Selection:     "home",
		Price:         decimal.RequireFromString(price),
		Source:        entities.QuoteSourceComputed,
		Active:        true,
		MatchStartsAt: time.Now().Add(2 * time.Hour),
	}
}

func TestWagerOperations_PlaceWager_CommitsOnce(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	f := newFakeUnitOfWorkFactory()
	ops := NewWagerOperations(f)

	stake := decimal.RequireFromString("20.00")
	f.quoteRepo.On("GetByID", ctx, int64(5)).Return(sellableQuote(5, 42, "2.00"), nil)
	f.accountRepo.On("AdjustBalance", ctx, int64(1), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("-20.00"))
	})).Return(decimal.RequireFromString("80.00"), nil)
	f.wagerRepo.On("Create", ctx, mock.AnythingOfType("*entities.Wager")).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*entities.Wager).ID = 11
	})
	f.quoteRepo.On("IncrementCounters", ctx, int64(5), stake).Return(nil)
	f.historyRepo.On("Record", ctx, mock.AnythingOfType("*entities.BalanceHistory")).Return(nil)
	f.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)
	f.publisher.On("Publish", mock.AnythingOfType("events.WagerPlacedEvent")).Return(nil)

	wager, err := ops.PlaceWager(ctx, 1, 5, stake)
	require.NoError(t, err)
	assert.Equal(t, int64(11), wager.ID)

	assert.Equal(t, 1, f.commitCount())
	assert.Equal(t, 0, f.rollbackCount())
	f.assertExpectations(t)
}

func TestWagerOperations_PlaceWager_DebitRollsBackWithPlacement(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	f := newFakeUnitOfWorkFactory()
	ops := NewWagerOperations(f)

	// The debit succeeds but the wager row fails: the whole placement rolls
	// back, so the account is never left debited without a wager.
	f.quoteRepo.On("GetByID", ctx, int64(5)).Return(sellableQuote(5, 42, "2.00"), nil)
	f.accountRepo.On("AdjustBalance", ctx, int64(1), mock.AnythingOfType("decimal.Decimal")).
		Return(decimal.RequireFromString("80.00"), nil)
	f.wagerRepo.On("Create", ctx, mock.AnythingOfType("*entities.Wager")).Return(assert.AnError)

	_, err := ops.PlaceWager(ctx, 1, 5, decimal.RequireFromString("20.00"))
	require.Error(t, err)

	assert.Equal(t, 0, f.commitCount())
	assert.Equal(t, 1, f.rollbackCount())
	f.assertExpectations(t)
}

func TestWagerOperations_PlaceParlay_CommitsOnce(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	f := newFakeUnitOfWorkFactory()
	ops := NewWagerOperations(f)

	f.quoteRepo.On("GetByID", ctx, int64(5)).Return(sellableQuote(5, 42, "2.00"), nil)
	f.quoteRepo.On("GetByID", ctx, int64(6)).Return(sellableQuote(6, 43, "1.50"), nil)
	f.accountRepo.On("AdjustBalance", ctx, int64(1), mock.AnythingOfType("decimal.Decimal")).
		Return(decimal.RequireFromString("90.00"), nil)
	f.parlayRepo.On("Create", ctx, mock.AnythingOfType("*entities.Parlay")).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*entities.Parlay).ID = 21
	})
	f.wagerRepo.On("Create", ctx, mock.AnythingOfType("*entities.Wager")).Return(nil).Times(2)
	f.quoteRepo.On("IncrementCounters", ctx, int64(5), decimal.Zero).Return(nil)
	f.quoteRepo.On("IncrementCounters", ctx, int64(6), decimal.Zero).Return(nil)
	f.historyRepo.On("Record", ctx, mock.AnythingOfType("*entities.BalanceHistory")).Return(nil)
	f.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)
	f.publisher.On("Publish", mock.AnythingOfType("events.ParlayPlacedEvent")).Return(nil)

	parlay, err := ops.PlaceParlay(ctx, 1, []int64{5, 6}, decimal.RequireFromString("10.00"))
	require.NoError(t, err)
	assert.Equal(t, int64(21), parlay.ID)

	assert.Equal(t, 1, f.commitCount())
	f.assertExpectations(t)
}

func TestWagerOperations_CancelWager_ValidationDoesNotCommit(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	f := newFakeUnitOfWorkFactory()
	ops := NewWagerOperations(f)

	other := &entities.Wager{ID: 13, AccountID: 2, QuoteID: 5, State: entities.WagerStateActive}
	f.wagerRepo.On("GetByID", ctx, int64(13)).Return(other, nil)

	err := ops.CancelWager(ctx, 13, 1)
	assert.ErrorIs(t, err, entities.ErrValidation)

	assert.Equal(t, 0, f.commitCount())
	assert.Equal(t, 1, f.rollbackCount())
	f.assertExpectations(t)
}

func TestWagerOperations_WagerHistory(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	f := newFakeUnitOfWorkFactory()
	ops := NewWagerOperations(f)

	f.wagerRepo.On("GetAllByAccount", ctx, int64(1), 10).Return([]*entities.Wager{{ID: 11}}, nil)

	wagers, err := ops.WagerHistory(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, wagers, 1)

	// A read-only operation never commits.
	assert.Equal(t, 0, f.commitCount())
	assert.Equal(t, 1, f.rollbackCount())
	f.assertExpectations(t)
}
