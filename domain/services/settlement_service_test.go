package services

import (
	"context"
	"testing"

	"bookmaker/config"
	"bookmaker/domain/entities"
	"bookmaker/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type settlementServiceMocks struct {
	accountRepo *testhelpers.MockAccountRepository
	wagerRepo   *testhelpers.MockWagerRepository
	parlayRepo  *testhelpers.MockParlayRepository
	historyRepo *testhelpers.MockBalanceHistoryRepository
	publisher   *testhelpers.MockEventPublisher
}

func newSettlementService() (*SettlementService, *settlementServiceMocks) {
	m := &settlementServiceMocks{
		accountRepo: new(testhelpers.MockAccountRepository),
		wagerRepo:   new(testhelpers.MockWagerRepository),
		parlayRepo:  new(testhelpers.MockParlayRepository),
		historyRepo: new(testhelpers.MockBalanceHistoryRepository),
		publisher:   new(testhelpers.MockEventPublisher),
	}
	service := NewSettlementService(m.accountRepo, m.wagerRepo, m.parlayRepo, m.historyRepo, m.publisher, NewOutcomeResolver())
	return service, m
}

func (m *settlementServiceMocks) assertExpectations(t *testing.T) {
	m.accountRepo.AssertExpectations(t)
	m.wagerRepo.AssertExpectations(t)
	m.parlayRepo.AssertExpectations(t)
	m.historyRepo.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func activeWager(id int64, selection string, stake, price string) *entities.Wager {
	s := decimal.RequireFromString(stake)
	p := decimal.RequireFromString(price)
	return &entities.Wager{
		ID:              id,
		AccountID:       1,
		MatchID:         42,
		QuoteID:         5,
		Market:          entities.MarketMatchWinner,
		Selection:       selection,
		Stake:           s,
		LockedPrice:     p,
		PotentialPayout: s.Mul(p).Round(2),
		State:           entities.WagerStateActive,
	}
}

func homeWinResult() *entities.MatchResult {
	return &entities.MatchResult{
		MatchID:  42,
		FullTime: entities.Score{Home: 2, Away: 1},
	}
}

func TestSettlementService_SettleWager_Won(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, m := newSettlementService()

	wager := activeWager(11, "home", "20.00", "2.00")

	m.wagerRepo.On("MarkSettled", ctx, int64(11), entities.OutcomeWon).Return(nil)
	m.accountRepo.On("AdjustBalance", ctx, int64(1), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("40.00"))
	})).Return(decimal.RequireFromString("120.00"), nil)
	m.historyRepo.On("Record", ctx, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
		return h.TransactionType == entities.TransactionTypeWagerPayout &&
			h.BalanceBefore.Equal(decimal.RequireFromString("80.00")) &&
			h.BalanceAfter.Equal(decimal.RequireFromString("120.00")) &&
			*h.RelatedID == 11
	})).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.WagerSettledEvent")).Return(nil)

	err := service.SettleWager(ctx, wager, homeWinResult())
	require.NoError(t, err)

	m.assertExpectations(t)
}

func TestSettlementService_SettleWager_Lost(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, m := newSettlementService()

	wager := activeWager(11, "away", "20.00", "3.00")

	m.wagerRepo.On("MarkSettled", ctx, int64(11), entities.OutcomeLost).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.WagerSettledEvent")).Return(nil)

	err := service.SettleWager(ctx, wager, homeWinResult())
	require.NoError(t, err)

	// A lost wager moves no money: the stake was taken at placement.
	m.accountRepo.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	m.historyRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestSettlementService_SettleWager_PushRefundsStake(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, m := newSettlementService()

	line := decimal.RequireFromString("3")
	wager := activeWager(11, "over", "20.00", "1.67")
	wager.Market = entities.MarketOverUnder
	wager.Line = &line

	m.wagerRepo.On("MarkSettled", ctx, int64(11), entities.OutcomePush).Return(nil)
	m.accountRepo.On("AdjustBalance", ctx, int64(1), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("20.00"))
	})).Return(decimal.RequireFromString("100.00"), nil)
	m.historyRepo.On("Record", ctx, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
		return h.TransactionType == entities.TransactionTypeWagerRefund
	})).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.WagerSettledEvent")).Return(nil)

	err := service.SettleWager(ctx, wager, homeWinResult())
	require.NoError(t, err)

	m.assertExpectations(t)
}

func TestSettlementService_SettleWager_RedeliveryIsHarmless(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, m := newSettlementService()

	settled := activeWager(11, "home", "20.00", "2.00")
	settled.State = entities.WagerStateSettled

	err := service.SettleWager(ctx, settled, homeWinResult())
	require.NoError(t, err)

	m.wagerRepo.AssertNotCalled(t, "MarkSettled", mock.Anything, mock.Anything, mock.Anything)
	m.accountRepo.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestSettlementService_SettleWager_LostRace(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, m := newSettlementService()

	wager := activeWager(11, "home", "20.00", "2.00")
	// Another worker settled first: the guard fails, no payout here.
	m.wagerRepo.On("MarkSettled", ctx, int64(11), entities.OutcomeWon).Return(entities.ErrInvalidStateTransition)

	err := service.SettleWager(ctx, wager, homeWinResult())
	assert.ErrorIs(t, err, entities.ErrInvalidStateTransition)

	m.accountRepo.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestSettlementService_SettleWager_ResolverErrorKeepsWagerActive(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, m := newSettlementService()

	wager := activeWager(11, "home", "20.00", "2.00")
	wager.Market = entities.MarketFirstHalfWinner

	// Result without a half-time score cannot resolve a first-half market.
	err := service.SettleWager(ctx, wager, homeWinResult())
	assert.ErrorIs(t, err, entities.ErrValidation)

	m.wagerRepo.AssertNotCalled(t, "MarkSettled", mock.Anything, mock.Anything, mock.Anything)
	m.accountRepo.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestSettlementService_SettleWager_ZeroStakeLegRecordsNoLedgerEntry(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, m := newSettlementService()

	parlayID := int64(21)
	leg := activeWager(12, "home", "0", "2.00")
	leg.ParlayID = &parlayID

	m.wagerRepo.On("MarkSettled", ctx, int64(12), entities.OutcomeWon).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.WagerSettledEvent")).Return(nil)

	err := service.SettleWager(ctx, leg, homeWinResult())
	require.NoError(t, err)

	// Zero payout on a leg: money moves only when the parlay settles.
	m.accountRepo.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	m.historyRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func settledLeg(id int64, parlayID int64, outcome entities.WagerOutcome) *entities.Wager {
	return &entities.Wager{
		ID:        id,
		AccountID: 1,
		ParlayID:  &parlayID,
		Stake:     decimal.Zero,
		State:     entities.WagerStateSettled,
		Outcome:   &outcome,
	}
}

func TestSettlementService_SettleParlay_AllLegsWon(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, m := newSettlementService()

	parlay := &entities.Parlay{
		ID:              21,
		AccountID:       1,
		Stake:           decimal.RequireFromString("10.00"),
		CombinedPrice:   decimal.RequireFromString("3.00"),
		PotentialPayout: decimal.RequireFromString("30.00"),
		State:           entities.WagerStateActive,
	}
	m.parlayRepo.On("GetByID", ctx, int64(21)).Return(parlay, nil)
	m.wagerRepo.On("GetByParlay", ctx, int64(21)).Return([]*entities.Wager{
		settledLeg(11, 21, entities.OutcomeWon),
		settledLeg(12, 21, entities.OutcomeWon),
	}, nil)
	m.parlayRepo.On("MarkSettled", ctx, int64(21), entities.OutcomeWon).Return(nil)
	m.accountRepo.On("AdjustBalance", ctx, int64(1), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("30.00"))
	})).Return(decimal.RequireFromString("120.00"), nil)
	m.historyRepo.On("Record", ctx, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
		return h.TransactionType == entities.TransactionTypeParlayPayout && *h.RelatedID == 21
	})).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.ParlaySettledEvent")).Return(nil)

	err := service.SettleParlay(ctx, 21)
	require.NoError(t, err)

	m.assertExpectations(t)
}

func TestSettlementService_SettleParlay_AnyLostLegLosesParlay(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, m := newSettlementService()

	parlay := &entities.Parlay{
		ID:              21,
		AccountID:       1,
		Stake:           decimal.RequireFromString("10.00"),
		PotentialPayout: decimal.RequireFromString("30.00"),
		State:           entities.WagerStateActive,
	}
	m.parlayRepo.On("GetByID", ctx, int64(21)).Return(parlay, nil)
	m.wagerRepo.On("GetByParlay", ctx, int64(21)).Return([]*entities.Wager{
		settledLeg(11, 21, entities.OutcomeWon),
		settledLeg(12, 21, entities.OutcomeLost),
	}, nil)
	m.parlayRepo.On("MarkSettled", ctx, int64(21), entities.OutcomeLost).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.ParlaySettledEvent")).Return(nil)

	err := service.SettleParlay(ctx, 21)
	require.NoError(t, err)

	m.accountRepo.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestSettlementService_SettleParlay_PushedLegRefundsStake(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, m := newSettlementService()

	parlay := &entities.Parlay{
		ID:              21,
		AccountID:       1,
		Stake:           decimal.RequireFromString("10.00"),
		PotentialPayout: decimal.RequireFromString("30.00"),
		State:           entities.WagerStateActive,
	}
	m.parlayRepo.On("GetByID", ctx, int64(21)).Return(parlay, nil)
	m.wagerRepo.On("GetByParlay", ctx, int64(21)).Return([]*entities.Wager{
		settledLeg(11, 21, entities.OutcomeWon),
		settledLeg(12, 21, entities.OutcomePush),
	}, nil)
	m.parlayRepo.On("MarkSettled", ctx, int64(21), entities.OutcomePush).Return(nil)
	m.accountRepo.On("AdjustBalance", ctx, int64(1), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("10.00"))
	})).Return(decimal.RequireFromString("100.00"), nil)
	m.historyRepo.On("Record", ctx, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
		return h.TransactionType == entities.TransactionTypeParlayRefund
	})).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.ParlaySettledEvent")).Return(nil)

	err := service.SettleParlay(ctx, 21)
	require.NoError(t, err)

	m.assertExpectations(t)
}

func TestSettlementService_SettleParlay_PushedLegDropsOutWhenRecalculating(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.ParlayPartialRefund = false
	config.SetTestConfig(cfg)
	defer config.ResetConfig()

	ctx := context.Background()
	service, m := newSettlementService()

	parlay := &entities.Parlay{
		ID:              21,
		AccountID:       1,
		Stake:           decimal.RequireFromString("10.00"),
		CombinedPrice:   decimal.RequireFromString("3.34"),
		PotentialPayout: decimal.RequireFromString("33.40"),
		State:           entities.WagerStateActive,
	}
	wonLeg := settledLeg(11, 21, entities.OutcomeWon)
	wonLeg.LockedPrice = decimal.RequireFromString("2.00")
	pushedLeg := settledLeg(12, 21, entities.OutcomePush)
	pushedLeg.LockedPrice = decimal.RequireFromString("1.67")

	m.parlayRepo.On("GetByID", ctx, int64(21)).Return(parlay, nil)
	m.wagerRepo.On("GetByParlay", ctx, int64(21)).Return([]*entities.Wager{wonLeg, pushedLeg}, nil)

	// The pushed leg contributes a factor of 1.00: payout is 10.00 x 2.00.
	m.parlayRepo.On("MarkSettled", ctx, int64(21), entities.OutcomeWon).Return(nil)
	m.accountRepo.On("AdjustBalance", ctx, int64(1), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("20.00"))
	})).Return(decimal.RequireFromString("110.00"), nil)
	m.historyRepo.On("Record", ctx, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
		return h.TransactionType == entities.TransactionTypeParlayPayout
	})).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.ParlaySettledEvent")).Return(nil)

	err := service.SettleParlay(ctx, 21)
	require.NoError(t, err)

	m.assertExpectations(t)
}

func TestSettlementService_SettleParlay_WaitsForAllLegs(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, m := newSettlementService()

	parlay := &entities.Parlay{
		ID:        21,
		AccountID: 1,
		Stake:     decimal.RequireFromString("10.00"),
		State:     entities.WagerStateActive,
	}
	openLeg := settledLeg(12, 21, entities.OutcomeWon)
	openLeg.State = entities.WagerStateActive
	openLeg.Outcome = nil

	m.parlayRepo.On("GetByID", ctx, int64(21)).Return(parlay, nil)
	m.wagerRepo.On("GetByParlay", ctx, int64(21)).Return([]*entities.Wager{
		settledLeg(11, 21, entities.OutcomeWon),
		openLeg,
	}, nil)

	err := service.SettleParlay(ctx, 21)
	require.NoError(t, err)

	m.parlayRepo.AssertNotCalled(t, "MarkSettled", mock.Anything, mock.Anything, mock.Anything)
	m.accountRepo.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestSettlementService_SettleParlay_AlreadySettled(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, m := newSettlementService()

	outcome := entities.OutcomeWon
	parlay := &entities.Parlay{
		ID:      21,
		State:   entities.WagerStateSettled,
		Outcome: &outcome,
	}
	m.parlayRepo.On("GetByID", ctx, int64(21)).Return(parlay, nil)

	err := service.SettleParlay(ctx, 21)
	require.NoError(t, err)

	m.wagerRepo.AssertNotCalled(t, "GetByParlay", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}
