package application

import (
	"context"
	"sync"
	"testing"

	"bookmaker/config"
	"bookmaker/domain/entities"
	"bookmaker/domain/interfaces"
	"bookmaker/domain/services"
	"bookmaker/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeUnitOfWorkFactory hands every unit of work the same set of repository
// mocks and counts commits and rollbacks, so tests can assert that an
// operation ran inside exactly one committed transaction.
type fakeUnitOfWorkFactory struct {
	mu        sync.Mutex
	commits   int
	rollbacks int

	accountRepo  *testhelpers.MockAccountRepository
	quoteRepo    *testhelpers.MockQuoteRepository
	wagerRepo    *testhelpers.MockWagerRepository
	parlayRepo   *testhelpers.MockParlayRepository
	treasuryRepo *testhelpers.MockTreasuryRepository
	historyRepo  *testhelpers.MockBalanceHistoryRepository
	publisher    *testhelpers.MockEventPublisher
}

func newFakeUnitOfWorkFactory() *fakeUnitOfWorkFactory {
	return &fakeUnitOfWorkFactory{
		accountRepo:  new(testhelpers.MockAccountRepository),
		quoteRepo:    new(testhelpers.MockQuoteRepository),
		wagerRepo:    new(testhelpers.MockWagerRepository),
		parlayRepo:   new(testhelpers.MockParlayRepository),
		treasuryRepo: new(testhelpers.MockTreasuryRepository),
		historyRepo:  new(testhelpers.MockBalanceHistoryRepository),
		publisher:    new(testhelpers.MockEventPublisher),
	}
}

func (f *fakeUnitOfWorkFactory) Create() UnitOfWork {
	return &fakeUnitOfWork{factory: f}
}

func (f *fakeUnitOfWorkFactory) commitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits
}

func (f *fakeUnitOfWorkFactory) rollbackCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rollbacks
}

func (f *fakeUnitOfWorkFactory) assertExpectations(t *testing.T) {
	f.accountRepo.AssertExpectations(t)
	f.quoteRepo.AssertExpectations(t)
	f.wagerRepo.AssertExpectations(t)
	f.parlayRepo.AssertExpectations(t)
	f.treasuryRepo.AssertExpectations(t)
	f.historyRepo.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

type fakeUnitOfWork struct {
	factory   *fakeUnitOfWorkFactory
	committed bool
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }

func (u *fakeUnitOfWork) Commit() error {
	u.factory.mu.Lock()
	defer u.factory.mu.Unlock()
	u.factory.commits++
	u.committed = true
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	// The deferred rollback after a successful commit is a no-op, matching
	// the database-backed implementation.
	if u.committed {
		return nil
	}
	u.factory.mu.Lock()
	defer u.factory.mu.Unlock()
	u.factory.rollbacks++
	return nil
}

func (u *fakeUnitOfWork) AccountRepository() interfaces.AccountRepository {
	return u.factory.accountRepo
}

func (u *fakeUnitOfWork) QuoteRepository() interfaces.QuoteRepository {
	return u.factory.quoteRepo
}

func (u *fakeUnitOfWork) WagerRepository() interfaces.WagerRepository {
	return u.factory.wagerRepo
}

func (u *fakeUnitOfWork) ParlayRepository() interfaces.ParlayRepository {
	return u.factory.parlayRepo
}

func (u *fakeUnitOfWork) TreasuryRepository() interfaces.TreasuryRepository {
	return u.factory.treasuryRepo
}

func (u *fakeUnitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	return u.factory.historyRepo
}

func (u *fakeUnitOfWork) EventBus() interfaces.EventPublisher {
	return u.factory.publisher
}

func matchWinnerWager(id int64, selection string) *entities.Wager {
	stake := decimal.RequireFromString("10.00")
	price := decimal.RequireFromString("2.00")
	return &entities.Wager{
		ID:              id,
		AccountID:       1,
		MatchID:         42,
		QuoteID:         5,
		Market:          entities.MarketMatchWinner,
		Selection:       selection,
		Stake:           stake,
		LockedPrice:     price,
		PotentialPayout: stake.Mul(price).Round(2),
		State:           entities.WagerStateActive,
	}
}

func TestMatchResultHandler_SettlesAndCreditsWinner(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	f := newFakeUnitOfWorkFactory()
	handler := NewMatchResultHandler(f, services.NewOutcomeResolver(), 1)

	wager := matchWinnerWager(11, "home")
	f.wagerRepo.On("GetActiveByMatch", ctx, int64(42)).Return([]*entities.Wager{wager}, nil)
	f.wagerRepo.On("GetByID", ctx, int64(11)).Return(wager, nil)
	f.wagerRepo.On("MarkSettled", ctx, int64(11), entities.OutcomeWon).Return(nil)
	f.accountRepo.On("AdjustBalance", ctx, int64(1), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("20.00"))
	})).Return(decimal.RequireFromString("30.00"), nil)
	f.historyRepo.On("Record", ctx, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
		return h.TransactionType == entities.TransactionTypeWagerPayout && *h.RelatedID == 11
	})).Return(nil)
	f.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)
	f.publisher.On("Publish", mock.AnythingOfType("events.WagerSettledEvent")).Return(nil)

	err := handler.HandleMatchResult(ctx, &entities.MatchResult{
		MatchID:  42,
		FullTime: entities.Score{Home: 2, Away: 1},
	})
	require.NoError(t, err)

	// The settlement committed as one transaction; the ID snapshot only reads.
	assert.Equal(t, 1, f.commitCount())
	f.assertExpectations(t)
}

func TestMatchResultHandler_NoActiveWagersIsANoOp(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	f := newFakeUnitOfWorkFactory()
	handler := NewMatchResultHandler(f, services.NewOutcomeResolver(), 1)

	f.wagerRepo.On("GetActiveByMatch", ctx, int64(42)).Return([]*entities.Wager{}, nil)

	err := handler.HandleMatchResult(ctx, &entities.MatchResult{
		MatchID:  42,
		FullTime: entities.Score{Home: 0, Away: 0},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, f.commitCount())
	f.assertExpectations(t)
}

func TestMatchResultHandler_UnresolvableWagerStaysActive(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	f := newFakeUnitOfWorkFactory()
	handler := NewMatchResultHandler(f, services.NewOutcomeResolver(), 1)

	// A first-half market cannot resolve from a result with no half-time
	// score: the wager pauses instead of settling.
	wager := matchWinnerWager(11, "home")
	wager.Market = entities.MarketFirstHalfWinner
	f.wagerRepo.On("GetActiveByMatch", ctx, int64(42)).Return([]*entities.Wager{wager}, nil)
	f.wagerRepo.On("GetByID", ctx, int64(11)).Return(wager, nil)

	err := handler.HandleMatchResult(ctx, &entities.MatchResult{
		MatchID:  42,
		FullTime: entities.Score{Home: 2, Away: 1},
	})
	require.NoError(t, err)

	f.wagerRepo.AssertNotCalled(t, "MarkSettled", mock.Anything, mock.Anything, mock.Anything)
	f.accountRepo.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, f.commitCount())
	f.assertExpectations(t)
}

func TestMatchResultHandler_LostSettleRaceIsNotAFailure(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	f := newFakeUnitOfWorkFactory()
	handler := NewMatchResultHandler(f, services.NewOutcomeResolver(), 1)

	wager := matchWinnerWager(11, "home")
	f.wagerRepo.On("GetActiveByMatch", ctx, int64(42)).Return([]*entities.Wager{wager}, nil)
	f.wagerRepo.On("GetByID", ctx, int64(11)).Return(wager, nil)
	// Another worker settled first.
	f.wagerRepo.On("MarkSettled", ctx, int64(11), entities.OutcomeWon).Return(entities.ErrInvalidStateTransition)

	err := handler.HandleMatchResult(ctx, &entities.MatchResult{
		MatchID:  42,
		FullTime: entities.Score{Home: 2, Away: 1},
	})
	require.NoError(t, err)

	f.accountRepo.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, f.commitCount())
	f.assertExpectations(t)
}

func TestMatchResultHandler_LastLegSettlesParlay(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	f := newFakeUnitOfWorkFactory()
	handler := NewMatchResultHandler(f, services.NewOutcomeResolver(), 1)

	parlayID := int64(7)
	leg := matchWinnerWager(12, "home")
	leg.ParlayID = &parlayID
	leg.Stake = decimal.Zero
	leg.PotentialPayout = decimal.Zero

	wonOutcome := entities.OutcomeWon
	otherLeg := &entities.Wager{
		ID:        13,
		AccountID: 1,
		ParlayID:  &parlayID,
		Stake:     decimal.Zero,
		State:     entities.WagerStateSettled,
		Outcome:   &wonOutcome,
	}
	parlay := &entities.Parlay{
		ID:              parlayID,
		AccountID:       1,
		Stake:           decimal.RequireFromString("10.00"),
		CombinedPrice:   decimal.RequireFromString("3.00"),
		PotentialPayout: decimal.RequireFromString("30.00"),
		State:           entities.WagerStateActive,
	}

	f.wagerRepo.On("GetActiveByMatch", ctx, int64(42)).Return([]*entities.Wager{leg}, nil)
	f.wagerRepo.On("GetByID", ctx, int64(12)).Return(leg, nil)
	f.wagerRepo.On("MarkSettled", ctx, int64(12), entities.OutcomeWon).Return(nil)
	f.publisher.On("Publish", mock.AnythingOfType("events.WagerSettledEvent")).Return(nil)

	f.parlayRepo.On("GetByID", ctx, parlayID).Return(parlay, nil)
	f.wagerRepo.On("GetByParlay", ctx, parlayID).Return([]*entities.Wager{leg, otherLeg}, nil)
	f.parlayRepo.On("MarkSettled", ctx, parlayID, entities.OutcomeWon).Return(nil)
	f.accountRepo.On("AdjustBalance", ctx, int64(1), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("30.00"))
	})).Return(decimal.RequireFromString("130.00"), nil)
	f.historyRepo.On("Record", ctx, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
		return h.TransactionType == entities.TransactionTypeParlayPayout && *h.RelatedID == parlayID
	})).Return(nil)
	f.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)
	f.publisher.On("Publish", mock.AnythingOfType("events.ParlaySettledEvent")).Return(nil)

	err := handler.HandleMatchResult(ctx, &entities.MatchResult{
		MatchID:  42,
		FullTime: entities.Score{Home: 2, Away: 1},
	})
	require.NoError(t, err)

	// One commit for the leg, one for the parlay.
	assert.Equal(t, 2, f.commitCount())
	f.assertExpectations(t)
}
