package testhelpers

import (
	"context"

	"bookmaker/domain/entities"
	"bookmaker/domain/events"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*entities.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, ownerRef string, initialBalance decimal.Decimal) (*entities.Account, error) {
	args := m.Called(ctx, ownerRef, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, id, delta)
	if args.Get(0) == nil {
		return decimal.Zero, args.Error(1)
	}
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockQuoteRepository is a mock implementation of QuoteRepository
type MockQuoteRepository struct {
	mock.Mock
}

func (m *MockQuoteRepository) Create(ctx context.Context, quote *entities.MarketQuote) error {
	args := m.Called(ctx, quote)
	return args.Error(0)
}

func (m *MockQuoteRepository) GetByID(ctx context.Context, id int64) (*entities.MarketQuote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MarketQuote), args.Error(1)
}

func (m *MockQuoteRepository) GetActiveByMatch(ctx context.Context, matchID int64) ([]*entities.MarketQuote, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.MarketQuote), args.Error(1)
}

func (m *MockQuoteRepository) Deactivate(ctx context.Context, matchID int64, market entities.MarketType, selection string, line *decimal.Decimal) error {
	args := m.Called(ctx, matchID, market, selection, line)
	return args.Error(0)
}

func (m *MockQuoteRepository) IncrementCounters(ctx context.Context, quoteID int64, stake decimal.Decimal) error {
	args := m.Called(ctx, quoteID, stake)
	return args.Error(0)
}

// MockWagerRepository is a mock implementation of WagerRepository
type MockWagerRepository struct {
	mock.Mock
}

func (m *MockWagerRepository) Create(ctx context.Context, wager *entities.Wager) error {
	args := m.Called(ctx, wager)
	return args.Error(0)
}

func (m *MockWagerRepository) GetByID(ctx context.Context, id int64) (*entities.Wager, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetActiveByMatch(ctx context.Context, matchID int64) ([]*entities.Wager, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetByParlay(ctx context.Context, parlayID int64) ([]*entities.Wager, error) {
	args := m.Called(ctx, parlayID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetAllByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.Wager, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) MarkSettled(ctx context.Context, id int64, outcome entities.WagerOutcome) error {
	args := m.Called(ctx, id, outcome)
	return args.Error(0)
}

func (m *MockWagerRepository) MarkCancelled(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockParlayRepository is a mock implementation of ParlayRepository
type MockParlayRepository struct {
	mock.Mock
}

func (m *MockParlayRepository) Create(ctx context.Context, parlay *entities.Parlay) error {
	args := m.Called(ctx, parlay)
	return args.Error(0)
}

func (m *MockParlayRepository) GetByID(ctx context.Context, id int64) (*entities.Parlay, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Parlay), args.Error(1)
}

func (m *MockParlayRepository) GetAllByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.Parlay, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Parlay), args.Error(1)
}

func (m *MockParlayRepository) MarkSettled(ctx context.Context, id int64, outcome entities.WagerOutcome) error {
	args := m.Called(ctx, id, outcome)
	return args.Error(0)
}

// MockTreasuryRepository is a mock implementation of TreasuryRepository
type MockTreasuryRepository struct {
	mock.Mock
}

func (m *MockTreasuryRepository) Create(ctx context.Context, request *entities.TreasuryRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockTreasuryRepository) GetByID(ctx context.Context, id int64) (*entities.TreasuryRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TreasuryRequest), args.Error(1)
}

func (m *MockTreasuryRepository) ListByState(ctx context.Context, requestType entities.TreasuryRequestType, state entities.TreasuryRequestState, limit int) ([]*entities.TreasuryRequest, error) {
	args := m.Called(ctx, requestType, state, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.TreasuryRequest), args.Error(1)
}

func (m *MockTreasuryRepository) MarkProcessed(ctx context.Context, id int64, state entities.TreasuryRequestState, adminID *int64, notes string) error {
	args := m.Called(ctx, id, state, adminID, notes)
	return args.Error(0)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.BalanceHistory, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BalanceHistory), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockQuoteCache is a mock implementation of QuoteCache
type MockQuoteCache struct {
	mock.Mock
}

func (m *MockQuoteCache) GetActiveByMatch(ctx context.Context, matchID int64) ([]*entities.MarketQuote, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.MarketQuote), args.Error(1)
}

func (m *MockQuoteCache) SetActiveByMatch(ctx context.Context, matchID int64, quotes []*entities.MarketQuote) error {
	args := m.Called(ctx, matchID, quotes)
	return args.Error(0)
}

func (m *MockQuoteCache) InvalidateMatch(ctx context.Context, matchID int64) error {
	args := m.Called(ctx, matchID)
	return args.Error(0)
}
