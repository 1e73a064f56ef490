package interfaces

import (
	"context"

	"bookmaker/domain/entities"
	"bookmaker/domain/events"

	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for account balance access.
type AccountRepository interface {
	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, id int64) (*entities.Account, error)

	// Create creates a new account with the initial balance
	Create(ctx context.Context, ownerRef string, initialBalance decimal.Decimal) (*entities.Account, error)

	// AdjustBalance applies delta to the account balance as a single atomic
	// read-modify-write and returns the new balance. A debit that would take
	// the balance negative fails with entities.ErrInsufficientFunds and has
	// no effect.
	AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error)
}

// QuoteRepository defines the interface for market quote access.
type QuoteRepository interface {
	// Create creates a new market quote
	Create(ctx context.Context, quote *entities.MarketQuote) error

	// GetByID retrieves a quote by its ID
	GetByID(ctx context.Context, id int64) (*entities.MarketQuote, error)

	// GetActiveByMatch returns all active quotes for a match
	GetActiveByMatch(ctx context.Context, matchID int64) ([]*entities.MarketQuote, error)

	// Deactivate marks every active quote for the same match, market,
	// selection and line as superseded
	Deactivate(ctx context.Context, matchID int64, market entities.MarketType, selection string, line *decimal.Decimal) error

	// IncrementCounters bumps the wager count and total staked aggregates
	IncrementCounters(ctx context.Context, quoteID int64, stake decimal.Decimal) error
}

// WagerRepository defines the interface for wager data access.
type WagerRepository interface {
	// Create creates a new wager
	Create(ctx context.Context, wager *entities.Wager) error

	// GetByID retrieves a wager by its ID
	GetByID(ctx context.Context, id int64) (*entities.Wager, error)

	// GetActiveByMatch returns all active wagers referencing a match
	GetActiveByMatch(ctx context.Context, matchID int64) ([]*entities.Wager, error)

	// GetByParlay returns all legs of a parlay
	GetByParlay(ctx context.Context, parlayID int64) ([]*entities.Wager, error)

	// GetAllByAccount returns wagers for an account, newest first
	GetAllByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.Wager, error)

	// MarkSettled transitions an active wager to settled with the given
	// outcome. Fails with entities.ErrInvalidStateTransition if the wager is
	// not active, guaranteeing exactly-once settlement.
	MarkSettled(ctx context.Context, id int64, outcome entities.WagerOutcome) error

	// MarkCancelled transitions an active wager to cancelled. Same guard as
	// MarkSettled.
	MarkCancelled(ctx context.Context, id int64) error
}

// ParlayRepository defines the interface for parlay data access.
type ParlayRepository interface {
	// Create creates a new parlay
	Create(ctx context.Context, parlay *entities.Parlay) error

	// GetByID retrieves a parlay by its ID
	GetByID(ctx context.Context, id int64) (*entities.Parlay, error)

	// GetAllByAccount returns parlays for an account, newest first
	GetAllByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.Parlay, error)

	// MarkSettled transitions an active parlay to settled with the given
	// outcome, guarded like WagerRepository.MarkSettled.
	MarkSettled(ctx context.Context, id int64, outcome entities.WagerOutcome) error
}

// TreasuryRepository defines the interface for treasury request access.
type TreasuryRepository interface {
	// Create creates a new pending request
	Create(ctx context.Context, request *entities.TreasuryRequest) error

	// GetByID retrieves a request by its ID
	GetByID(ctx context.Context, id int64) (*entities.TreasuryRequest, error)

	// ListByState returns requests of one type in one state, oldest first
	ListByState(ctx context.Context, requestType entities.TreasuryRequestType, state entities.TreasuryRequestState, limit int) ([]*entities.TreasuryRequest, error)

	// MarkProcessed transitions a pending request to a terminal state and
	// records who processed it. Fails with
	// entities.ErrInvalidStateTransition if the request is not pending.
	MarkProcessed(ctx context.Context, id int64, state entities.TreasuryRequestState, adminID *int64, notes string) error
}

// BalanceHistoryRepository defines the interface for the account ledger.
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *entities.BalanceHistory) error

	// GetByAccount returns ledger entries for an account, newest first
	GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.BalanceHistory, error)
}

// EventPublisher defines the interface for publishing events. Publish
// failures are logged and swallowed by callers; they never roll back a
// ledger operation.
type EventPublisher interface {
	Publish(event events.Event) error
}
