package application

import (
	"context"

	"bookmaker/domain/interfaces"
)

// TransactionalEventPublisher buffers events during a transaction. Flush
// publishes the buffer after a successful commit; Discard drops it on
// rollback so consumers never see events for work that did not happen.
type TransactionalEventPublisher interface {
	interfaces.EventPublisher

	// Flush publishes all buffered events
	Flush(ctx context.Context)

	// Discard drops all buffered events
	Discard()
}

// UnitOfWork defines the interface for transactional repository operations.
// Every repository returned by a unit of work shares one database
// transaction.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters
	AccountRepository() interfaces.AccountRepository
	QuoteRepository() interfaces.QuoteRepository
	WagerRepository() interfaces.WagerRepository
	ParlayRepository() interfaces.ParlayRepository
	TreasuryRepository() interfaces.TreasuryRepository
	BalanceHistoryRepository() interfaces.BalanceHistoryRepository

	// EventBus returns the transaction-scoped event publisher
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
