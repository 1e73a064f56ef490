package application

import (
	"context"
	"fmt"

	"bookmaker/domain/entities"
	"bookmaker/domain/services"

	"github.com/shopspring/decimal"
)

// WagerOperations runs each wager command in a single unit of work, so the
// stake debit, the wager rows, the quote counters and the ledger entry commit
// together or not at all. A failure after the debit rolls the debit back.
type WagerOperations struct {
	uowFactory UnitOfWorkFactory
}

// NewWagerOperations creates a new wager operations facade
func NewWagerOperations(uowFactory UnitOfWorkFactory) *WagerOperations {
	return &WagerOperations{uowFactory: uowFactory}
}

// PlaceWager places a single bet atomically.
func (o *WagerOperations) PlaceWager(ctx context.Context, accountID, quoteID int64, stake decimal.Decimal) (*entities.Wager, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wager, err := o.service(uow).PlaceWager(ctx, accountID, quoteID, stake)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit wager placement: %w", err)
	}
	return wager, nil
}

// PlaceParlay places a combined bet atomically.
func (o *WagerOperations) PlaceParlay(ctx context.Context, accountID int64, quoteIDs []int64, stake decimal.Decimal) (*entities.Parlay, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	parlay, err := o.service(uow).PlaceParlay(ctx, accountID, quoteIDs, stake)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit parlay placement: %w", err)
	}
	return parlay, nil
}

// CancelWager cancels a pre-match wager and refunds the stake atomically.
func (o *WagerOperations) CancelWager(ctx context.Context, wagerID, accountID int64) error {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := o.service(uow).CancelWager(ctx, wagerID, accountID); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit wager cancellation: %w", err)
	}
	return nil
}

// WagerHistory returns an account's wagers, newest first.
func (o *WagerOperations) WagerHistory(ctx context.Context, accountID int64, limit int) ([]*entities.Wager, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return o.service(uow).WagerHistory(ctx, accountID, limit)
}

// ParlayHistory returns an account's parlays, newest first.
func (o *WagerOperations) ParlayHistory(ctx context.Context, accountID int64, limit int) ([]*entities.Parlay, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return o.service(uow).ParlayHistory(ctx, accountID, limit)
}

func (o *WagerOperations) service(uow UnitOfWork) *services.WagerService {
	return services.NewWagerService(
		uow.AccountRepository(),
		uow.QuoteRepository(),
		uow.WagerRepository(),
		uow.ParlayRepository(),
		uow.BalanceHistoryRepository(),
		uow.EventBus(),
	)
}
