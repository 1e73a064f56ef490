package application

import (
	"context"
	"fmt"

	"bookmaker/domain/entities"
	"bookmaker/domain/services"

	"github.com/shopspring/decimal"
)

// TreasuryOperations runs each treasury command in a single unit of work.
// The state transition and its balance effect commit together, so an approved
// deposit can never credit without completing and a rejected withdrawal can
// never complete without releasing the reservation.
type TreasuryOperations struct {
	uowFactory UnitOfWorkFactory
}

// NewTreasuryOperations creates a new treasury operations facade
func NewTreasuryOperations(uowFactory UnitOfWorkFactory) *TreasuryOperations {
	return &TreasuryOperations{uowFactory: uowFactory}
}

// RequestDeposit creates a pending deposit request.
func (o *TreasuryOperations) RequestDeposit(ctx context.Context, accountID int64, amount decimal.Decimal, method, proof string) (*entities.TreasuryRequest, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	request, err := o.service(uow).RequestDeposit(ctx, accountID, amount, method, proof)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit deposit request: %w", err)
	}
	return request, nil
}

// ApproveDeposit completes a pending deposit and credits the account.
func (o *TreasuryOperations) ApproveDeposit(ctx context.Context, requestID, adminID int64, notes string) error {
	return o.run(ctx, func(svc *services.TreasuryService) error {
		return svc.ApproveDeposit(ctx, requestID, adminID, notes)
	})
}

// RejectDeposit rejects a pending deposit.
func (o *TreasuryOperations) RejectDeposit(ctx context.Context, requestID, adminID int64, reason string) error {
	return o.run(ctx, func(svc *services.TreasuryService) error {
		return svc.RejectDeposit(ctx, requestID, adminID, reason)
	})
}

// RequestWithdrawal reserves the funds and creates a pending withdrawal.
func (o *TreasuryOperations) RequestWithdrawal(ctx context.Context, accountID int64, amount decimal.Decimal, method, destination string) (*entities.TreasuryRequest, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	request, err := o.service(uow).RequestWithdrawal(ctx, accountID, amount, method, destination)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit withdrawal request: %w", err)
	}
	return request, nil
}

// ApproveWithdrawal completes a pending withdrawal.
func (o *TreasuryOperations) ApproveWithdrawal(ctx context.Context, requestID, adminID int64, reference string) error {
	return o.run(ctx, func(svc *services.TreasuryService) error {
		return svc.ApproveWithdrawal(ctx, requestID, adminID, reference)
	})
}

// RejectWithdrawal rejects a pending withdrawal and releases the reservation.
func (o *TreasuryOperations) RejectWithdrawal(ctx context.Context, requestID, adminID int64, reason string) error {
	return o.run(ctx, func(svc *services.TreasuryService) error {
		return svc.RejectWithdrawal(ctx, requestID, adminID, reason)
	})
}

// CancelWithdrawal lets the account holder cancel their own pending request.
func (o *TreasuryOperations) CancelWithdrawal(ctx context.Context, requestID, accountID int64) error {
	return o.run(ctx, func(svc *services.TreasuryService) error {
		return svc.CancelWithdrawal(ctx, requestID, accountID)
	})
}

// PendingRequests returns the admin approval queue for one request type.
func (o *TreasuryOperations) PendingRequests(ctx context.Context, requestType entities.TreasuryRequestType, limit int) ([]*entities.TreasuryRequest, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return o.service(uow).PendingRequests(ctx, requestType, limit)
}

// run wraps one treasury command in a unit of work.
func (o *TreasuryOperations) run(ctx context.Context, command func(*services.TreasuryService) error) error {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := command(o.service(uow)); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit treasury operation: %w", err)
	}
	return nil
}

func (o *TreasuryOperations) service(uow UnitOfWork) *services.TreasuryService {
	return services.NewTreasuryService(
		uow.AccountRepository(),
		uow.TreasuryRepository(),
		uow.BalanceHistoryRepository(),
		uow.EventBus(),
	)
}
