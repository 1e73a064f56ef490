package services

import (
	"context"
	"fmt"

	"bookmaker/config"
	"bookmaker/domain/entities"
	"bookmaker/domain/events"
	"bookmaker/domain/interfaces"
	"bookmaker/domain/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// TreasuryService runs the deposit/withdrawal request workflow. Deposits
// credit the balance on approval; withdrawals reserve funds at request time
// and release the reservation exactly once on rejection or cancellation.
type TreasuryService struct {
	accountRepo  interfaces.AccountRepository
	treasuryRepo interfaces.TreasuryRepository
	historyRepo  interfaces.BalanceHistoryRepository
	publisher    interfaces.EventPublisher
}

// NewTreasuryService creates a new treasury service.
func NewTreasuryService(accountRepo interfaces.AccountRepository, treasuryRepo interfaces.TreasuryRepository, historyRepo interfaces.BalanceHistoryRepository, publisher interfaces.EventPublisher) *TreasuryService {
	return &TreasuryService{
		accountRepo:  accountRepo,
		treasuryRepo: treasuryRepo,
		historyRepo:  historyRepo,
		publisher:    publisher,
	}
}

// RequestDeposit creates a pending deposit request. The balance is not
// touched until an admin approves.
func (s *TreasuryService) RequestDeposit(ctx context.Context, accountID int64, amount decimal.Decimal, method, proof string) (*entities.TreasuryRequest, error) {
	cfg := config.Get()
	if amount.LessThan(cfg.MinDeposit) {
		return nil, fmt.Errorf("%w: deposit %s below minimum %s", entities.ErrValidation, amount, cfg.MinDeposit)
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	request := &entities.TreasuryRequest{
		Reference:  uuid.New().String(),
		AccountID:  account.ID,
		Type:       entities.TreasuryDeposit,
		Amount:     amount,
		Commission: decimal.Zero,
		NetAmount:  amount,
		Method:     method,
		Proof:      proof,
		State:      entities.TreasuryStatePending,
	}
	if err := s.treasuryRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create deposit request: %w", err)
	}

	s.publishCreated(request)
	return request, nil
}

// ApproveDeposit credits the account and completes the request. Fails with
// no side effect if the request is not pending.
func (s *TreasuryService) ApproveDeposit(ctx context.Context, requestID, adminID int64, notes string) error {
	request, err := s.getRequest(ctx, requestID, entities.TreasuryDeposit)
	if err != nil {
		return err
	}

	if err := s.treasuryRepo.MarkProcessed(ctx, request.ID, entities.TreasuryStateCompleted, &adminID, notes); err != nil {
		return fmt.Errorf("failed to approve deposit %d: %w", request.ID, err)
	}

	if err := s.applyBalanceEffect(ctx, request, request.Amount, entities.TransactionTypeDeposit); err != nil {
		return err
	}

	s.publishProcessed(request, adminID, true, notes)
	return nil
}

// RejectDeposit rejects a pending deposit. No balance effect: none was
// applied at request time.
func (s *TreasuryService) RejectDeposit(ctx context.Context, requestID, adminID int64, reason string) error {
	request, err := s.getRequest(ctx, requestID, entities.TreasuryDeposit)
	if err != nil {
		return err
	}

	if err := s.treasuryRepo.MarkProcessed(ctx, request.ID, entities.TreasuryStateRejected, &adminID, reason); err != nil {
		return fmt.Errorf("failed to reject deposit %d: %w", request.ID, err)
	}

	s.publishProcessed(request, adminID, false, reason)
	return nil
}

// RequestWithdrawal reserves the requested amount immediately by debiting
// the account, computes the commission, and creates a pending request.
func (s *TreasuryService) RequestWithdrawal(ctx context.Context, accountID int64, amount decimal.Decimal, method, destination string) (*entities.TreasuryRequest, error) {
	cfg := config.Get()
	if amount.LessThan(cfg.MinWithdrawal) {
		return nil, fmt.Errorf("%w: withdrawal %s below minimum %s", entities.ErrValidation, amount, cfg.MinWithdrawal)
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	// Reservation: the debit is atomic, so two concurrent withdrawals can
	// never both succeed against the same funds.
	newBalance, err := s.accountRepo.AdjustBalance(ctx, account.ID, amount.Neg())
	if err != nil {
		return nil, fmt.Errorf("failed to reserve withdrawal funds: %w", err)
	}

	commission := amount.Mul(cfg.CommissionRate).Round(2)
	request := &entities.TreasuryRequest{
		Reference:   uuid.New().String(),
		AccountID:   account.ID,
		Type:        entities.TreasuryWithdrawal,
		Amount:      amount,
		Commission:  commission,
		NetAmount:   amount.Sub(commission),
		Method:      method,
		Destination: destination,
		State:       entities.TreasuryStatePending,
	}
	if err := s.treasuryRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}

	history := &entities.BalanceHistory{
		AccountID:       account.ID,
		BalanceBefore:   newBalance.Add(amount),
		BalanceAfter:    newBalance,
		ChangeAmount:    amount.Neg(),
		TransactionType: entities.TransactionTypeWithdrawalReserve,
		RelatedID:       &request.ID,
		RelatedType:     utils.RelatedTypePtr(entities.RelatedTypeTreasury),
	}
	if err := utils.RecordBalanceChange(ctx, s.historyRepo, s.publisher, history); err != nil {
		return nil, fmt.Errorf("failed to record withdrawal reservation: %w", err)
	}

	s.publishCreated(request)
	return request, nil
}

// ApproveWithdrawal completes a pending withdrawal. The funds were already
// reserved at request time, so there is no further balance effect.
func (s *TreasuryService) ApproveWithdrawal(ctx context.Context, requestID, adminID int64, reference string) error {
	request, err := s.getRequest(ctx, requestID, entities.TreasuryWithdrawal)
	if err != nil {
		return err
	}

	if err := s.treasuryRepo.MarkProcessed(ctx, request.ID, entities.TreasuryStateCompleted, &adminID, reference); err != nil {
		return fmt.Errorf("failed to approve withdrawal %d: %w", request.ID, err)
	}

	s.publishProcessed(request, adminID, true, reference)
	return nil
}

// RejectWithdrawal rejects a pending withdrawal and releases the full
// reserved amount back to the account.
func (s *TreasuryService) RejectWithdrawal(ctx context.Context, requestID, adminID int64, reason string) error {
	request, err := s.getRequest(ctx, requestID, entities.TreasuryWithdrawal)
	if err != nil {
		return err
	}

	if err := s.treasuryRepo.MarkProcessed(ctx, request.ID, entities.TreasuryStateRejected, &adminID, reason); err != nil {
		return fmt.Errorf("failed to reject withdrawal %d: %w", request.ID, err)
	}

	if err := s.applyBalanceEffect(ctx, request, request.Amount, entities.TransactionTypeWithdrawalRelease); err != nil {
		return err
	}

	s.publishProcessed(request, adminID, false, reason)
	return nil
}

// CancelWithdrawal lets the account holder withdraw their own pending
// request, releasing the reservation.
func (s *TreasuryService) CancelWithdrawal(ctx context.Context, requestID, accountID int64) error {
	request, err := s.getRequest(ctx, requestID, entities.TreasuryWithdrawal)
	if err != nil {
		return err
	}
	if request.AccountID != accountID {
		return fmt.Errorf("%w: request %d does not belong to account %d", entities.ErrValidation, requestID, accountID)
	}

	if err := s.treasuryRepo.MarkProcessed(ctx, request.ID, entities.TreasuryStateCancelled, nil, "cancelled by account holder"); err != nil {
		return fmt.Errorf("failed to cancel withdrawal %d: %w", request.ID, err)
	}

	if err := s.applyBalanceEffect(ctx, request, request.Amount, entities.TransactionTypeWithdrawalRelease); err != nil {
		return err
	}

	if err := s.publisher.Publish(events.TreasuryRequestRejectedEvent{
		RequestID:   request.ID,
		AccountID:   request.AccountID,
		RequestType: request.Type,
		Reason:      "cancelled by account holder",
	}); err != nil {
		log.WithError(err).Warn("Failed to publish treasury event")
	}
	return nil
}

// PendingRequests returns the admin approval queue for one request type.
func (s *TreasuryService) PendingRequests(ctx context.Context, requestType entities.TreasuryRequestType, limit int) ([]*entities.TreasuryRequest, error) {
	requests, err := s.treasuryRepo.ListByState(ctx, requestType, entities.TreasuryStatePending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	return requests, nil
}

func (s *TreasuryService) getRequest(ctx context.Context, requestID int64, want entities.TreasuryRequestType) (*entities.TreasuryRequest, error) {
	request, err := s.treasuryRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get treasury request: %w", err)
	}
	if request.Type != want {
		return nil, fmt.Errorf("%w: request %d is a %s, not a %s", entities.ErrValidation, requestID, request.Type, want)
	}
	return request, nil
}

func (s *TreasuryService) applyBalanceEffect(ctx context.Context, request *entities.TreasuryRequest, credit decimal.Decimal, txType entities.TransactionType) error {
	newBalance, err := s.accountRepo.AdjustBalance(ctx, request.AccountID, credit)
	if err != nil {
		return fmt.Errorf("failed to credit account %d: %w", request.AccountID, err)
	}

	history := &entities.BalanceHistory{
		AccountID:       request.AccountID,
		BalanceBefore:   newBalance.Sub(credit),
		BalanceAfter:    newBalance,
		ChangeAmount:    credit,
		TransactionType: txType,
		RelatedID:       &request.ID,
		RelatedType:     utils.RelatedTypePtr(entities.RelatedTypeTreasury),
	}
	if err := utils.RecordBalanceChange(ctx, s.historyRepo, s.publisher, history); err != nil {
		return fmt.Errorf("failed to record treasury balance change: %w", err)
	}
	return nil
}

func (s *TreasuryService) publishCreated(request *entities.TreasuryRequest) {
	if err := s.publisher.Publish(events.TreasuryRequestCreatedEvent{
		RequestID:   request.ID,
		Reference:   request.Reference,
		AccountID:   request.AccountID,
		RequestType: request.Type,
		Amount:      request.Amount,
	}); err != nil {
		log.WithError(err).Warn("Failed to publish treasury event")
	}
}

func (s *TreasuryService) publishProcessed(request *entities.TreasuryRequest, adminID int64, approved bool, notes string) {
	var event events.Event
	if approved {
		event = events.TreasuryRequestApprovedEvent{
			RequestID:   request.ID,
			AccountID:   request.AccountID,
			RequestType: request.Type,
			AdminID:     adminID,
		}
	} else {
		event = events.TreasuryRequestRejectedEvent{
			RequestID:   request.ID,
			AccountID:   request.AccountID,
			RequestType: request.Type,
			Reason:      notes,
		}
	}
	if err := s.publisher.Publish(event); err != nil {
		log.WithError(err).Warn("Failed to publish treasury event")
	}
}
