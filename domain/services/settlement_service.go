package services

import (
	"context"
	"fmt"

	"bookmaker/config"
	"bookmaker/domain/entities"
	"bookmaker/domain/events"
	"bookmaker/domain/interfaces"
	"bookmaker/domain/utils"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// SettlementService settles wagers and parlays against final match results.
// The guarded state transition happens before any money moves, so a wager
// pays out at most once no matter how many times the same result is
// delivered.
type SettlementService struct {
	accountRepo interfaces.AccountRepository
	wagerRepo   interfaces.WagerRepository
	parlayRepo  interfaces.ParlayRepository
	historyRepo interfaces.BalanceHistoryRepository
	publisher   interfaces.EventPublisher
	resolver    *OutcomeResolver
}

// NewSettlementService creates a new settlement service.
func NewSettlementService(accountRepo interfaces.AccountRepository, wagerRepo interfaces.WagerRepository, parlayRepo interfaces.ParlayRepository, historyRepo interfaces.BalanceHistoryRepository, publisher interfaces.EventPublisher, resolver *OutcomeResolver) *SettlementService {
	return &SettlementService{
		accountRepo: accountRepo,
		wagerRepo:   wagerRepo,
		parlayRepo:  parlayRepo,
		historyRepo: historyRepo,
		publisher:   publisher,
		resolver:    resolver,
	}
}

// SettleWager resolves one wager against the match result and pays it out.
// Already-settled and cancelled wagers are skipped silently, so redelivered
// results are harmless. A resolver error leaves the wager active for a later
// retry; it never forces an outcome.
func (s *SettlementService) SettleWager(ctx context.Context, wager *entities.Wager, result *entities.MatchResult) error {
	if !wager.IsActive() {
		log.WithFields(log.Fields{
			"wagerID": wager.ID,
			"state":   wager.State,
		}).Debug("Skipping non-active wager")
		return nil
	}

	outcome, err := s.resolver.Resolve(wager.Market, wager.Selection, wager.Line, result)
	if err != nil {
		return fmt.Errorf("failed to resolve wager %d: %w", wager.ID, err)
	}

	// Transition first. If another worker settled this wager between our
	// read and now, the guard fails and no payout is applied.
	if err := s.wagerRepo.MarkSettled(ctx, wager.ID, outcome); err != nil {
		return fmt.Errorf("failed to settle wager %d: %w", wager.ID, err)
	}
	wager.State = entities.WagerStateSettled
	wager.Outcome = &outcome

	payout := s.wagerCredit(wager, outcome)
	if payout.IsPositive() {
		txType := entities.TransactionTypeWagerPayout
		if outcome == entities.OutcomePush {
			txType = entities.TransactionTypeWagerRefund
		}
		if err := s.credit(ctx, wager.AccountID, payout, txType, wager.ID, entities.RelatedTypeWager); err != nil {
			return err
		}
	}

	if err := s.publisher.Publish(events.WagerSettledEvent{
		WagerID:   wager.ID,
		AccountID: wager.AccountID,
		Outcome:   outcome,
		Credited:  payout,
	}); err != nil {
		log.WithError(err).Warn("Failed to publish wager settled event")
	}

	log.WithFields(log.Fields{
		"wagerID":   wager.ID,
		"accountID": wager.AccountID,
		"outcome":   outcome,
		"payout":    payout,
	}).Info("Wager settled")
	return nil
}

// SettleParlay combines the outcomes of a parlay's legs once every leg is
// settled. Any lost leg loses the parlay; all legs won wins it. A mix of won
// and pushed legs follows the configured refund policy: stake back, or a
// recalculated payout with pushed legs dropped. Called after each leg
// settles; a no-op while legs remain open.
func (s *SettlementService) SettleParlay(ctx context.Context, parlayID int64) error {
	parlay, err := s.parlayRepo.GetByID(ctx, parlayID)
	if err != nil {
		return fmt.Errorf("failed to get parlay: %w", err)
	}
	if parlay.State != entities.WagerStateActive {
		return nil
	}

	legs, err := s.wagerRepo.GetByParlay(ctx, parlayID)
	if err != nil {
		return fmt.Errorf("failed to get parlay legs: %w", err)
	}
	if !entities.AllLegsSettled(legs) {
		return nil
	}

	outcome := entities.ParlayOutcomeFromLegs(legs)
	payout := s.parlayCredit(parlay, outcome)
	if outcome == entities.OutcomePush && !config.Get().ParlayPartialRefund {
		// Recalculation policy: pushed legs drop out at price 1.00 and the
		// remaining legs stand as a smaller parlay.
		outcome = entities.OutcomeWon
		payout = parlay.Stake.Mul(wonLegsPrice(legs)).Round(2)
	}

	if err := s.parlayRepo.MarkSettled(ctx, parlay.ID, outcome); err != nil {
		return fmt.Errorf("failed to settle parlay %d: %w", parlay.ID, err)
	}
	parlay.State = entities.WagerStateSettled
	parlay.Outcome = &outcome

	if payout.IsPositive() {
		txType := entities.TransactionTypeParlayPayout
		if outcome == entities.OutcomePush {
			txType = entities.TransactionTypeParlayRefund
		}
		if err := s.credit(ctx, parlay.AccountID, payout, txType, parlay.ID, entities.RelatedTypeParlay); err != nil {
			return err
		}
	}

	if err := s.publisher.Publish(events.ParlaySettledEvent{
		ParlayID:  parlay.ID,
		AccountID: parlay.AccountID,
		Outcome:   outcome,
		Credited:  payout,
	}); err != nil {
		log.WithError(err).Warn("Failed to publish parlay settled event")
	}

	log.WithFields(log.Fields{
		"parlayID":  parlay.ID,
		"accountID": parlay.AccountID,
		"outcome":   outcome,
		"payout":    payout,
	}).Info("Parlay settled")
	return nil
}

func (s *SettlementService) wagerCredit(wager *entities.Wager, outcome entities.WagerOutcome) decimal.Decimal {
	switch outcome {
	case entities.OutcomeWon:
		return wager.PotentialPayout
	case entities.OutcomePush:
		return wager.Stake
	default:
		return decimal.Zero
	}
}

func (s *SettlementService) parlayCredit(parlay *entities.Parlay, outcome entities.WagerOutcome) decimal.Decimal {
	switch outcome {
	case entities.OutcomeWon:
		return parlay.PotentialPayout
	case entities.OutcomePush:
		return parlay.Stake
	default:
		return decimal.Zero
	}
}

// wonLegsPrice is the combined price of the legs that won; pushed legs
// contribute a factor of 1.
func wonLegsPrice(legs []*entities.Wager) decimal.Decimal {
	price := decimal.NewFromInt(1)
	for _, leg := range legs {
		if leg.Outcome != nil && *leg.Outcome == entities.OutcomeWon {
			price = price.Mul(leg.LockedPrice)
		}
	}
	return price
}

func (s *SettlementService) credit(ctx context.Context, accountID int64, amount decimal.Decimal, txType entities.TransactionType, relatedID int64, relatedType entities.RelatedType) error {
	newBalance, err := s.accountRepo.AdjustBalance(ctx, accountID, amount)
	if err != nil {
		return fmt.Errorf("failed to credit payout to account %d: %w", accountID, err)
	}

	history := &entities.BalanceHistory{
		AccountID:       accountID,
		BalanceBefore:   newBalance.Sub(amount),
		BalanceAfter:    newBalance,
		ChangeAmount:    amount,
		TransactionType: txType,
		RelatedID:       &relatedID,
		RelatedType:     utils.RelatedTypePtr(relatedType),
	}
	if err := utils.RecordBalanceChange(ctx, s.historyRepo, s.publisher, history); err != nil {
		return fmt.Errorf("failed to record payout: %w", err)
	}
	return nil
}
