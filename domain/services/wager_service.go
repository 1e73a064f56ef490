package services

import (
	"context"
	"fmt"
	"time"

	"bookmaker/config"
	"bookmaker/domain/entities"
	"bookmaker/domain/events"
	"bookmaker/domain/interfaces"
	"bookmaker/domain/utils"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// WagerService orchestrates single-bet and parlay placement and
// cancellation. Prices are snapshotted from the quote at placement time and
// never change afterwards.
type WagerService struct {
	accountRepo interfaces.AccountRepository
	quoteRepo   interfaces.QuoteRepository
	wagerRepo   interfaces.WagerRepository
	parlayRepo  interfaces.ParlayRepository
	historyRepo interfaces.BalanceHistoryRepository
	publisher   interfaces.EventPublisher
}

// NewWagerService creates a new wager service.
func NewWagerService(accountRepo interfaces.AccountRepository, quoteRepo interfaces.QuoteRepository, wagerRepo interfaces.WagerRepository, parlayRepo interfaces.ParlayRepository, historyRepo interfaces.BalanceHistoryRepository, publisher interfaces.EventPublisher) *WagerService {
	return &WagerService{
		accountRepo: accountRepo,
		quoteRepo:   quoteRepo,
		wagerRepo:   wagerRepo,
		parlayRepo:  parlayRepo,
		historyRepo: historyRepo,
		publisher:   publisher,
	}
}

// PlaceWager validates the stake and quote, debits the account once, and
// creates an active wager with the price locked.
func (s *WagerService) PlaceWager(ctx context.Context, accountID, quoteID int64, stake decimal.Decimal) (*entities.Wager, error) {
	if err := s.validateStake(stake); err != nil {
		return nil, err
	}

	quote, err := s.sellableQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	// Atomic debit: concurrent placements against the same account cannot
	// both succeed past the balance.
	newBalance, err := s.accountRepo.AdjustBalance(ctx, accountID, stake.Neg())
	if err != nil {
		return nil, fmt.Errorf("failed to debit stake: %w", err)
	}

	wager := &entities.Wager{
		AccountID:       accountID,
		MatchID:         quote.MatchID,
		QuoteID:         quote.ID,
		Market:          quote.Market,
		Selection:       quote.Selection,
		Line:            quote.Line,
		Stake:           stake,
		LockedPrice:     quote.Price,
		PotentialPayout: stake.Mul(quote.Price).Round(2),
		State:           entities.WagerStateActive,
	}
	if err := s.wagerRepo.Create(ctx, wager); err != nil {
		return nil, fmt.Errorf("failed to create wager: %w", err)
	}

	if err := s.quoteRepo.IncrementCounters(ctx, quote.ID, stake); err != nil {
		return nil, fmt.Errorf("failed to update quote counters: %w", err)
	}

	history := &entities.BalanceHistory{
		AccountID:       accountID,
		BalanceBefore:   newBalance.Add(stake),
		BalanceAfter:    newBalance,
		ChangeAmount:    stake.Neg(),
		TransactionType: entities.TransactionTypeWagerStake,
		RelatedID:       &wager.ID,
		RelatedType:     utils.RelatedTypePtr(entities.RelatedTypeWager),
	}
	if err := utils.RecordBalanceChange(ctx, s.historyRepo, s.publisher, history); err != nil {
		return nil, fmt.Errorf("failed to record stake: %w", err)
	}

	if err := s.publisher.Publish(events.WagerPlacedEvent{
		WagerID:         wager.ID,
		AccountID:       accountID,
		MatchID:         wager.MatchID,
		Stake:           stake,
		LockedPrice:     wager.LockedPrice,
		PotentialPayout: wager.PotentialPayout,
	}); err != nil {
		log.WithError(err).Warn("Failed to publish wager placed event")
	}

	return wager, nil
}

// PlaceParlay places a combined bet over two or more quotes. The combined
// price is the product of the leg prices; the account is debited once for
// the parlay stake and each leg is created as a zero-stake child wager.
func (s *WagerService) PlaceParlay(ctx context.Context, accountID int64, quoteIDs []int64, stake decimal.Decimal) (*entities.Parlay, error) {
	cfg := config.Get()
	if len(quoteIDs) < 2 {
		return nil, fmt.Errorf("%w: a parlay needs at least 2 legs", entities.ErrValidation)
	}
	if len(quoteIDs) > cfg.MaxParlayLegs {
		return nil, fmt.Errorf("%w: a parlay cannot exceed %d legs", entities.ErrValidation, cfg.MaxParlayLegs)
	}
	if err := s.validateStake(stake); err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(quoteIDs))
	quotes := make([]*entities.MarketQuote, 0, len(quoteIDs))
	combined := decimal.NewFromInt(1)
	for _, quoteID := range quoteIDs {
		if seen[quoteID] {
			return nil, fmt.Errorf("%w: duplicate parlay leg for quote %d", entities.ErrValidation, quoteID)
		}
		seen[quoteID] = true

		quote, err := s.sellableQuote(ctx, quoteID)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, quote)
		combined = combined.Mul(quote.Price)
	}
	combined = combined.Round(2)

	newBalance, err := s.accountRepo.AdjustBalance(ctx, accountID, stake.Neg())
	if err != nil {
		return nil, fmt.Errorf("failed to debit parlay stake: %w", err)
	}

	parlay := &entities.Parlay{
		AccountID:       accountID,
		Stake:           stake,
		CombinedPrice:   combined,
		PotentialPayout: stake.Mul(combined).Round(2),
		State:           entities.WagerStateActive,
	}
	if err := s.parlayRepo.Create(ctx, parlay); err != nil {
		return nil, fmt.Errorf("failed to create parlay: %w", err)
	}

	for _, quote := range quotes {
		leg := &entities.Wager{
			AccountID:       accountID,
			MatchID:         quote.MatchID,
			QuoteID:         quote.ID,
			ParlayID:        &parlay.ID,
			Market:          quote.Market,
			Selection:       quote.Selection,
			Line:            quote.Line,
			Stake:           decimal.Zero,
			LockedPrice:     quote.Price,
			PotentialPayout: decimal.Zero,
			State:           entities.WagerStateActive,
		}
		if err := s.wagerRepo.Create(ctx, leg); err != nil {
			return nil, fmt.Errorf("failed to create parlay leg: %w", err)
		}
		if err := s.quoteRepo.IncrementCounters(ctx, quote.ID, decimal.Zero); err != nil {
			return nil, fmt.Errorf("failed to update quote counters: %w", err)
		}
	}

	history := &entities.BalanceHistory{
		AccountID:       accountID,
		BalanceBefore:   newBalance.Add(stake),
		BalanceAfter:    newBalance,
		ChangeAmount:    stake.Neg(),
		TransactionType: entities.TransactionTypeParlayStake,
		RelatedID:       &parlay.ID,
		RelatedType:     utils.RelatedTypePtr(entities.RelatedTypeParlay),
	}
	if err := utils.RecordBalanceChange(ctx, s.historyRepo, s.publisher, history); err != nil {
		return nil, fmt.Errorf("failed to record parlay stake: %w", err)
	}

	if err := s.publisher.Publish(events.ParlayPlacedEvent{
		ParlayID:      parlay.ID,
		AccountID:     accountID,
		Legs:          len(quotes),
		Stake:         stake,
		CombinedPrice: combined,
	}); err != nil {
		log.WithError(err).Warn("Failed to publish parlay placed event")
	}

	return parlay, nil
}

// CancelWager refunds the stake of an active wager whose match has not
// started. Parlay legs cannot be cancelled individually.
func (s *WagerService) CancelWager(ctx context.Context, wagerID, accountID int64) error {
	wager, err := s.wagerRepo.GetByID(ctx, wagerID)
	if err != nil {
		return fmt.Errorf("failed to get wager: %w", err)
	}
	if wager.AccountID != accountID {
		return fmt.Errorf("%w: wager %d does not belong to account %d", entities.ErrValidation, wagerID, accountID)
	}
	if wager.IsParlayLeg() {
		return fmt.Errorf("%w: parlay legs cannot be cancelled individually", entities.ErrValidation)
	}

	quote, err := s.quoteRepo.GetByID(ctx, wager.QuoteID)
	if err != nil {
		return fmt.Errorf("failed to get quote: %w", err)
	}
	if !time.Now().Before(quote.MatchStartsAt) {
		return fmt.Errorf("%w: match has already started", entities.ErrValidation)
	}

	// Guarded transition first: a settled or already cancelled wager fails
	// here and no refund is applied.
	if err := s.wagerRepo.MarkCancelled(ctx, wager.ID); err != nil {
		return fmt.Errorf("failed to cancel wager %d: %w", wager.ID, err)
	}

	newBalance, err := s.accountRepo.AdjustBalance(ctx, accountID, wager.Stake)
	if err != nil {
		return fmt.Errorf("failed to refund stake: %w", err)
	}

	history := &entities.BalanceHistory{
		AccountID:       accountID,
		BalanceBefore:   newBalance.Sub(wager.Stake),
		BalanceAfter:    newBalance,
		ChangeAmount:    wager.Stake,
		TransactionType: entities.TransactionTypeWagerRefund,
		RelatedID:       &wager.ID,
		RelatedType:     utils.RelatedTypePtr(entities.RelatedTypeWager),
	}
	if err := utils.RecordBalanceChange(ctx, s.historyRepo, s.publisher, history); err != nil {
		return fmt.Errorf("failed to record refund: %w", err)
	}

	if err := s.publisher.Publish(events.WagerCancelledEvent{
		WagerID:   wager.ID,
		AccountID: accountID,
		Refund:    wager.Stake,
	}); err != nil {
		log.WithError(err).Warn("Failed to publish wager cancelled event")
	}

	return nil
}

// WagerHistory returns an account's wagers, newest first.
func (s *WagerService) WagerHistory(ctx context.Context, accountID int64, limit int) ([]*entities.Wager, error) {
	wagers, err := s.wagerRepo.GetAllByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get wager history: %w", err)
	}
	return wagers, nil
}

// ParlayHistory returns an account's parlays, newest first.
func (s *WagerService) ParlayHistory(ctx context.Context, accountID int64, limit int) ([]*entities.Parlay, error) {
	parlays, err := s.parlayRepo.GetAllByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get parlay history: %w", err)
	}
	return parlays, nil
}

func (s *WagerService) validateStake(stake decimal.Decimal) error {
	cfg := config.Get()
	if stake.LessThan(cfg.MinStake) || stake.GreaterThan(cfg.MaxStake) {
		return fmt.Errorf("%w: stake %s outside [%s, %s]", entities.ErrValidation, stake, cfg.MinStake, cfg.MaxStake)
	}
	return nil
}

func (s *WagerService) sellableQuote(ctx context.Context, quoteID int64) (*entities.MarketQuote, error) {
	quote, err := s.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	if !quote.IsOpenForBetting(time.Now()) {
		return nil, fmt.Errorf("%w: quote %d is closed for betting", entities.ErrValidation, quoteID)
	}
	return quote, nil
}
