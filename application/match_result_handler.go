package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bookmaker/domain/entities"
	"bookmaker/domain/services"
	"bookmaker/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// MatchResultHandler settles everything riding on a match when its final
// result arrives. Each wager settles in its own unit of work, so one bad
// wager never blocks the rest, and a crash mid-batch leaves the remainder
// active for the next delivery.
type MatchResultHandler struct {
	uowFactory UnitOfWorkFactory
	resolver   *services.OutcomeResolver
	workers    int
}

// NewMatchResultHandler creates a new match result handler
func NewMatchResultHandler(uowFactory UnitOfWorkFactory, resolver *services.OutcomeResolver, workers int) *MatchResultHandler {
	if workers < 1 {
		workers = 1
	}
	return &MatchResultHandler{
		uowFactory: uowFactory,
		resolver:   resolver,
		workers:    workers,
	}
}

// HandleMatchResult settles all active wagers on the match, then any parlays
// whose last open leg just settled. Safe to call repeatedly with the same
// result.
func (h *MatchResultHandler) HandleMatchResult(ctx context.Context, result *entities.MatchResult) error {
	observability.MatchResultsConsumed.Inc()

	wagerIDs, err := h.activeWagerIDs(ctx, result.MatchID)
	if err != nil {
		return err
	}
	if len(wagerIDs) == 0 {
		log.WithField("matchID", result.MatchID).Debug("No active wagers for match")
		return nil
	}

	log.WithFields(log.Fields{
		"matchID": result.MatchID,
		"wagers":  len(wagerIDs),
	}).Info("Settling wagers for match result")

	parlayIDs := h.settleWagers(ctx, wagerIDs, result)

	for parlayID := range parlayIDs {
		if err := h.settleParlay(ctx, parlayID); err != nil {
			observability.SettlementErrors.Inc()
			log.WithFields(log.Fields{
				"parlayID": parlayID,
				"error":    err,
			}).Error("Failed to settle parlay")
		}
	}

	return nil
}

// activeWagerIDs snapshots the IDs of wagers to settle in a short read-only
// transaction.
func (h *MatchResultHandler) activeWagerIDs(ctx context.Context, matchID int64) ([]int64, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wagers, err := uow.WagerRepository().GetActiveByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active wagers for match %d: %w", matchID, err)
	}

	ids := make([]int64, 0, len(wagers))
	for _, wager := range wagers {
		ids = append(ids, wager.ID)
	}
	return ids, nil
}

// settleWagers fans the wager IDs out over the worker pool and returns the
// set of parlays touched by settled legs.
func (h *MatchResultHandler) settleWagers(ctx context.Context, wagerIDs []int64, result *entities.MatchResult) map[int64]struct{} {
	jobs := make(chan int64)
	var mu sync.Mutex
	parlayIDs := make(map[int64]struct{})

	var wg sync.WaitGroup
	for i := 0; i < h.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for wagerID := range jobs {
				parlayID, err := h.settleWager(ctx, wagerID, result)
				if err != nil {
					h.recordSettlementFailure(wagerID, err)
					continue
				}
				if parlayID != nil {
					mu.Lock()
					parlayIDs[*parlayID] = struct{}{}
					mu.Unlock()
				}
			}
		}()
	}

	for _, id := range wagerIDs {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	return parlayIDs
}

// settleWager settles one wager in its own unit of work and returns the
// parlay it belongs to, if any.
func (h *MatchResultHandler) settleWager(ctx context.Context, wagerID int64, result *entities.MatchResult) (*int64, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wager, err := uow.WagerRepository().GetByID(ctx, wagerID)
	if err != nil {
		return nil, err
	}

	settlement := services.NewSettlementService(
		uow.AccountRepository(),
		uow.WagerRepository(),
		uow.ParlayRepository(),
		uow.BalanceHistoryRepository(),
		uow.EventBus(),
		h.resolver,
	)
	if err := settlement.SettleWager(ctx, wager, result); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	if wager.Outcome != nil {
		observability.WagersSettled.WithLabelValues(string(*wager.Outcome)).Inc()
	}
	return wager.ParlayID, nil
}

// settleParlay combines the outcome of a parlay whose legs are all settled.
func (h *MatchResultHandler) settleParlay(ctx context.Context, parlayID int64) error {
	before, err := h.loadParlay(ctx, parlayID)
	if err != nil {
		return err
	}
	if !before.IsActive() {
		return nil
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settlement := services.NewSettlementService(
		uow.AccountRepository(),
		uow.WagerRepository(),
		uow.ParlayRepository(),
		uow.BalanceHistoryRepository(),
		uow.EventBus(),
		h.resolver,
	)
	if err := settlement.SettleParlay(ctx, parlayID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit parlay settlement: %w", err)
	}

	if after, err := h.loadParlay(ctx, parlayID); err == nil && after.Outcome != nil {
		observability.ParlaysSettled.WithLabelValues(string(*after.Outcome)).Inc()
	}
	return nil
}

func (h *MatchResultHandler) loadParlay(ctx context.Context, parlayID int64) (*entities.Parlay, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()
	return uow.ParlayRepository().GetByID(ctx, parlayID)
}

func (h *MatchResultHandler) recordSettlementFailure(wagerID int64, err error) {
	// Missing data and unknown markets pause the wager rather than failing
	// it; the next result delivery retries.
	if errors.Is(err, entities.ErrValidation) || errors.Is(err, entities.ErrUnresolvedMarket) {
		observability.SettlementsPaused.Inc()
		log.WithFields(log.Fields{
			"wagerID": wagerID,
			"reason":  err,
		}).Warn("Settlement paused, wager stays active")
		return
	}
	// Losing the settle race to another worker is not a failure.
	if errors.Is(err, entities.ErrInvalidStateTransition) {
		return
	}

	observability.SettlementErrors.Inc()
	log.WithFields(log.Fields{
		"wagerID": wagerID,
		"error":   err,
	}).Error("Failed to settle wager")
}
