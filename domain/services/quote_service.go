package services

import (
	"context"
	"fmt"

	"bookmaker/domain/entities"
	"bookmaker/domain/events"
	"bookmaker/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// QuoteService publishes and serves market quotes. Publishing deactivates
// any quote it supersedes; reads go through the cache.
type QuoteService struct {
	quoteRepo interfaces.QuoteRepository
	cache     interfaces.QuoteCache
	publisher interfaces.EventPublisher
}

// NewQuoteService creates a new quote service.
func NewQuoteService(quoteRepo interfaces.QuoteRepository, cache interfaces.QuoteCache, publisher interfaces.EventPublisher) *QuoteService {
	return &QuoteService{
		quoteRepo: quoteRepo,
		cache:     cache,
		publisher: publisher,
	}
}

// PublishQuotes stores freshly priced quotes, retiring the quotes they
// replace, and announces each one.
func (s *QuoteService) PublishQuotes(ctx context.Context, quotes []*entities.MarketQuote) error {
	for _, quote := range quotes {
		if err := s.quoteRepo.Deactivate(ctx, quote.MatchID, quote.Market, quote.Selection, quote.Line); err != nil {
			return fmt.Errorf("failed to deactivate superseded quotes: %w", err)
		}
		if err := s.quoteRepo.Create(ctx, quote); err != nil {
			return fmt.Errorf("failed to create quote: %w", err)
		}

		if err := s.publisher.Publish(events.QuotePublishedEvent{
			QuoteID:   quote.ID,
			MatchID:   quote.MatchID,
			Market:    quote.Market,
			Selection: quote.Selection,
			Price:     quote.Price,
		}); err != nil {
			log.WithError(err).Warn("Failed to publish quote event")
		}
	}

	if len(quotes) > 0 {
		if err := s.cache.InvalidateMatch(ctx, quotes[0].MatchID); err != nil {
			log.WithError(err).Warn("Failed to invalidate quote cache")
		}
	}
	return nil
}

// ActiveQuotesForMatch returns the live quote board for a match, reading
// through the cache.
func (s *QuoteService) ActiveQuotesForMatch(ctx context.Context, matchID int64) ([]*entities.MarketQuote, error) {
	cached, err := s.cache.GetActiveByMatch(ctx, matchID)
	if err != nil {
		log.WithError(err).WithField("matchID", matchID).Warn("Quote cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	quotes, err := s.quoteRepo.GetActiveByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active quotes: %w", err)
	}

	if err := s.cache.SetActiveByMatch(ctx, matchID, quotes); err != nil {
		log.WithError(err).WithField("matchID", matchID).Warn("Quote cache write failed")
	}
	return quotes, nil
}
