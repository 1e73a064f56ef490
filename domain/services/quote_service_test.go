package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookmaker/config"
	"bookmaker/domain/entities"
	"bookmaker/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQuoteService_PublishQuotes_SupersedesOldQuotes(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	quoteRepo := new(testhelpers.MockQuoteRepository)
	cache := new(testhelpers.MockQuoteCache)
	publisher := new(testhelpers.MockEventPublisher)
	service := NewQuoteService(quoteRepo, cache, publisher)

	quote := &entities.MarketQuote{
		MatchID:       42,
		Market:        entities.MarketMatchWinner,
		Selection:     "home",
		Price:         decimal.RequireFromString("1.67"),
		Active:        true,
		MatchStartsAt: time.Now().Add(time.Hour),
	}

	quoteRepo.On("Deactivate", ctx, int64(42), entities.MarketMatchWinner, "home", (*decimal.Decimal)(nil)).Return(nil)
	quoteRepo.On("Create", ctx, quote).Return(nil)
	publisher.On("Publish", mock.AnythingOfType("events.QuotePublishedEvent")).Return(nil)
	cache.On("InvalidateMatch", ctx, int64(42)).Return(nil)

	err := service.PublishQuotes(ctx, []*entities.MarketQuote{quote})
	require.NoError(t, err)

	quoteRepo.AssertExpectations(t)
	cache.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestQuoteService_PublishQuotes_AlternateLinesCoexist(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	quoteRepo := new(testhelpers.MockQuoteRepository)
	cache := new(testhelpers.MockQuoteCache)
	publisher := new(testhelpers.MockEventPublisher)
	service := NewQuoteService(quoteRepo, cache, publisher)

	baseline := decimal.RequireFromString("2.5")
	alternate := decimal.RequireFromString("3.5")
	overAt := func(line decimal.Decimal) *entities.MarketQuote {
		return &entities.MarketQuote{
			MatchID:       42,
			Market:        entities.MarketOverUnder,
			Selection:     "over",
			Line:          &line,
			Price:         decimal.RequireFromString("1.67"),
			Active:        true,
			MatchStartsAt: time.Now().Add(time.Hour),
		}
	}

	// Each line supersedes only its own predecessors
	quoteRepo.On("Deactivate", ctx, int64(42), entities.MarketOverUnder, "over", &baseline).Return(nil).Once()
	quoteRepo.On("Deactivate", ctx, int64(42), entities.MarketOverUnder, "over", &alternate).Return(nil).Once()
	quoteRepo.On("Create", ctx, mock.AnythingOfType("*entities.MarketQuote")).Return(nil).Times(2)
	publisher.On("Publish", mock.AnythingOfType("events.QuotePublishedEvent")).Return(nil).Times(2)
	cache.On("InvalidateMatch", ctx, int64(42)).Return(nil)

	err := service.PublishQuotes(ctx, []*entities.MarketQuote{overAt(baseline), overAt(alternate)})
	require.NoError(t, err)

	quoteRepo.AssertExpectations(t)
	quoteRepo.AssertNotCalled(t, "Deactivate", ctx, int64(42), entities.MarketOverUnder, "over", (*decimal.Decimal)(nil))
}

func TestQuoteService_ActiveQuotesForMatch_CacheHit(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	quoteRepo := new(testhelpers.MockQuoteRepository)
	cache := new(testhelpers.MockQuoteCache)
	publisher := new(testhelpers.MockEventPublisher)
	service := NewQuoteService(quoteRepo, cache, publisher)

	cached := []*entities.MarketQuote{{ID: 5, MatchID: 42}}
	cache.On("GetActiveByMatch", ctx, int64(42)).Return(cached, nil)

	quotes, err := service.ActiveQuotesForMatch(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, cached, quotes)

	quoteRepo.AssertNotCalled(t, "GetActiveByMatch", mock.Anything, mock.Anything)
}

func TestQuoteService_ActiveQuotesForMatch_CacheFailureFallsThrough(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	quoteRepo := new(testhelpers.MockQuoteRepository)
	cache := new(testhelpers.MockQuoteCache)
	publisher := new(testhelpers.MockEventPublisher)
	service := NewQuoteService(quoteRepo, cache, publisher)

	stored := []*entities.MarketQuote{{ID: 5, MatchID: 42}}
	cache.On("GetActiveByMatch", ctx, int64(42)).Return(nil, errors.New("redis down"))
	quoteRepo.On("GetActiveByMatch", ctx, int64(42)).Return(stored, nil)
	cache.On("SetActiveByMatch", ctx, int64(42), stored).Return(errors.New("redis down"))

	quotes, err := service.ActiveQuotesForMatch(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, stored, quotes)

	quoteRepo.AssertExpectations(t)
	cache.AssertExpectations(t)
}
