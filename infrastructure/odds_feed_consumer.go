package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookmaker/domain/entities"
	"bookmaker/domain/services"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// oddsFeedMessage is one pricing estimate for an upcoming match.
type oddsFeedMessage struct {
	MatchID       int64           `json:"match_id"`
	StartsAt      time.Time       `json:"starts_at"`
	ProbHome      float64         `json:"p_home"`
	ProbDraw      float64         `json:"p_draw"`
	ProbAway      float64         `json:"p_away"`
	ExpectedGoals decimal.Decimal `json:"expected_goals"`
}

// OddsFeedConsumer turns upstream probability estimates into published
// quotes. Each estimate supersedes the previous quotes for the same
// selections; wagers already placed keep their locked prices.
type OddsFeedConsumer struct {
	natsClient *NATSClient
	subject    string
	limiter    RateLimiter
	engine     *services.OddsEngine
	quotes     *services.QuoteService
}

// NewOddsFeedConsumer creates a new odds feed consumer
func NewOddsFeedConsumer(natsClient *NATSClient, subject string, limiter RateLimiter, engine *services.OddsEngine, quotes *services.QuoteService) *OddsFeedConsumer {
	return &OddsFeedConsumer{
		natsClient: natsClient,
		subject:    subject,
		limiter:    limiter,
		engine:     engine,
		quotes:     quotes,
	}
}

// Start subscribes to the odds feed subject
func (c *OddsFeedConsumer) Start(ctx context.Context) error {
	err := c.natsClient.Subscribe(c.subject, func(data []byte) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter interrupted: %w", err)
		}

		var msg oddsFeedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.WithError(err).Error("Dropping malformed odds estimate")
			return nil
		}
		if msg.MatchID == 0 || msg.StartsAt.IsZero() {
			log.Error("Dropping odds estimate without match ID or start time")
			return nil
		}

		return c.publishQuotes(ctx, &msg)
	})
	if err != nil {
		return fmt.Errorf("failed to start odds feed consumer: %w", err)
	}

	return nil
}

func (c *OddsFeedConsumer) publishQuotes(ctx context.Context, msg *oddsFeedMessage) error {
	quotes, err := c.engine.MatchWinnerQuotes(msg.MatchID, msg.StartsAt, msg.ProbHome, msg.ProbDraw, msg.ProbAway)
	if err != nil {
		return fmt.Errorf("failed to price match winner quotes for match %d: %w", msg.MatchID, err)
	}

	if msg.ExpectedGoals.IsPositive() {
		overUnder, err := c.engine.OverUnderQuotes(msg.MatchID, msg.StartsAt, entities.MarketOverUnder, msg.ExpectedGoals)
		if err != nil {
			return fmt.Errorf("failed to price over/under quotes for match %d: %w", msg.MatchID, err)
		}
		quotes = append(quotes, overUnder...)
	}

	if err := c.quotes.PublishQuotes(ctx, quotes); err != nil {
		return fmt.Errorf("failed to publish quotes for match %d: %w", msg.MatchID, err)
	}

	log.WithFields(log.Fields{
		"matchID": msg.MatchID,
		"quotes":  len(quotes),
	}).Info("Published quotes from odds estimate")
	return nil
}
