package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	"bookmaker/domain/entities"

	log "github.com/sirupsen/logrus"
)

// MatchResultHandler processes one final match result.
type MatchResultHandler interface {
	HandleMatchResult(ctx context.Context, result *entities.MatchResult) error
}

// MatchResultConsumer subscribes to the external result feed and hands each
// final result to the settlement handler. Deliveries are rate limited; the
// feed redelivers, and settlement is idempotent, so dropping or retrying a
// message is always safe.
type MatchResultConsumer struct {
	natsClient *NATSClient
	subject    string
	limiter    RateLimiter
	handler    MatchResultHandler
}

// NewMatchResultConsumer creates a new match result consumer
func NewMatchResultConsumer(natsClient *NATSClient, subject string, limiter RateLimiter, handler MatchResultHandler) *MatchResultConsumer {
	return &MatchResultConsumer{
		natsClient: natsClient,
		subject:    subject,
		limiter:    limiter,
		handler:    handler,
	}
}

// Start subscribes to the feed subject. ctx bounds the work done per
// message.
func (c *MatchResultConsumer) Start(ctx context.Context) error {
	err := c.natsClient.Subscribe(c.subject, func(data []byte) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter interrupted: %w", err)
		}

		var result entities.MatchResult
		if err := json.Unmarshal(data, &result); err != nil {
			log.WithError(err).Error("Dropping malformed match result")
			return nil
		}
		if result.MatchID == 0 {
			log.Error("Dropping match result without a match ID")
			return nil
		}

		log.WithFields(log.Fields{
			"matchID":  result.MatchID,
			"fullTime": fmt.Sprintf("%d-%d", result.FullTime.Home, result.FullTime.Away),
		}).Info("Received match result")

		return c.handler.HandleMatchResult(ctx, &result)
	})
	if err != nil {
		return fmt.Errorf("failed to start match result consumer: %w", err)
	}

	return nil
}
