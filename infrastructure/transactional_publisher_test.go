package infrastructure

import (
	"context"
	"testing"

	"bookmaker/domain/events"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type recordingPublisher struct {
	published []events.Event
}

func (p *recordingPublisher) Publish(event events.Event) error {
	p.published = append(p.published, event)
	return nil
}

func TestTransactionalPublisher_HoldsEventsUntilFlush(t *testing.T) {
	real := &recordingPublisher{}
	publisher := NewTransactionalPublisher(real)

	event := events.WagerPlacedEvent{
		WagerID:   1,
		AccountID: 2,
		Stake:     decimal.RequireFromString("10.00"),
	}
	assert.NoError(t, publisher.Publish(event))
	assert.Empty(t, real.published, "nothing goes out before flush")

	publisher.Flush(context.Background())
	assert.Len(t, real.published, 1)
	assert.Equal(t, events.EventTypeWagerPlaced, real.published[0].Type())

	// A second flush does not republish
	publisher.Flush(context.Background())
	assert.Len(t, real.published, 1)
}

func TestTransactionalPublisher_DiscardDropsPendingEvents(t *testing.T) {
	real := &recordingPublisher{}
	publisher := NewTransactionalPublisher(real)

	assert.NoError(t, publisher.Publish(events.WagerCancelledEvent{WagerID: 1}))
	publisher.Discard()

	publisher.Flush(context.Background())
	assert.Empty(t, real.published)
}

func TestNoopEventPublisher_SwallowsEverything(t *testing.T) {
	publisher := NewNoopEventPublisher()
	assert.NoError(t, publisher.Publish(events.WagerPlacedEvent{WagerID: 1}))
}
