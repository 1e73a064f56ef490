package infrastructure

import (
	"fmt"

	"bookmaker/domain/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct {
	prefix string
}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper(prefix string) *EventSubjectMapper {
	return &EventSubjectMapper{prefix: prefix}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeBalanceChange:
		return m.prefix + ".accounts.balance_changed"
	case events.EventTypeQuotePublished:
		return m.prefix + ".quotes.published"
	case events.EventTypeWagerPlaced:
		return m.prefix + ".wagers.placed"
	case events.EventTypeWagerCancelled:
		return m.prefix + ".wagers.cancelled"
	case events.EventTypeWagerSettled:
		return m.prefix + ".wagers.settled"
	case events.EventTypeParlayPlaced:
		return m.prefix + ".parlays.placed"
	case events.EventTypeParlaySettled:
		return m.prefix + ".parlays.settled"
	case events.EventTypeTreasuryRequestCreated:
		return m.prefix + ".treasury.created"
	case events.EventTypeTreasuryRequestApproved:
		return m.prefix + ".treasury.approved"
	case events.EventTypeTreasuryRequestRejected:
		return m.prefix + ".treasury.rejected"
	default:
		return fmt.Sprintf("%s.unknown.%s", m.prefix, event.Type())
	}
}
