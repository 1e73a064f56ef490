package events

import (
	"bookmaker/domain/entities"

	"github.com/shopspring/decimal"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange           EventType = "balance_change"
	EventTypeQuotePublished          EventType = "quote_published"
	EventTypeWagerPlaced             EventType = "wager_placed"
	EventTypeWagerCancelled          EventType = "wager_cancelled"
	EventTypeWagerSettled            EventType = "wager_settled"
	EventTypeParlayPlaced            EventType = "parlay_placed"
	EventTypeParlaySettled           EventType = "parlay_settled"
	EventTypeTreasuryRequestCreated  EventType = "treasury_request_created"
	EventTypeTreasuryRequestApproved EventType = "treasury_request_approved"
	EventTypeTreasuryRequestRejected EventType = "treasury_request_rejected"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	AccountID       int64                    `json:"account_id"`
	OldBalance      decimal.Decimal          `json:"old_balance"`
	NewBalance      decimal.Decimal          `json:"new_balance"`
	ChangeAmount    decimal.Decimal          `json:"change_amount"`
	TransactionType entities.TransactionType `json:"transaction_type"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// QuotePublishedEvent represents a new market quote going live
type QuotePublishedEvent struct {
	QuoteID   int64               `json:"quote_id"`
	MatchID   int64               `json:"match_id"`
	Market    entities.MarketType `json:"market"`
	Selection string              `json:"selection"`
	Price     decimal.Decimal     `json:"price"`
}

func (e QuotePublishedEvent) Type() EventType {
	return EventTypeQuotePublished
}

// WagerPlacedEvent represents a wager that was placed
type WagerPlacedEvent struct {
	WagerID         int64           `json:"wager_id"`
	AccountID       int64           `json:"account_id"`
	MatchID         int64           `json:"match_id"`
	Stake           decimal.Decimal `json:"stake"`
	LockedPrice     decimal.Decimal `json:"locked_price"`
	PotentialPayout decimal.Decimal `json:"potential_payout"`
}

func (e WagerPlacedEvent) Type() EventType {
	return EventTypeWagerPlaced
}

// WagerCancelledEvent represents a wager cancelled before match start
type WagerCancelledEvent struct {
	WagerID   int64           `json:"wager_id"`
	AccountID int64           `json:"account_id"`
	Refund    decimal.Decimal `json:"refund"`
}

func (e WagerCancelledEvent) Type() EventType {
	return EventTypeWagerCancelled
}

// WagerSettledEvent represents a settled wager
type WagerSettledEvent struct {
	WagerID   int64                 `json:"wager_id"`
	AccountID int64                 `json:"account_id"`
	Outcome   entities.WagerOutcome `json:"outcome"`
	Credited  decimal.Decimal       `json:"credited"`
}

func (e WagerSettledEvent) Type() EventType {
	return EventTypeWagerSettled
}

// ParlayPlacedEvent represents a parlay that was placed
type ParlayPlacedEvent struct {
	ParlayID      int64           `json:"parlay_id"`
	AccountID     int64           `json:"account_id"`
	Legs          int             `json:"legs"`
	Stake         decimal.Decimal `json:"stake"`
	CombinedPrice decimal.Decimal `json:"combined_price"`
}

func (e ParlayPlacedEvent) Type() EventType {
	return EventTypeParlayPlaced
}

// ParlaySettledEvent represents a settled parlay
type ParlaySettledEvent struct {
	ParlayID  int64                 `json:"parlay_id"`
	AccountID int64                 `json:"account_id"`
	Outcome   entities.WagerOutcome `json:"outcome"`
	Credited  decimal.Decimal       `json:"credited"`
}

func (e ParlaySettledEvent) Type() EventType {
	return EventTypeParlaySettled
}

// TreasuryRequestCreatedEvent represents a new deposit or withdrawal request
type TreasuryRequestCreatedEvent struct {
	RequestID   int64                        `json:"request_id"`
	Reference   string                       `json:"reference"`
	AccountID   int64                        `json:"account_id"`
	RequestType entities.TreasuryRequestType `json:"request_type"`
	Amount      decimal.Decimal              `json:"amount"`
}

func (e TreasuryRequestCreatedEvent) Type() EventType {
	return EventTypeTreasuryRequestCreated
}

// TreasuryRequestApprovedEvent represents an approved request
type TreasuryRequestApprovedEvent struct {
	RequestID   int64                        `json:"request_id"`
	AccountID   int64                        `json:"account_id"`
	RequestType entities.TreasuryRequestType `json:"request_type"`
	AdminID     int64                        `json:"admin_id"`
}

func (e TreasuryRequestApprovedEvent) Type() EventType {
	return EventTypeTreasuryRequestApproved
}

// TreasuryRequestRejectedEvent represents a rejected or cancelled request
type TreasuryRequestRejectedEvent struct {
	RequestID   int64                        `json:"request_id"`
	AccountID   int64                        `json:"account_id"`
	RequestType entities.TreasuryRequestType `json:"request_type"`
	Reason      string                       `json:"reason"`
}

func (e TreasuryRequestRejectedEvent) Type() EventType {
	return EventTypeTreasuryRequestRejected
}
