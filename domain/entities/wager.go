package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// WagerState is the lifecycle state of a wager or parlay.
type WagerState string

const (
	WagerStateActive    WagerState = "active"
	WagerStateSettled   WagerState = "settled"
	WagerStateCancelled WagerState = "cancelled"
)

// WagerOutcome is the final result once a wager or parlay is settled.
type WagerOutcome string

const (
	OutcomeWon       WagerOutcome = "won"
	OutcomeLost      WagerOutcome = "lost"
	OutcomePush      WagerOutcome = "push"
	OutcomeCancelled WagerOutcome = "cancelled"
)

// Wager is a single staked bet on one market selection. The price is locked
// at placement time and never changes, even if the quote is superseded.
// Parlay legs are zero-stake wagers pointing at their parent; stake and
// payout accounting lives on the parlay row.
type Wager struct {
	ID              int64            `db:"id"`
	AccountID       int64            `db:"account_id"`
	MatchID         int64            `db:"match_id"`
	QuoteID         int64            `db:"quote_id"`
	ParlayID        *int64           `db:"parlay_id"`
	Market          MarketType       `db:"market"`
	Selection       string           `db:"selection"`
	Line            *decimal.Decimal `db:"line"`
	Stake           decimal.Decimal  `db:"stake"`
	LockedPrice     decimal.Decimal  `db:"locked_price"`
	PotentialPayout decimal.Decimal  `db:"potential_payout"`
	State           WagerState       `db:"state"`
	Outcome         *WagerOutcome    `db:"outcome"`
	CreatedAt       time.Time        `db:"created_at"`
	SettledAt       *time.Time       `db:"settled_at"`
}

// IsActive reports whether the wager can still be settled or cancelled.
func (w *Wager) IsActive() bool {
	return w.State == WagerStateActive
}

// IsParlayLeg reports whether this wager is a child leg of a parlay.
func (w *Wager) IsParlayLeg() bool {
	return w.ParlayID != nil
}
