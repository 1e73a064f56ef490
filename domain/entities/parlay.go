package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Parlay is a combined bet across two or more legs. Its combined price is the
// product of the leg prices; the payout is released only once every leg has
// been individually resolved.
type Parlay struct {
	ID              int64           `db:"id"`
	AccountID       int64           `db:"account_id"`
	Stake           decimal.Decimal `db:"stake"`
	CombinedPrice   decimal.Decimal `db:"combined_price"`
	PotentialPayout decimal.Decimal `db:"potential_payout"`
	State           WagerState      `db:"state"`
	Outcome         *WagerOutcome   `db:"outcome"`
	CreatedAt       time.Time       `db:"created_at"`
	SettledAt       *time.Time      `db:"settled_at"`
}

// IsActive reports whether the parlay is still awaiting settlement.
func (p *Parlay) IsActive() bool {
	return p.State == WagerStateActive
}

// AllLegsSettled reports whether every leg has left the active state.
func AllLegsSettled(legs []*Wager) bool {
	for _, leg := range legs {
		if leg.IsActive() {
			return false
		}
	}
	return len(legs) > 0
}

// ParlayOutcomeFromLegs derives the parlay outcome from fully settled legs.
// Any lost leg loses the parlay. All legs won wins it. A mix of won and push
// legs with none lost is a push: stake is refunded without profit.
func ParlayOutcomeFromLegs(legs []*Wager) WagerOutcome {
	allWon := true
	for _, leg := range legs {
		if leg.Outcome == nil {
			continue
		}
		switch *leg.Outcome {
		case OutcomeLost:
			return OutcomeLost
		case OutcomeWon:
		default:
			allWon = false
		}
	}
	if allWon {
		return OutcomeWon
	}
	return OutcomePush
}
