package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds the spendable balance for one user identity. The balance is
// only ever mutated through the treasury and wager services; it can never go
// negative.
type Account struct {
	ID        int64           `db:"id"`
	OwnerRef  string          `db:"owner_ref"`
	Balance   decimal.Decimal `db:"balance"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// CanAfford reports whether the account can cover the given amount.
func (a *Account) CanAfford(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}
