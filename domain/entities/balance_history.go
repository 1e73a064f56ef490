package entities

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// RelatedType names the entity a balance change originated from.
type RelatedType string

const (
	RelatedTypeWager    RelatedType = "wager"
	RelatedTypeParlay   RelatedType = "parlay"
	RelatedTypeTreasury RelatedType = "treasury_request"
)

// BalanceHistory is one row of the account ledger. Every balance mutation in
// the system records exactly one entry, which makes money conservation
// auditable: summing change amounts per account reproduces the balance.
type BalanceHistory struct {
	ID              int64           `db:"id"`
	AccountID       int64           `db:"account_id"`
	BalanceBefore   decimal.Decimal `db:"balance_before"`
	BalanceAfter    decimal.Decimal `db:"balance_after"`
	ChangeAmount    decimal.Decimal `db:"change_amount"`
	TransactionType TransactionType `db:"transaction_type"`
	RelatedID       *int64          `db:"related_id"`
	RelatedType     *RelatedType    `db:"related_type"`
	CreatedAt       time.Time       `db:"created_at"`
}

// Validate checks the entry is internally consistent.
func (bh *BalanceHistory) Validate() error {
	if bh.ChangeAmount.IsZero() {
		return errors.New("change amount cannot be zero")
	}
	if !bh.BalanceAfter.Equal(bh.BalanceBefore.Add(bh.ChangeAmount)) {
		return errors.New("balance calculation is inconsistent")
	}
	return nil
}

// IsPositiveChange returns true if the change amount is positive.
func (bh *BalanceHistory) IsPositiveChange() bool {
	return bh.ChangeAmount.IsPositive()
}
