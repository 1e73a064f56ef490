package entities

// TransactionType classifies a balance change in the ledger.
type TransactionType string

const (
	// Wager transactions
	TransactionTypeWagerStake  TransactionType = "wager_stake"
	TransactionTypeWagerPayout TransactionType = "wager_payout"
	TransactionTypeWagerRefund TransactionType = "wager_refund"

	// Parlay transactions
	TransactionTypeParlayStake  TransactionType = "parlay_stake"
	TransactionTypeParlayPayout TransactionType = "parlay_payout"
	TransactionTypeParlayRefund TransactionType = "parlay_refund"

	// Treasury transactions
	TransactionTypeDeposit           TransactionType = "deposit"
	TransactionTypeWithdrawalReserve TransactionType = "withdrawal_reserve"
	TransactionTypeWithdrawalRelease TransactionType = "withdrawal_release"
)

// IsCredit returns true if the transaction type adds funds to an account.
func (tt TransactionType) IsCredit() bool {
	switch tt {
	case TransactionTypeWagerPayout, TransactionTypeWagerRefund,
		TransactionTypeParlayPayout, TransactionTypeParlayRefund,
		TransactionTypeDeposit, TransactionTypeWithdrawalRelease:
		return true
	}
	return false
}

// IsDebit returns true if the transaction type removes funds from an account.
func (tt TransactionType) IsDebit() bool {
	switch tt {
	case TransactionTypeWagerStake, TransactionTypeParlayStake,
		TransactionTypeWithdrawalReserve:
		return true
	}
	return false
}

// IsWagerRelated returns true for stake, payout and refund movements.
func (tt TransactionType) IsWagerRelated() bool {
	switch tt {
	case TransactionTypeWagerStake, TransactionTypeWagerPayout, TransactionTypeWagerRefund,
		TransactionTypeParlayStake, TransactionTypeParlayPayout, TransactionTypeParlayRefund:
		return true
	}
	return false
}

// String returns the string representation of the transaction type.
func (tt TransactionType) String() string {
	return string(tt)
}
