package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// TreasuryRequestType distinguishes deposits from withdrawals.
type TreasuryRequestType string

const (
	TreasuryDeposit    TreasuryRequestType = "deposit"
	TreasuryWithdrawal TreasuryRequestType = "withdrawal"
)

// TreasuryRequestState is the approval state machine for a request.
// Requests leave pending exactly once; processing a non-pending request
// fails with ErrInvalidStateTransition and has no side effect.
type TreasuryRequestState string

const (
	TreasuryStatePending   TreasuryRequestState = "pending"
	TreasuryStateCompleted TreasuryRequestState = "completed"
	TreasuryStateRejected  TreasuryRequestState = "rejected"
	TreasuryStateCancelled TreasuryRequestState = "cancelled"
)

// TreasuryRequest is a user-initiated deposit or withdrawal awaiting admin
// dual-control. Deposits credit the balance on approval; withdrawals debit
// it at request time (reservation) and release the reservation exactly once
// on rejection or cancellation.
type TreasuryRequest struct {
	ID          int64                `db:"id"`
	Reference   string               `db:"reference"`
	AccountID   int64                `db:"account_id"`
	Type        TreasuryRequestType  `db:"request_type"`
	Amount      decimal.Decimal      `db:"amount"`
	Commission  decimal.Decimal      `db:"commission"`
	NetAmount   decimal.Decimal      `db:"net_amount"`
	Method      string               `db:"method"`
	Destination string               `db:"destination"`
	Proof       string               `db:"proof"`
	State       TreasuryRequestState `db:"state"`
	AdminID     *int64               `db:"admin_id"`
	AdminNotes  string               `db:"admin_notes"`
	CreatedAt   time.Time            `db:"created_at"`
	ProcessedAt *time.Time           `db:"processed_at"`
}

// IsPending reports whether the request can still be processed.
func (r *TreasuryRequest) IsPending() bool {
	return r.State == TreasuryStatePending
}

// IsWithdrawal reports whether the request reserved funds at creation.
func (r *TreasuryRequest) IsWithdrawal() bool {
	return r.Type == TreasuryWithdrawal
}
