package testutil

import (
	"time"

	"bookmaker/domain/entities"

	"github.com/shopspring/decimal"
)

// CreateTestAccount creates a test account with a default balance
func CreateTestAccount(ownerRef string) *entities.Account {
	return &entities.Account{
		OwnerRef: ownerRef,
		Balance:  decimal.RequireFromString("1000.00"),
	}
}

// CreateTestAccountWithBalance creates a test account with a specific balance
func CreateTestAccountWithBalance(ownerRef string, balance decimal.Decimal) *entities.Account {
	account := CreateTestAccount(ownerRef)
	account.Balance = balance
	return account
}

// CreateTestQuote creates an active, sellable quote for an upcoming match
func CreateTestQuote(matchID int64, market entities.MarketType, selection string, price string) *entities.MarketQuote {
	return &entities.MarketQuote{
		MatchID:            matchID,
		Market:             market,
		Selection:          selection,
		Price:              decimal.RequireFromString(price),
		ImpliedProbability: 0.5,
		Margin:             0.10,
		Source:             entities.QuoteSourceComputed,
		Active:             true,
		TotalStaked:        decimal.Zero,
		MatchStartsAt:      time.Now().Add(24 * time.Hour),
	}
}

// CreateTestWager creates an active wager locked at the quote's price
func CreateTestWager(accountID int64, quote *entities.MarketQuote, stake string) *entities.Wager {
	stakeAmount := decimal.RequireFromString(stake)
	return &entities.Wager{
		AccountID:       accountID,
		MatchID:         quote.MatchID,
		QuoteID:         quote.ID,
		Market:          quote.Market,
		Selection:       quote.Selection,
		Line:            quote.Line,
		Stake:           stakeAmount,
		LockedPrice:     quote.Price,
		PotentialPayout: stakeAmount.Mul(quote.Price).Round(2),
		State:           entities.WagerStateActive,
	}
}

// CreateTestBalanceHistory creates a consistent ledger entry for an account
func CreateTestBalanceHistory(accountID int64, transactionType entities.TransactionType) *entities.BalanceHistory {
	before := decimal.RequireFromString("1000.00")
	change := decimal.RequireFromString("-100.00")
	return &entities.BalanceHistory{
		AccountID:       accountID,
		BalanceBefore:   before,
		BalanceAfter:    before.Add(change),
		ChangeAmount:    change,
		TransactionType: transactionType,
	}
}

// CreateTestBalanceHistoryWithAmounts creates a ledger entry with specific amounts
func CreateTestBalanceHistoryWithAmounts(accountID int64, before, after, change decimal.Decimal, transactionType entities.TransactionType) *entities.BalanceHistory {
	history := CreateTestBalanceHistory(accountID, transactionType)
	history.BalanceBefore = before
	history.BalanceAfter = after
	history.ChangeAmount = change
	return history
}
