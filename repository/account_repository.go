package repository

import (
	"context"
	"errors"
	"fmt"

	"bookmaker/database"
	"bookmaker/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository implements account data access
type AccountRepository struct {
	q Queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

func newAccountRepository(tx Queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*entities.Account, error) {
	query := `
		SELECT id, owner_ref, balance, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	var account entities.Account
	err := r.q.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.OwnerRef,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("account %d: %w", id, entities.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by ID %d: %w", id, err)
	}

	return &account, nil
}

// Create creates a new account with the initial balance
func (r *AccountRepository) Create(ctx context.Context, ownerRef string, initialBalance decimal.Decimal) (*entities.Account, error) {
	query := `
		INSERT INTO accounts (owner_ref, balance)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`

	account := &entities.Account{
		OwnerRef: ownerRef,
		Balance:  initialBalance,
	}
	err := r.q.QueryRow(ctx, query, ownerRef, initialBalance).Scan(
		&account.ID,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// AdjustBalance applies delta to the balance in a single guarded UPDATE. The
// balance can never go negative: a debit past zero affects no rows and the
// statement reports why.
func (r *AccountRepository) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING balance
	`

	var newBalance decimal.Decimal
	err := r.q.QueryRow(ctx, query, id, delta).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the account is missing or the guard rejected the debit.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return decimal.Zero, getErr
		}
		return decimal.Zero, fmt.Errorf("account %d cannot cover %s: %w", id, delta.Neg(), entities.ErrInsufficientFunds)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to adjust balance for account %d: %w", id, err)
	}

	return newBalance, nil
}
