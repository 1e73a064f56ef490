package repository

import (
	"context"
	"errors"
	"fmt"

	"bookmaker/database"
	"bookmaker/domain/entities"

	"github.com/jackc/pgx/v5"
)

// ParlayRepository implements parlay data access
type ParlayRepository struct {
	q Queryable
}

// NewParlayRepository creates a new parlay repository
func NewParlayRepository(db *database.DB) *ParlayRepository {
	return &ParlayRepository{q: db.Pool}
}

func newParlayRepository(tx Queryable) *ParlayRepository {
	return &ParlayRepository{q: tx}
}

const parlayColumns = `
	id, account_id, stake, combined_price, potential_payout, state, outcome,
	created_at, settled_at
`

func scanParlay(row pgx.Row) (*entities.Parlay, error) {
	var parlay entities.Parlay
	err := row.Scan(
		&parlay.ID,
		&parlay.AccountID,
		&parlay.Stake,
		&parlay.CombinedPrice,
		&parlay.PotentialPayout,
		&parlay.State,
		&parlay.Outcome,
		&parlay.CreatedAt,
		&parlay.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	return &parlay, nil
}

// Create creates a new parlay
func (r *ParlayRepository) Create(ctx context.Context, parlay *entities.Parlay) error {
	query := `
		INSERT INTO parlays (account_id, stake, combined_price, potential_payout, state)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		parlay.AccountID,
		parlay.Stake,
		parlay.CombinedPrice,
		parlay.PotentialPayout,
		parlay.State,
	).Scan(&parlay.ID, &parlay.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create parlay: %w", err)
	}

	return nil
}

// GetByID retrieves a parlay by its ID
func (r *ParlayRepository) GetByID(ctx context.Context, id int64) (*entities.Parlay, error) {
	query := `SELECT ` + parlayColumns + ` FROM parlays WHERE id = $1`

	parlay, err := scanParlay(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("parlay %d: %w", id, entities.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parlay by ID %d: %w", id, err)
	}

	return parlay, nil
}

// GetAllByAccount returns parlays for an account, newest first
func (r *ParlayRepository) GetAllByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.Parlay, error) {
	query := `
		SELECT ` + parlayColumns + `
		FROM parlays
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query parlays for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var parlays []*entities.Parlay
	for rows.Next() {
		parlay, err := scanParlay(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parlay: %w", err)
		}
		parlays = append(parlays, parlay)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate parlays: %w", err)
	}

	return parlays, nil
}

// MarkSettled transitions an active parlay to settled with the same
// exactly-once guard as wagers.
func (r *ParlayRepository) MarkSettled(ctx context.Context, id int64, outcome entities.WagerOutcome) error {
	query := `
		UPDATE parlays
		SET state = $2, outcome = $3, settled_at = NOW()
		WHERE id = $1 AND state = $4
	`

	tag, err := r.q.Exec(ctx, query, id, entities.WagerStateSettled, outcome, entities.WagerStateActive)
	if err != nil {
		return fmt.Errorf("failed to settle parlay %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("parlay %d is not active: %w", id, entities.ErrInvalidStateTransition)
	}

	return nil
}
