package repository

import (
	"context"
	"errors"
	"fmt"

	"bookmaker/database"
	"bookmaker/domain/entities"

	"github.com/jackc/pgx/v5"
)

// WagerRepository implements wager data access
type WagerRepository struct {
	q Queryable
}

// NewWagerRepository creates a new wager repository
func NewWagerRepository(db *database.DB) *WagerRepository {
	return &WagerRepository{q: db.Pool}
}

func newWagerRepository(tx Queryable) *WagerRepository {
	return &WagerRepository{q: tx}
}

const wagerColumns = `
	id, account_id, match_id, quote_id, parlay_id, market, selection, line,
	stake, locked_price, potential_payout, state, outcome, created_at, settled_at
`

func scanWager(row pgx.Row) (*entities.Wager, error) {
	var wager entities.Wager
	err := row.Scan(
		&wager.ID,
		&wager.AccountID,
		&wager.MatchID,
		&wager.QuoteID,
		&wager.ParlayID,
		&wager.Market,
		&wager.Selection,
		&wager.Line,
		&wager.Stake,
		&wager.LockedPrice,
		&wager.PotentialPayout,
		&wager.State,
		&wager.Outcome,
		&wager.CreatedAt,
		&wager.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	return &wager, nil
}

// Create creates a new wager
func (r *WagerRepository) Create(ctx context.Context, wager *entities.Wager) error {
	query := `
		INSERT INTO wagers (
			account_id, match_id, quote_id, parlay_id, market, selection, line,
			stake, locked_price, potential_payout, state
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		wager.AccountID,
		wager.MatchID,
		wager.QuoteID,
		wager.ParlayID,
		wager.Market,
		wager.Selection,
		wager.Line,
		wager.Stake,
		wager.LockedPrice,
		wager.PotentialPayout,
		wager.State,
	).Scan(&wager.ID, &wager.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create wager: %w", err)
	}

	return nil
}

// GetByID retrieves a wager by its ID
func (r *WagerRepository) GetByID(ctx context.Context, id int64) (*entities.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1`

	wager, err := scanWager(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("wager %d: %w", id, entities.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager by ID %d: %w", id, err)
	}

	return wager, nil
}

// GetActiveByMatch returns all active wagers referencing a match
func (r *WagerRepository) GetActiveByMatch(ctx context.Context, matchID int64) ([]*entities.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE match_id = $1 AND state = $2
		ORDER BY id
	`

	return r.queryWagers(ctx, query, matchID, entities.WagerStateActive)
}

// GetByParlay returns all legs of a parlay
func (r *WagerRepository) GetByParlay(ctx context.Context, parlayID int64) ([]*entities.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE parlay_id = $1
		ORDER BY id
	`

	return r.queryWagers(ctx, query, parlayID)
}

// GetAllByAccount returns wagers for an account, newest first
func (r *WagerRepository) GetAllByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	return r.queryWagers(ctx, query, accountID, limit)
}

// MarkSettled transitions an active wager to settled. The state guard in the
// WHERE clause makes settlement exactly-once: a second attempt affects no
// rows.
func (r *WagerRepository) MarkSettled(ctx context.Context, id int64, outcome entities.WagerOutcome) error {
	query := `
		UPDATE wagers
		SET state = $2, outcome = $3, settled_at = NOW()
		WHERE id = $1 AND state = $4
	`

	tag, err := r.q.Exec(ctx, query, id, entities.WagerStateSettled, outcome, entities.WagerStateActive)
	if err != nil {
		return fmt.Errorf("failed to settle wager %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wager %d is not active: %w", id, entities.ErrInvalidStateTransition)
	}

	return nil
}

// MarkCancelled transitions an active wager to cancelled, same guard as
// MarkSettled.
func (r *WagerRepository) MarkCancelled(ctx context.Context, id int64) error {
	query := `
		UPDATE wagers
		SET state = $2, outcome = $3, settled_at = NOW()
		WHERE id = $1 AND state = $4
	`

	tag, err := r.q.Exec(ctx, query, id, entities.WagerStateCancelled, entities.OutcomeCancelled, entities.WagerStateActive)
	if err != nil {
		return fmt.Errorf("failed to cancel wager %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wager %d is not active: %w", id, entities.ErrInvalidStateTransition)
	}

	return nil
}

func (r *WagerRepository) queryWagers(ctx context.Context, query string, args ...any) ([]*entities.Wager, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query wagers: %w", err)
	}
	defer rows.Close()

	var wagers []*entities.Wager
	for rows.Next() {
		wager, err := scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, wager)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wagers: %w", err)
	}

	return wagers, nil
}
