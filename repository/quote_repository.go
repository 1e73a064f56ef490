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

// QuoteRepository implements market quote data access
type QuoteRepository struct {
	q Queryable
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *database.DB) *QuoteRepository {
	return &QuoteRepository{q: db.Pool}
}

func newQuoteRepository(tx Queryable) *QuoteRepository {
	return &QuoteRepository{q: tx}
}

const quoteColumns = `
	id, match_id, market, selection, line, price, implied_probability,
	margin, source, active, wager_count, total_staked, match_starts_at, created_at
`

func scanQuote(row pgx.Row) (*entities.MarketQuote, error) {
	var quote entities.MarketQuote
	err := row.Scan(
		&quote.ID,
		&quote.MatchID,
		&quote.Market,
		&quote.Selection,
		&quote.Line,
		&quote.Price,
		&quote.ImpliedProbability,
		&quote.Margin,
		&quote.Source,
		&quote.Active,
		&quote.WagerCount,
		&quote.TotalStaked,
		&quote.MatchStartsAt,
		&quote.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// Create creates a new market quote
func (r *QuoteRepository) Create(ctx context.Context, quote *entities.MarketQuote) error {
	query := `
		INSERT INTO market_quotes (
			match_id, market, selection, line, price, implied_probability,
			margin, source, active, wager_count, total_staked, match_starts_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		quote.MatchID,
		quote.Market,
		quote.Selection,
		quote.Line,
		quote.Price,
		quote.ImpliedProbability,
		quote.Margin,
		quote.Source,
		quote.Active,
		quote.WagerCount,
		quote.TotalStaked,
		quote.MatchStartsAt,
	).Scan(&quote.ID, &quote.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create quote: %w", err)
	}

	return nil
}

// GetByID retrieves a quote by its ID
func (r *QuoteRepository) GetByID(ctx context.Context, id int64) (*entities.MarketQuote, error) {
	query := `SELECT ` + quoteColumns + ` FROM market_quotes WHERE id = $1`

	quote, err := scanQuote(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("quote %d: %w", id, entities.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote by ID %d: %w", id, err)
	}

	return quote, nil
}

// GetActiveByMatch returns all active quotes for a match
func (r *QuoteRepository) GetActiveByMatch(ctx context.Context, matchID int64) ([]*entities.MarketQuote, error) {
	query := `
		SELECT ` + quoteColumns + `
		FROM market_quotes
		WHERE match_id = $1 AND active = TRUE
		ORDER BY market, selection, line
	`

	rows, err := r.q.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active quotes for match %d: %w", matchID, err)
	}
	defer rows.Close()

	var quotes []*entities.MarketQuote
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, quote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotes: %w", err)
	}

	return quotes, nil
}

// Deactivate marks every active quote for the same match, market, selection
// and line as superseded. Existing wagers keep their locked prices. The line
// is part of the key: alternate over/under lines coexist, so repricing the
// 2.5 board must not retire the 3.5 one.
func (r *QuoteRepository) Deactivate(ctx context.Context, matchID int64, market entities.MarketType, selection string, line *decimal.Decimal) error {
	query := `
		UPDATE market_quotes
		SET active = FALSE
		WHERE match_id = $1 AND market = $2 AND selection = $3
			AND line IS NOT DISTINCT FROM $4 AND active = TRUE
	`

	if _, err := r.q.Exec(ctx, query, matchID, market, selection, line); err != nil {
		return fmt.Errorf("failed to deactivate quotes for match %d: %w", matchID, err)
	}

	return nil
}

// IncrementCounters bumps the wager count and total staked aggregates
func (r *QuoteRepository) IncrementCounters(ctx context.Context, quoteID int64, stake decimal.Decimal) error {
	query := `
		UPDATE market_quotes
		SET wager_count = wager_count + 1, total_staked = total_staked + $2
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query, quoteID, stake)
	if err != nil {
		return fmt.Errorf("failed to increment counters for quote %d: %w", quoteID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quote %d: %w", quoteID, entities.ErrNotFound)
	}

	return nil
}
