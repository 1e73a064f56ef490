package repository

import (
	"context"
	"errors"
	"fmt"

	"bookmaker/database"
	"bookmaker/domain/entities"

	"github.com/jackc/pgx/v5"
)

// TreasuryRepository implements treasury request data access
type TreasuryRepository struct {
	q Queryable
}

// NewTreasuryRepository creates a new treasury repository
func NewTreasuryRepository(db *database.DB) *TreasuryRepository {
	return &TreasuryRepository{q: db.Pool}
}

func newTreasuryRepository(tx Queryable) *TreasuryRepository {
	return &TreasuryRepository{q: tx}
}

const treasuryColumns = `
	id, reference, account_id, request_type, amount, commission, net_amount,
	method, destination, proof, state, admin_id, admin_notes, created_at, processed_at
`

func scanTreasuryRequest(row pgx.Row) (*entities.TreasuryRequest, error) {
	var request entities.TreasuryRequest
	err := row.Scan(
		&request.ID,
		&request.Reference,
		&request.AccountID,
		&request.Type,
		&request.Amount,
		&request.Commission,
		&request.NetAmount,
		&request.Method,
		&request.Destination,
		&request.Proof,
		&request.State,
		&request.AdminID,
		&request.AdminNotes,
		&request.CreatedAt,
		&request.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Create creates a new pending request
func (r *TreasuryRepository) Create(ctx context.Context, request *entities.TreasuryRequest) error {
	query := `
		INSERT INTO treasury_requests (
			reference, account_id, request_type, amount, commission, net_amount,
			method, destination, proof, state
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		request.Reference,
		request.AccountID,
		request.Type,
		request.Amount,
		request.Commission,
		request.NetAmount,
		request.Method,
		request.Destination,
		request.Proof,
		request.State,
	).Scan(&request.ID, &request.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create treasury request: %w", err)
	}

	return nil
}

// GetByID retrieves a request by its ID
func (r *TreasuryRepository) GetByID(ctx context.Context, id int64) (*entities.TreasuryRequest, error) {
	query := `SELECT ` + treasuryColumns + ` FROM treasury_requests WHERE id = $1`

	request, err := scanTreasuryRequest(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("treasury request %d: %w", id, entities.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get treasury request by ID %d: %w", id, err)
	}

	return request, nil
}

// ListByState returns requests of one type in one state, oldest first so the
// approval queue is served in arrival order.
func (r *TreasuryRepository) ListByState(ctx context.Context, requestType entities.TreasuryRequestType, state entities.TreasuryRequestState, limit int) ([]*entities.TreasuryRequest, error) {
	query := `
		SELECT ` + treasuryColumns + `
		FROM treasury_requests
		WHERE request_type = $1 AND state = $2
		ORDER BY created_at ASC
		LIMIT $3
	`

	rows, err := r.q.Query(ctx, query, requestType, state, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list treasury requests: %w", err)
	}
	defer rows.Close()

	var requests []*entities.TreasuryRequest
	for rows.Next() {
		request, err := scanTreasuryRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan treasury request: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate treasury requests: %w", err)
	}

	return requests, nil
}

// MarkProcessed transitions a pending request to a terminal state. The
// pending guard makes approval exactly-once.
func (r *TreasuryRepository) MarkProcessed(ctx context.Context, id int64, state entities.TreasuryRequestState, adminID *int64, notes string) error {
	query := `
		UPDATE treasury_requests
		SET state = $2, admin_id = $3, admin_notes = $4, processed_at = NOW()
		WHERE id = $1 AND state = $5
	`

	tag, err := r.q.Exec(ctx, query, id, state, adminID, notes, entities.TreasuryStatePending)
	if err != nil {
		return fmt.Errorf("failed to process treasury request %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("treasury request %d is not pending: %w", id, entities.ErrInvalidStateTransition)
	}

	return nil
}
