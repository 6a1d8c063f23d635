package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marketplace-escrow-ledger/internal/domain/dispute"
	"github.com/marketplace-escrow-ledger/internal/platform/persistence"
)

// DisputeRepository implements the dispute.Repository interface for PostgreSQL
type DisputeRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewDisputeRepository creates a new PostgreSQL dispute repository
func NewDisputeRepository(logger *slog.Logger, db *persistence.PostgresDB) dispute.Repository {
	return &DisputeRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *DisputeRepository) WithTx(tx pgx.Tx) dispute.Repository {
	return &DisputeRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetByID retrieves a dispute by its ID
func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*dispute.Dispute, error) {
	query := `
		SELECT id, contract_id, raised_by, reason, status, created_at, resolved_at
		FROM disputes
		WHERE id = $1
	`

	var d dispute.Dispute
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&d.ID,
		&d.ContractID,
		&d.RaisedBy,
		&d.Reason,
		&d.Status,
		&d.CreatedAt,
		&d.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dispute.ErrDisputeNotFound{DisputeID: id}
		}
		r.logger.Error("Failed to get dispute", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get dispute: %w", err)
	}

	return &d, nil
}

// GetActiveByFreelancer lists unresolved disputes on the freelancer's
// contracts, newest first.
func (r *DisputeRepository) GetActiveByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]*dispute.Active, error) {
	query := `
		SELECT d.id, d.contract_id, c.title
		FROM disputes d
		JOIN contracts c ON c.id = d.contract_id
		WHERE c.freelancer_id = $1 AND d.status IN ('open', 'under_review')
		ORDER BY d.created_at DESC
	`

	rows, err := r.querier.Query(ctx, query, freelancerID)
	if err != nil {
		r.logger.Error("Failed to get active disputes", "freelancer_id", freelancerID.String(), "error", err)
		return nil, fmt.Errorf("failed to get active disputes: %w", err)
	}
	defer rows.Close()

	var disputes []*dispute.Active
	for rows.Next() {
		var a dispute.Active
		if err := rows.Scan(&a.DisputeID, &a.ContractID, &a.ContractTitle); err != nil {
			r.logger.Error("Failed to scan active dispute", "error", err)
			return nil, fmt.Errorf("failed to scan active dispute: %w", err)
		}
		disputes = append(disputes, &a)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over active disputes", "error", err)
		return nil, fmt.Errorf("error iterating over active disputes: %w", err)
	}

	return disputes, nil
}

// SetResolved stamps the dispute with its verdict and resolution time
func (r *DisputeRepository) SetResolved(ctx context.Context, id uuid.UUID, resolution dispute.Status) error {
	if !resolution.IsResolution() {
		return dispute.ErrInvalidResolutionStatus{Status: resolution}
	}

	query := `
		UPDATE disputes
		SET status = $1, resolved_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, resolution, id)
	if err != nil {
		r.logger.Error("Failed to resolve dispute", "id", id.String(), "error", err)
		return fmt.Errorf("failed to resolve dispute: %w", err)
	}

	if result.RowsAffected() == 0 {
		return dispute.ErrDisputeNotFound{DisputeID: id}
	}

	return nil
}
