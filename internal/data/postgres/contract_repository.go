package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marketplace-escrow-ledger/internal/domain/contract"
	"github.com/marketplace-escrow-ledger/internal/platform/persistence"
)

// ContractRepository implements the contract.Repository interface for PostgreSQL
type ContractRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewContractRepository creates a new PostgreSQL contract repository
func NewContractRepository(logger *slog.Logger, db *persistence.PostgresDB) contract.Repository {
	return &ContractRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *ContractRepository) WithTx(tx pgx.Tx) contract.Repository {
	return &ContractRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetByID retrieves a contract by its ID
func (r *ContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	query := `
		SELECT id, title, client_id, freelancer_id, hourly_rate, currency, status, created_at, updated_at
		FROM contracts
		WHERE id = $1
	`

	var c contract.Contract
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Title,
		&c.ClientID,
		&c.FreelancerID,
		&c.HourlyRate,
		&c.Currency,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contract.ErrContractNotFound{ContractID: id}
		}
		r.logger.Error("Failed to get contract", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}

	return &c, nil
}

// SetStatusIfCurrently performs a guarded status update. The row only changes
// when its status still equals expected, so racing resolvers cannot both move
// a contract out of the same state.
func (r *ContractRepository) SetStatusIfCurrently(ctx context.Context, id uuid.UUID, expected, next contract.Status) (bool, error) {
	if !expected.CanTransitionTo(next) {
		return false, contract.ErrInvalidStatusTransition{From: expected, To: next}
	}

	query := `
		UPDATE contracts
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := r.querier.Exec(ctx, query, next, id, expected)
	if err != nil {
		r.logger.Error("Failed to update contract status",
			"id", id.String(),
			"from", string(expected),
			"to", string(next),
			"error", err,
		)
		return false, fmt.Errorf("failed to update contract status: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
