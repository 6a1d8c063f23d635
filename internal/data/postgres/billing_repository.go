package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marketplace-escrow-ledger/internal/domain/billing"
	"github.com/marketplace-escrow-ledger/internal/platform/persistence"
	"github.com/shopspring/decimal"
)

// BillingRepository implements the billing.Repository interface for PostgreSQL
type BillingRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewBillingRepository creates a new PostgreSQL billing relationship repository
func NewBillingRepository(logger *slog.Logger, db *persistence.PostgresDB) billing.Repository {
	return &BillingRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *BillingRepository) WithTx(tx pgx.Tx) billing.Repository {
	return &BillingRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Get retrieves the relationship for a client/freelancer pair.
// Returns nil, nil when the pair has never been billed.
func (r *BillingRepository) Get(ctx context.Context, clientID, freelancerID uuid.UUID) (*billing.Relationship, error) {
	query := `
		SELECT client_id, freelancer_id, cumulative_billed, updated_at
		FROM billing_relationships
		WHERE client_id = $1 AND freelancer_id = $2
	`

	var rel billing.Relationship
	err := r.querier.QueryRow(ctx, query, clientID, freelancerID).Scan(
		&rel.ClientID,
		&rel.FreelancerID,
		&rel.CumulativeBilled,
		&rel.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get billing relationship",
			"client_id", clientID.String(),
			"freelancer_id", freelancerID.String(),
			"error", err,
		)
		return nil, fmt.Errorf("failed to get billing relationship: %w", err)
	}

	return &rel, nil
}

// LockForPricing upserts the relationship row and acquires a row lock held
// until the surrounding transaction ends. The DO UPDATE arm is a no-op write
// whose only purpose is taking the lock on the existing row, so concurrent
// pricing for the same pair serializes here.
func (r *BillingRepository) LockForPricing(ctx context.Context, clientID, freelancerID uuid.UUID) (*billing.Relationship, error) {
	query := `
		INSERT INTO billing_relationships (client_id, freelancer_id, cumulative_billed, updated_at)
		VALUES ($1, $2, 0, NOW())
		ON CONFLICT (client_id, freelancer_id)
		DO UPDATE SET client_id = billing_relationships.client_id
		RETURNING client_id, freelancer_id, cumulative_billed, updated_at
	`

	var rel billing.Relationship
	err := r.querier.QueryRow(ctx, query, clientID, freelancerID).Scan(
		&rel.ClientID,
		&rel.FreelancerID,
		&rel.CumulativeBilled,
		&rel.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to lock billing relationship for pricing",
			"client_id", clientID.String(),
			"freelancer_id", freelancerID.String(),
			"error", err,
		)
		return nil, fmt.Errorf("failed to lock billing relationship for pricing: %w", err)
	}

	return &rel, nil
}

// AddToCumulative increments the pair's cumulative billed total.
// Returns ErrConcurrentModification when the row is missing, which means the
// caller skipped LockForPricing.
func (r *BillingRepository) AddToCumulative(ctx context.Context, clientID, freelancerID uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE billing_relationships
		SET cumulative_billed = cumulative_billed + $1, updated_at = NOW()
		WHERE client_id = $2 AND freelancer_id = $3
	`

	result, err := r.querier.Exec(ctx, query, amount, clientID, freelancerID)
	if err != nil {
		r.logger.Error("Failed to update cumulative billing",
			"client_id", clientID.String(),
			"freelancer_id", freelancerID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to update cumulative billing: %w", err)
	}

	if result.RowsAffected() == 0 {
		return billing.ErrConcurrentModification{ClientID: clientID, FreelancerID: freelancerID}
	}

	return nil
}
