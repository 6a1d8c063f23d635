// Package postgres provides PostgreSQL implementations of the domain repositories.
// It handles all database operations while maintaining transaction safety and
// proper error handling for the escrow ledger system.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marketplace-escrow-ledger/internal/domain/escrow"
	"github.com/marketplace-escrow-ledger/internal/platform/persistence"
	"github.com/shopspring/decimal"
)

// EscrowRepository implements the escrow.Repository interface for PostgreSQL
type EscrowRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewEscrowRepository creates a new PostgreSQL escrow repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewEscrowRepository(logger *slog.Logger, db *persistence.PostgresDB) escrow.Repository {
	return &EscrowRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic operations
// across multiple repository calls.
func (r *EscrowRepository) WithTx(tx pgx.Tx) escrow.Repository {
	return &EscrowRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const entryColumns = `id, contract_id, type, amount, currency, status, gateway_reference, gateway_metadata, idempotency_key, correlation_id, created_at, processed_at`

func scanEntry(row pgx.Row) (*escrow.Entry, error) {
	var entry escrow.Entry
	err := row.Scan(
		&entry.ID,
		&entry.ContractID,
		&entry.Type,
		&entry.Amount,
		&entry.Currency,
		&entry.Status,
		&entry.GatewayReference,
		&entry.GatewayMetadata,
		&entry.IdempotencyKey,
		&entry.CorrelationID,
		&entry.CreatedAt,
		&entry.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create appends a new ledger entry. The idempotency key carries a unique
// constraint, so replays surface as ErrDuplicateEntry.
func (r *EscrowRepository) Create(ctx context.Context, entry *escrow.Entry) error {
	query := `
		INSERT INTO escrow_transactions (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.querier.Exec(ctx, query,
		entry.ID,
		entry.ContractID,
		entry.Type,
		entry.Amount,
		entry.Currency,
		entry.Status,
		entry.GatewayReference,
		entry.GatewayMetadata,
		entry.IdempotencyKey,
		entry.CorrelationID,
		entry.CreatedAt,
		entry.ProcessedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return escrow.ErrDuplicateEntry{EntryID: entry.ID}
		}
		r.logger.Error("Failed to create escrow entry", "id", entry.ID.String(), "error", err)
		return fmt.Errorf("failed to create escrow entry: %w", err)
	}

	return nil
}

// GetByID retrieves a ledger entry by its ID
func (r *EscrowRepository) GetByID(ctx context.Context, id uuid.UUID) (*escrow.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM escrow_transactions
		WHERE id = $1
	`

	entry, err := scanEntry(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, escrow.ErrEntryNotFound{EntryID: id}
		}
		r.logger.Error("Failed to get escrow entry", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get escrow entry: %w", err)
	}

	return entry, nil
}

// GetByIdempotencyKey retrieves an entry by idempotency key.
// Returns nil, nil when no entry carries the key.
func (r *EscrowRepository) GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*escrow.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM escrow_transactions
		WHERE idempotency_key = $1
	`

	entry, err := scanEntry(r.querier.QueryRow(ctx, query, idempotencyKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get escrow entry by idempotency key", "key", idempotencyKey, "error", err)
		return nil, fmt.Errorf("failed to get escrow entry by idempotency key: %w", err)
	}

	return entry, nil
}

// GetByContractID retrieves a contract's ledger entries, newest first
func (r *EscrowRepository) GetByContractID(ctx context.Context, contractID uuid.UUID, limit, offset int) ([]*escrow.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM escrow_transactions
		WHERE contract_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, contractID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to get escrow entries", "contract_id", contractID.String(), "error", err)
		return nil, fmt.Errorf("failed to get escrow entries: %w", err)
	}
	defer rows.Close()

	var entries []*escrow.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			r.logger.Error("Failed to scan escrow entry", "error", err)
			return nil, fmt.Errorf("failed to scan escrow entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over escrow entries", "error", err)
		return nil, fmt.Errorf("error iterating over escrow entries: %w", err)
	}

	return entries, nil
}

// CountByContractID returns the total number of entries for a contract
func (r *EscrowRepository) CountByContractID(ctx context.Context, contractID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM escrow_transactions
		WHERE contract_id = $1
	`

	var count int64
	err := r.querier.QueryRow(ctx, query, contractID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count escrow entries", "contract_id", contractID.String(), "error", err)
		return 0, fmt.Errorf("failed to count escrow entries: %w", err)
	}

	return count, nil
}

// ContractBalance sums the contract's completed entries per movement type.
// Only completed entries count toward balances; reversed holds and failed
// charges never move money.
func (r *EscrowRepository) ContractBalance(ctx context.Context, contractID uuid.UUID) (*escrow.Balance, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'fund'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'release'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'refund'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'dispute_refund'), 0)
		FROM escrow_transactions
		WHERE contract_id = $1 AND status = 'completed'
	`

	var balance escrow.Balance
	err := r.querier.QueryRow(ctx, query, contractID).Scan(
		&balance.Funded,
		&balance.Released,
		&balance.Refunded,
		&balance.DisputeRefunded,
	)
	if err != nil {
		r.logger.Error("Failed to derive contract balance", "contract_id", contractID.String(), "error", err)
		return nil, fmt.Errorf("failed to derive contract balance: %w", err)
	}

	return &balance, nil
}

// DisputeHeldAmount sums the contract's completed dispute_hold entries
func (r *EscrowRepository) DisputeHeldAmount(ctx context.Context, contractID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM escrow_transactions
		WHERE contract_id = $1 AND type = 'dispute_hold' AND status = 'completed'
	`

	var held decimal.Decimal
	err := r.querier.QueryRow(ctx, query, contractID).Scan(&held)
	if err != nil {
		r.logger.Error("Failed to sum dispute holds", "contract_id", contractID.String(), "error", err)
		return decimal.Zero, fmt.Errorf("failed to sum dispute holds: %w", err)
	}

	return held, nil
}

// ReverseDisputeHolds transitions all completed dispute_hold entries for the
// contract to reversed. Returns the number of entries reversed; zero when the
// holds were already reversed, making the operation safe to repeat.
func (r *EscrowRepository) ReverseDisputeHolds(ctx context.Context, contractID uuid.UUID) (int64, error) {
	query := `
		UPDATE escrow_transactions
		SET status = 'reversed', processed_at = NOW()
		WHERE contract_id = $1 AND type = 'dispute_hold' AND status = 'completed'
	`

	result, err := r.querier.Exec(ctx, query, contractID)
	if err != nil {
		r.logger.Error("Failed to reverse dispute holds", "contract_id", contractID.String(), "error", err)
		return 0, fmt.Errorf("failed to reverse dispute holds: %w", err)
	}

	return result.RowsAffected(), nil
}

// FundedWithGatewayRef retrieves the contract's completed fund entries that
// carry a gateway reference, newest first, for proportional refund unwinding.
func (r *EscrowRepository) FundedWithGatewayRef(ctx context.Context, contractID uuid.UUID) ([]*escrow.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM escrow_transactions
		WHERE contract_id = $1 AND type = 'fund' AND status = 'completed' AND gateway_reference IS NOT NULL
		ORDER BY created_at DESC
	`

	rows, err := r.querier.Query(ctx, query, contractID)
	if err != nil {
		r.logger.Error("Failed to get funded entries", "contract_id", contractID.String(), "error", err)
		return nil, fmt.Errorf("failed to get funded entries: %w", err)
	}
	defer rows.Close()

	var entries []*escrow.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			r.logger.Error("Failed to scan funded entry", "error", err)
			return nil, fmt.Errorf("failed to scan funded entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over funded entries", "error", err)
		return nil, fmt.Errorf("error iterating over funded entries: %w", err)
	}

	return entries, nil
}

// LockContract takes an advisory transaction lock keyed on the contract ID,
// serializing dispute hold and resolution flows per contract. The lock is
// released when the surrounding transaction ends.
func (r *EscrowRepository) LockContract(ctx context.Context, contractID uuid.UUID) error {
	query := `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`

	_, err := r.querier.Exec(ctx, query, contractID.String())
	if err != nil {
		r.logger.Error("Failed to lock contract", "contract_id", contractID.String(), "error", err)
		return fmt.Errorf("failed to lock contract: %w", err)
	}

	return nil
}
