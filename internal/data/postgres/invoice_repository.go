package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marketplace-escrow-ledger/internal/domain/invoice"
	"github.com/marketplace-escrow-ledger/internal/platform/persistence"
)

// InvoiceRepository implements the invoice.Repository interface for PostgreSQL
type InvoiceRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewInvoiceRepository creates a new PostgreSQL invoice repository
func NewInvoiceRepository(logger *slog.Logger, db *persistence.PostgresDB) invoice.Repository {
	return &InvoiceRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *InvoiceRepository) WithTx(tx pgx.Tx) invoice.Repository {
	return &InvoiceRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new invoice
func (r *InvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		INSERT INTO invoices (id, contract_id, client_id, amount, client_fee, total, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		inv.ID,
		inv.ContractID,
		inv.ClientID,
		inv.Amount,
		inv.ClientFee,
		inv.Total,
		inv.Currency,
		inv.Status,
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create invoice", "id", inv.ID.String(), "error", err)
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	return nil
}

// GetByContractID retrieves a contract's invoices, newest first
func (r *InvoiceRepository) GetByContractID(ctx context.Context, contractID uuid.UUID) ([]*invoice.Invoice, error) {
	query := `
		SELECT id, contract_id, client_id, amount, client_fee, total, currency, status, created_at, updated_at
		FROM invoices
		WHERE contract_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.querier.Query(ctx, query, contractID)
	if err != nil {
		r.logger.Error("Failed to get invoices", "contract_id", contractID.String(), "error", err)
		return nil, fmt.Errorf("failed to get invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*invoice.Invoice
	for rows.Next() {
		var inv invoice.Invoice
		err := rows.Scan(
			&inv.ID,
			&inv.ContractID,
			&inv.ClientID,
			&inv.Amount,
			&inv.ClientFee,
			&inv.Total,
			&inv.Currency,
			&inv.Status,
			&inv.CreatedAt,
			&inv.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan invoice", "error", err)
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, &inv)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over invoices", "error", err)
		return nil, fmt.Errorf("error iterating over invoices: %w", err)
	}

	return invoices, nil
}

// MarkRefundedForContract moves the contract's paid and sent invoices to
// refunded. Returns the number of invoices updated.
func (r *InvoiceRepository) MarkRefundedForContract(ctx context.Context, contractID uuid.UUID) (int64, error) {
	query := `
		UPDATE invoices
		SET status = 'refunded', updated_at = NOW()
		WHERE contract_id = $1 AND status IN ('paid', 'sent')
	`

	result, err := r.querier.Exec(ctx, query, contractID)
	if err != nil {
		r.logger.Error("Failed to mark invoices refunded", "contract_id", contractID.String(), "error", err)
		return 0, fmt.Errorf("failed to mark invoices refunded: %w", err)
	}

	return result.RowsAffected(), nil
}
