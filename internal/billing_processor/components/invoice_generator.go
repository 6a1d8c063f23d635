package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/marketplace-escrow-ledger/internal/billing_processor/service"
	"github.com/marketplace-escrow-ledger/internal/domain/invoice"
	"github.com/marketplace-escrow-ledger/internal/domain/shared"
)

type InvoiceGeneratorImpl struct {
	invoiceRepo invoice.Repository
	logger      *slog.Logger
}

func NewInvoiceGenerator(invoiceRepo invoice.Repository, logger *slog.Logger) service.InvoiceGenerator {
	return &InvoiceGeneratorImpl{
		invoiceRepo: invoiceRepo,
		logger:      logger,
	}
}

// Generate writes a paid invoice for the committed charge. The charge settled
// at the gateway before it reached the queue, so the invoice is born paid.
func (g *InvoiceGeneratorImpl) Generate(ctx context.Context, tx pgx.Tx, request *shared.ChargeRequest, result *service.PricingResult) error {
	logger := g.logger
	if request.CorrelationID != "" {
		logger = g.logger.With("correlation_id", request.CorrelationID)
	}

	inv := invoice.NewPaid(result.Contract.ID, result.Contract.ClientID, request.Amount, result.ClientFee, request.Currency)

	if err := g.invoiceRepo.WithTx(tx).Create(ctx, inv); err != nil {
		logger.Error("Failed to create invoice",
			"charge_id", request.ChargeID.String(),
			"contract_id", result.Contract.ID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create invoice for charge %s: %w", request.ChargeID.String(), err)
	}

	logger.Info("Invoice created",
		"charge_id", request.ChargeID.String(),
		"invoice_id", inv.ID.String(),
		"total", inv.Total,
	)
	return nil
}
