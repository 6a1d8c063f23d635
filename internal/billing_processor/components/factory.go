package components

import (
	"log/slog"

	"github.com/marketplace-escrow-ledger/internal/billing_processor/service"
	"github.com/marketplace-escrow-ledger/internal/config"
	"github.com/marketplace-escrow-ledger/internal/domain/billing"
	"github.com/marketplace-escrow-ledger/internal/domain/contract"
	"github.com/marketplace-escrow-ledger/internal/domain/escrow"
	"github.com/marketplace-escrow-ledger/internal/domain/invoice"
	"github.com/marketplace-escrow-ledger/internal/domain/outbox"
	"github.com/marketplace-escrow-ledger/internal/platform/persistence"
)

// CreateProcessingService creates a new ProcessingService with all its dependencies.
func CreateProcessingService(
	pgDB *persistence.PostgresDB,
	escrowRepo escrow.Repository,
	contractRepo contract.Repository,
	billingRepo billing.Repository,
	invoiceRepo invoice.Repository,
	outboxRepo outbox.Repository,
	logger *slog.Logger,
	cfg *config.Config,
) service.ProcessingService {
	validator := NewChargeValidator(escrowRepo, logger)
	feeManager := NewFeeManager(escrowRepo, contractRepo, billingRepo, logger)
	invoiceGenerator := NewInvoiceGenerator(invoiceRepo, logger)
	outboxManager := NewOutboxManager(outboxRepo, logger)
	failureRecorder := NewFailureRecorder(escrowRepo, contractRepo, outboxRepo, logger)

	baseService := service.NewProcessingService(
		pgDB,
		validator,
		feeManager,
		invoiceGenerator,
		outboxManager,
		failureRecorder,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
