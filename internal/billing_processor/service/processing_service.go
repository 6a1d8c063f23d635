package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/marketplace-escrow-ledger/internal/domain/contract"
	"github.com/marketplace-escrow-ledger/internal/domain/shared"
	"github.com/marketplace-escrow-ledger/internal/platform/persistence"
)

type ProcessingServiceImpl struct {
	pgDB             *persistence.PostgresDB
	validator        ChargeValidator
	feeManager       FeeManager
	invoiceGenerator InvoiceGenerator
	outboxManager    OutboxManager
	failureRecorder  FailureRecorder
	logger           *slog.Logger
}

func NewProcessingService(
	pgDB *persistence.PostgresDB,
	validator ChargeValidator,
	feeManager FeeManager,
	invoiceGenerator InvoiceGenerator,
	outboxManager OutboxManager,
	failureRecorder FailureRecorder,
	logger *slog.Logger,
) ProcessingService {
	return &ProcessingServiceImpl{
		pgDB:             pgDB,
		validator:        validator,
		feeManager:       feeManager,
		invoiceGenerator: invoiceGenerator,
		outboxManager:    outboxManager,
		failureRecorder:  failureRecorder,
		logger:           logger,
	}
}

// ProcessCharge handles the core logic for committing a weekly charge.
func (s *ProcessingServiceImpl) ProcessCharge(ctx context.Context, request *shared.ChargeRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Processing charge", "charge_id", request.ChargeID.String(), "contract_id", request.ContractID.String())

	// 1. Validate the charge request
	if err := s.validator.Validate(ctx, request); err != nil {
		logger.Error("Charge validation failed", "charge_id", request.ChargeID.String(), "error", err)

		var failureReason string
		switch {
		case errors.Is(err, shared.ErrInvalidAmount):
			failureReason = string(shared.FailureReasonInvalidAmount)
		case errors.Is(err, shared.ErrMissingGatewayReference):
			failureReason = string(shared.FailureReasonMissingGatewayReference)
		default:
			failureReason = string(shared.FailureReasonUnknownError)
		}

		if recordErr := s.failureRecorder.RecordFailure(ctx, request, failureReason); recordErr != nil {
			logger.Error("Failed to record charge failure", "charge_id", request.ChargeID.String(), "error", recordErr)
		}

		return nil // Return nil to Kafka consumer to acknowledge the message
	}

	// 2. Check idempotency
	skip, err := s.validator.CheckIdempotency(ctx, request)
	if err != nil {
		return err // Let Kafka retry
	}
	if skip {
		return nil // Already committed, return success
	}

	// 3. Begin database transaction
	var tx pgx.Tx
	tx, err = s.pgDB.Pool().Begin(ctx)
	if err != nil {
		logger.Error("Failed to begin database transaction", "charge_id", request.ChargeID.String(), "error", err)
		return fmt.Errorf("failed to begin DB transaction for %s: %w", request.ChargeID.String(), err)
	}
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Panic recovered, rolling back transaction", "panic", p, "charge_id", request.ChargeID.String())
			_ = tx.Rollback(ctx)
			panic(p) // Re-panic
		} else if err != nil {
			logger.Error("Error occurred, rolling back transaction", "error", err, "charge_id", request.ChargeID.String())
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logger.Error("Failed to rollback transaction after error", "rollback_error", rbErr, "original_error", err, "charge_id", request.ChargeID.String())
			}
		}
	}()

	// 4. Price against the relationship and write the ledger entries
	result, err := s.feeManager.PriceAndCommit(ctx, tx, request)
	if err != nil {
		// Handle specific business errors
		if errors.Is(err, contract.ErrContractNotFound{ContractID: request.ContractID}) {
			if recordErr := s.failureRecorder.RecordFailure(ctx, request, string(shared.FailureReasonContractNotFound)); recordErr != nil {
				logger.Error("Failed to record contract not found failure", "charge_id", request.ChargeID.String(), "error", recordErr)
			}
			return nil // Return nil to Kafka consumer
		} else if errors.Is(err, shared.ErrInvalidCurrency) {
			failureReasonStr := fmt.Sprintf(string(shared.FailureReasonCurrencyMismatchFormat), request.Currency, "contract_currency")
			if recordErr := s.failureRecorder.RecordFailure(ctx, request, failureReasonStr); recordErr != nil {
				logger.Error("Failed to record currency mismatch failure", "charge_id", request.ChargeID.String(), "error", recordErr)
			}
			return nil // Return nil to Kafka consumer
		} else if errors.Is(err, shared.ErrContractNotBillable) {
			if recordErr := s.failureRecorder.RecordFailure(ctx, request, string(shared.FailureReasonContractNotBillable)); recordErr != nil {
				logger.Error("Failed to record contract not billable failure", "charge_id", request.ChargeID.String(), "error", recordErr)
			}
			return nil // Return nil to Kafka consumer
		}

		// For other errors, let them propagate for retry
		return err
	}

	// 5. Write the client invoice
	if err = s.invoiceGenerator.Generate(ctx, tx, request, result); err != nil {
		return err // Let the defer handle rollback
	}

	// 6. Queue post-commit notifications
	if err = s.outboxManager.QueueReceipt(ctx, tx, request, result); err != nil {
		return err // Let the defer handle rollback
	}

	// 7. Commit transaction
	if err = tx.Commit(ctx); err != nil {
		logger.Error("Failed to commit database transaction",
			"charge_id", request.ChargeID.String(),
			"contract_id", request.ContractID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to commit DB transaction for charge %s: %w", request.ChargeID.String(), err)
	}

	logger.Info("Charge committed",
		"charge_id", request.ChargeID.String(),
		"contract_id", request.ContractID.String(),
		"commission", result.Quote.Commission,
		"rate_used", result.Quote.RateUsed,
	)
	return nil // SUCCESS!
}
