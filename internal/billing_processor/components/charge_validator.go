package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marketplace-escrow-ledger/internal/billing_processor/service"
	"github.com/marketplace-escrow-ledger/internal/domain/escrow"
	"github.com/marketplace-escrow-ledger/internal/domain/shared"
)

type ChargeValidatorImpl struct {
	escrowRepo escrow.Repository
	logger     *slog.Logger
}

func NewChargeValidator(escrowRepo escrow.Repository, logger *slog.Logger) service.ChargeValidator {
	return &ChargeValidatorImpl{
		escrowRepo: escrowRepo,
		logger:     logger,
	}
}

// Validate checks charge request validity
func (v *ChargeValidatorImpl) Validate(ctx context.Context, request *shared.ChargeRequest) error {
	logger := v.logger
	if request.CorrelationID != "" {
		logger = v.logger.With("correlation_id", request.CorrelationID)
	}

	if !request.Amount.IsPositive() {
		logger.Error("Invalid amount", "charge_id", request.ChargeID.String(), "amount", request.Amount)
		return shared.ErrInvalidAmount
	}

	if len(request.Currency) != 3 {
		logger.Error("Invalid currency code", "charge_id", request.ChargeID.String(), "currency", request.Currency)
		return shared.ErrInvalidCurrency
	}

	// Refunds are issued against the original charge, so a charge without a
	// gateway reference can never be unwound.
	if request.GatewayReference == "" {
		logger.Error("Missing gateway reference", "charge_id", request.ChargeID.String())
		return shared.ErrMissingGatewayReference
	}

	return nil
}

// CheckIdempotency checks if the charge was already committed to the ledger
func (v *ChargeValidatorImpl) CheckIdempotency(ctx context.Context, request *shared.ChargeRequest) (bool, error) {
	logger := v.logger
	if request.CorrelationID != "" {
		logger = v.logger.With("correlation_id", request.CorrelationID)
	}

	existingEntry, err := v.escrowRepo.GetByIdempotencyKey(ctx, request.IdempotencyKey)
	if err != nil {
		logger.Error("Failed to check ledger for idempotency", "charge_id", request.ChargeID.String(), "error", err)
		return false, fmt.Errorf("idempotency check failed for charge %s: %w", request.ChargeID.String(), err)
	}

	if existingEntry != nil {
		logger.Info("Charge already committed (idempotency)",
			"charge_id", request.ChargeID.String(),
			"entry_id", existingEntry.ID.String(),
			"status", existingEntry.Status,
		)
		return true, nil // Skip processing
	}

	return false, nil // Continue processing
}
